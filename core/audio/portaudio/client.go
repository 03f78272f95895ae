package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/voxmail-ai/voxmail-core/core/audio"
)

// Client is an alternate audio backend over PortAudio. Playback is pushed
// synchronously from SendAudio and Mark, so marks fire as soon as the audio
// queued before them has been written to the stream.
type Client struct {
	bufferSize    int
	stream        *portaudio.Stream
	leftoverAudio []byte
	marks         []playbackMark

	in  []int16
	out []int16

	// writeBuffer pushes one device buffer to the output stream.
	writeBuffer func(buffer []byte) error

	captureCancel context.CancelFunc

	mu sync.Mutex
}

type playbackMark struct {
	name     string
	position int
	callback func(string)
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	in := make([]int16, bufferSize)
	out := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 1, audio.DefaultSampleRate, bufferSize, in, out)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	client := &Client{
		bufferSize: bufferSize,
		stream:     stream,
		in:         in,
		out:        out,
	}
	client.writeBuffer = client.writeDeviceBuffer
	if err := stream.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	return client, nil
}

func (c *Client) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.captureCancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	c.captureCancel = cancel

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if err := c.stream.Read(); err != nil {
					log.Printf("Failed to read from portaudio stream: %v", err)
					continue
				}

				audioBuffer := bytes.Buffer{}
				_ = binary.Write(&audioBuffer, binary.LittleEndian, c.in)
				onAudio(audioBuffer.Bytes())
			}
		}
	}()

	return nil
}

func (c *Client) StopCapture() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.captureCancel != nil {
		c.captureCancel()
		c.captureCancel = nil
	}
	return nil
}

func (c *Client) StartPlayback(context.Context) error {
	return nil
}

func (c *Client) StopPlayback() error {
	c.ClearBuffer()
	return nil
}

func (c *Client) Close() {
	_ = c.StopCapture()
	c.stream.Close()
	portaudio.Terminate()
}

func (c *Client) SendAudio(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	bufferSize := c.bufferSize * 2

	payload = append(c.leftoverAudio, payload...)
	written := 0
	for i := range len(payload)/bufferSize + 1 {
		if (i+1)*bufferSize > len(payload) {
			c.leftoverAudio = make([]byte, len(payload)-i*bufferSize)
			copy(c.leftoverAudio, payload[i*bufferSize:])
			break
		}

		_ = c.writeBuffer(payload[i*bufferSize : (i+1)*bufferSize])
		written += bufferSize
	}
	c.advanceMarks(written)

	return nil
}

func (c *Client) writeDeviceBuffer(buffer []byte) error {
	_ = binary.Read(bytes.NewBuffer(buffer), binary.LittleEndian, c.out)
	return c.stream.Write()
}

func (c *Client) ClearBuffer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leftoverAudio = make([]byte, 0)
	c.marks = nil
}

// Mark registers a callback fired once all audio queued before this call has
// been written out. The buffered tail is flushed right away so the mark does
// not have to wait for a later SendAudio to drain it.
func (c *Client) Mark(name string, callback func(string)) error {
	c.mu.Lock()
	if len(c.leftoverAudio) == 0 {
		c.mu.Unlock()
		go callback(name)
		return nil
	}
	c.marks = append(c.marks, playbackMark{
		name:     name,
		position: len(c.leftoverAudio),
		callback: callback,
	})
	c.mu.Unlock()

	return c.flushLeftover()
}

func (c *Client) AwaitMark() error {
	if err := c.flushLeftover(); err != nil {
		return err
	}

	c.mu.Lock()
	toCall := c.marks
	c.marks = nil
	c.mu.Unlock()
	for _, mark := range toCall {
		mark.callback(mark.name)
	}
	return nil
}

func (c *Client) flushLeftover() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	bufferSize := c.bufferSize * 2
	payload := c.leftoverAudio
	if len(payload) == 0 {
		return nil
	}

	// Pad the tail to a full device buffer so the last partial write drains.
	if rem := len(payload) % bufferSize; rem != 0 {
		payload = append(payload, make([]byte, bufferSize-rem)...)
	}
	for i := 0; i < len(payload)/bufferSize; i++ {
		_ = c.writeBuffer(payload[i*bufferSize : (i+1)*bufferSize])
	}
	c.leftoverAudio = make([]byte, 0)
	c.advanceMarks(len(payload))
	return nil
}

func (c *Client) advanceMarks(written int) {
	passed := 0
	for i, mark := range c.marks {
		if mark.position >= written {
			c.marks[i].position -= written
		} else {
			passed++
		}
	}
	if passed > 0 {
		toCall := c.marks[:passed]
		c.marks = c.marks[passed:]
		go func() {
			for _, mark := range toCall {
				mark.callback(mark.name)
			}
		}()
	}
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}
