package session

import (
	"slices"
	"sync"

	"github.com/voxmail-ai/voxmail-core/core/chat"
)

// conversation holds the finalized turns of a session. Only completed
// exchanges are recorded; an interrupted or failed reply never enters it.
type conversation struct {
	mu    sync.RWMutex
	turns []chat.Message
}

func (c *conversation) AppendUser(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, chat.Message{Role: chat.RoleUser, Content: content})
}

func (c *conversation) AppendAssistant(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, chat.Message{Role: chat.RoleAssistant, Content: content})
}

func (c *conversation) Snapshot() []chat.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.turns)
}
