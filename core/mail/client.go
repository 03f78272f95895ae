package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const tokenEnv = "VOXMAIL_MAIL_TOKEN"

// Client is a REST client for the mail provider.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient reads the provider token from VOXMAIL_MAIL_TOKEN.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   os.Getenv(tokenEnv),
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
}

// Summary is one search hit. Body text is only available through Read.
type Summary struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Unread  bool   `json:"unread"`
}

// Email is one full message.
type Email struct {
	ID          string       `json:"id"`
	From        string       `json:"from"`
	To          []string     `json:"to"`
	Subject     string       `json:"subject"`
	Date        string       `json:"date"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

// Search returns up to limit messages matching the query, newest first.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Summary, error) {
	ctx, span := tracer.Start(ctx, "search emails")
	defer span.End()
	span.SetAttributes(attribute.String("request.query", query))

	params := url.Values{}
	params.Set("q", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var result struct {
		Emails []Summary `json:"emails"`
	}
	if err := c.do(ctx, "search", http.MethodGet, "/emails?"+params.Encode(), nil, &result); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("response.emails", len(result.Emails)))
	return result.Emails, nil
}

// Read returns the full message, marking it read on the provider side.
func (c *Client) Read(ctx context.Context, messageID string) (*Email, error) {
	ctx, span := tracer.Start(ctx, "read email")
	defer span.End()
	span.SetAttributes(attribute.String("request.message_id", messageID))

	var email Email
	if err := c.do(ctx, "read", http.MethodGet, "/emails/"+url.PathEscape(messageID), nil, &email); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &email, nil
}

// ReadAttachment returns the provider-extracted text of one attachment.
func (c *Client) ReadAttachment(ctx context.Context, messageID, attachmentID string) (string, error) {
	ctx, span := tracer.Start(ctx, "read attachment")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.message_id", messageID),
		attribute.String("request.attachment_id", attachmentID),
	)

	var result struct {
		Filename string `json:"filename"`
		Text     string `json:"text"`
	}
	path := "/emails/" + url.PathEscape(messageID) + "/attachments/" + url.PathEscape(attachmentID) + "/text"
	if err := c.do(ctx, "read attachment", http.MethodGet, path, nil, &result); err != nil {
		span.RecordError(err)
		return "", err
	}
	return result.Text, nil
}

// Send sends a new message and returns its provider ID.
func (c *Client) Send(ctx context.Context, to, subject, body string) (string, error) {
	ctx, span := tracer.Start(ctx, "send email")
	defer span.End()

	request := map[string]string{
		"to":      to,
		"subject": subject,
		"body":    body,
	}
	var result struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, "send", http.MethodPost, "/emails", request, &result); err != nil {
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.String("response.message_id", result.ID))
	return result.ID, nil
}

// Reply replies to an existing message in its thread.
func (c *Client) Reply(ctx context.Context, messageID, body string) (string, error) {
	ctx, span := tracer.Start(ctx, "reply to email")
	defer span.End()
	span.SetAttributes(attribute.String("request.message_id", messageID))

	request := map[string]string{"body": body}
	var result struct {
		ID string `json:"id"`
	}
	path := "/emails/" + url.PathEscape(messageID) + "/reply"
	if err := c.do(ctx, "reply", http.MethodPost, path, request, &result); err != nil {
		span.RecordError(err)
		return "", err
	}
	return result.ID, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, request, response any) error {
	var body io.Reader
	if request != nil {
		requestBytes, err := json.Marshal(request)
		if err != nil {
			return &Error{Op: op, Err: fmt.Errorf("error marshalling JSON: %w", err)}
		}
		body = bytes.NewBuffer(requestBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Op: op, Err: fmt.Errorf("error creating HTTP request: %w", err)}
	}
	if request != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Op: op, Err: fmt.Errorf("error sending request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		message := "request failed"
		if errorBody, err := io.ReadAll(resp.Body); err == nil && len(errorBody) > 0 {
			message = strings.TrimSpace(string(errorBody))
		}
		return &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", message)}
	}

	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return &Error{Op: op, Err: fmt.Errorf("error unmarshalling JSON: %w", err)}
	}
	return nil
}
