package service

import (
	"context"
	"fmt"

	"github.com/voxmail-ai/voxmail-core/core/llms"
	"github.com/voxmail-ai/voxmail-core/core/mail"
)

// MailProvider is the slice of the mail client the tools need.
type MailProvider interface {
	Search(ctx context.Context, query string, limit int) ([]mail.Summary, error)
	Read(ctx context.Context, messageID string) (*mail.Email, error)
	ReadAttachment(ctx context.Context, messageID, attachmentID string) (string, error)
	Send(ctx context.Context, to, subject, body string) (string, error)
	Reply(ctx context.Context, messageID, body string) (string, error)
}

type searchEmailsParams struct {
	Query string `json:"query" jsonschema_description:"Search query, e.g. 'from:alice unread'"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum number of results, default 10"`
}

type readEmailParams struct {
	MessageID string `json:"message_id" jsonschema_description:"ID of the email to read"`
}

type readAttachmentParams struct {
	MessageID    string `json:"message_id" jsonschema_description:"ID of the email the attachment belongs to"`
	AttachmentID string `json:"attachment_id" jsonschema_description:"ID of the attachment to read"`
}

type sendEmailParams struct {
	To      string `json:"to" jsonschema_description:"Recipient address"`
	Subject string `json:"subject" jsonschema_description:"Subject line"`
	Body    string `json:"body" jsonschema_description:"Plain-text body"`
}

type replyToEmailParams struct {
	MessageID string `json:"message_id" jsonschema_description:"ID of the email being replied to"`
	Body      string `json:"body" jsonschema_description:"Plain-text reply body"`
}

// mailTools exposes the mail operations to the model. Provider failures come
// back as readable text rather than errors, so the model can relay them in
// its spoken answer.
func mailTools(ctx context.Context, provider MailProvider) []llms.Tool {
	return []llms.Tool{
		llms.NewTool("search_emails", "Search the user's mailbox and list matching emails.",
			func(params searchEmailsParams) (string, error) {
				limit := params.Limit
				if limit <= 0 {
					limit = 10
				}
				summaries, err := provider.Search(ctx, params.Query, limit)
				if err != nil {
					return toolFailure("searching emails", err), nil
				}
				return mail.FormatSummaries(summaries), nil
			}),
		llms.NewTool("read_email", "Read the full contents of one email.",
			func(params readEmailParams) (string, error) {
				email, err := provider.Read(ctx, params.MessageID)
				if err != nil {
					return toolFailure("reading the email", err), nil
				}
				return mail.FormatEmail(email), nil
			}),
		llms.NewTool("read_attachment", "Read the extracted text of one email attachment.",
			func(params readAttachmentParams) (string, error) {
				text, err := provider.ReadAttachment(ctx, params.MessageID, params.AttachmentID)
				if err != nil {
					return toolFailure("reading the attachment", err), nil
				}
				return text, nil
			}),
		llms.NewTool("send_email", "Send a new email on the user's behalf.",
			func(params sendEmailParams) (string, error) {
				id, err := provider.Send(ctx, params.To, params.Subject, params.Body)
				if err != nil {
					return toolFailure("sending the email", err), nil
				}
				return fmt.Sprintf("Email sent to %s with ID %s.", params.To, id), nil
			}),
		llms.NewTool("reply_to_email", "Reply to an existing email in its thread.",
			func(params replyToEmailParams) (string, error) {
				id, err := provider.Reply(ctx, params.MessageID, params.Body)
				if err != nil {
					return toolFailure("sending the reply", err), nil
				}
				return fmt.Sprintf("Reply sent with ID %s.", id), nil
			}),
	}
}

func toolFailure(action string, err error) string {
	return fmt.Sprintf("The mail provider failed while %s: %v", action, err)
}
