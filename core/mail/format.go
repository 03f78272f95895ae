package mail

import (
	"fmt"
	"strings"
)

// FormatSummaries renders search results as text suitable for a spoken
// summary by the language model.
func FormatSummaries(summaries []Summary) string {
	if len(summaries) == 0 {
		return "No emails found."
	}

	lines := make([]string, 0, len(summaries)+1)
	lines = append(lines, fmt.Sprintf("Found %d emails:", len(summaries)))
	for i, summary := range summaries {
		status := "read"
		if summary.Unread {
			status = "unread"
		}
		lines = append(lines, fmt.Sprintf(
			"%d. [%s] From %s: %q (%s, %s)",
			i+1, summary.ID, summary.From, summary.Subject, summary.Date, status,
		))
	}
	return strings.Join(lines, "\n")
}

// FormatEmail renders one full message, listing attachments by ID so the
// model can request their contents.
func FormatEmail(email *Email) string {
	lines := []string{
		"From: " + email.From,
		"To: " + strings.Join(email.To, ", "),
		"Subject: " + email.Subject,
		"Date: " + email.Date,
	}
	if len(email.Attachments) > 0 {
		attachments := make([]string, 0, len(email.Attachments))
		for _, attachment := range email.Attachments {
			attachments = append(attachments, fmt.Sprintf("%s [%s]", attachment.Filename, attachment.ID))
		}
		lines = append(lines, "Attachments: "+strings.Join(attachments, ", "))
	}
	lines = append(lines, "", email.Body)
	return strings.Join(lines, "\n")
}
