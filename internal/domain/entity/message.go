package entity

import (
	"time"
)

// MailMessage represents one message fetched from the watched mailbox.
type MailMessage struct {
	// MessageID identifies the message across reconnects. It is the
	// RFC 5322 Message-ID when the server provides one, otherwise
	// "uidvalidity:uid".
	MessageID string
	UID       uint32

	From       string
	Subject    string
	ReceivedAt time.Time

	// Body is the decoded text content, preferring text/plain and
	// falling back to text/html.
	Body string
}
