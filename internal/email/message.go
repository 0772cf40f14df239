// Package email defines the message model shared by the sender commands
// and its wire-format assembly.
package email

import (
	"fmt"
	"strings"
)

// Message represents a single plain-text email message to be sent.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Validate checks that the message has a sender and at least one recipient.
func (m *Message) Validate() error {
	if m.From == "" {
		return fmt.Errorf("message has no sender address")
	}
	if len(m.To) == 0 {
		return fmt.Errorf("message has no recipient addresses")
	}
	for _, to := range m.To {
		if strings.TrimSpace(to) == "" {
			return fmt.Errorf("message has an empty recipient address")
		}
	}
	return nil
}

// Bytes assembles the message into RFC 5322 wire format with CRLF line
// endings, suitable for an SMTP DATA payload.
func (m *Message) Bytes() []byte {
	wire := strings.Join([]string{
		"From: " + m.From,
		"To: " + strings.Join(m.To, ", "),
		"Subject: " + m.Subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		m.Body,
	}, "\r\n")
	return []byte(wire + "\r\n")
}
