package email

import (
	"fmt"
	"strings"
)

// Render formats the message in a human-readable layout for dry-run output.
func (m *Message) Render() string {
	var b strings.Builder

	b.WriteString("========================================\n")
	b.WriteString(fmt.Sprintf("From: %s\n", m.From))
	b.WriteString(fmt.Sprintf("To: %s\n", strings.Join(m.To, ", ")))
	b.WriteString(fmt.Sprintf("Subject: %s\n", m.Subject))
	b.WriteString("Body:\n")
	b.WriteString(m.Body + "\n")
	b.WriteString("========================================\n")

	return b.String()
}
