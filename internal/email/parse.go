package email

import (
	"bytes"
	"fmt"
	"io"
	"net/mail"
	"strings"
)

// Parse decodes a raw RFC 5322 message back into a Message. Only the
// headers and the plain-text body are recovered; the test server uses
// this to inspect captured DATA payloads.
func Parse(raw []byte) (*Message, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read message body: %w", err)
	}

	return &Message{
		From:    msg.Header.Get("From"),
		To:      parseAddressList(msg.Header.Get("To")),
		Subject: msg.Header.Get("Subject"),
		Body:    strings.TrimRight(string(body), "\r\n"),
	}, nil
}

// parseAddressList splits a comma-separated address list into individual addresses.
func parseAddressList(raw string) []string {
	if raw == "" {
		return nil
	}

	addresses, err := mail.ParseAddressList(raw)
	if err != nil {
		// Fall back to a simple comma split if RFC 5322 parsing fails
		parts := strings.Split(raw, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		result = append(result, addr.Address)
	}
	return result
}
