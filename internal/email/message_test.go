package email

import (
	"strings"
	"testing"
)

func TestMessage_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{
			name: "valid",
			msg:  Message{From: "a@example.com", To: []string{"b@example.com"}, Subject: "Test", Body: "Hello"},
		},
		{
			name:    "missing sender",
			msg:     Message{To: []string{"b@example.com"}},
			wantErr: true,
		},
		{
			name:    "no recipients",
			msg:     Message{From: "a@example.com"},
			wantErr: true,
		},
		{
			name:    "blank recipient",
			msg:     Message{From: "a@example.com", To: []string{"  "}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(): got error %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessage_Bytes_RoundTrip(t *testing.T) {
	t.Parallel()

	msg := &Message{
		From:    "a@example.com",
		To:      []string{"b@example.com", "c@example.com"},
		Subject: "Test",
		Body:    "Hello",
	}

	parsed, err := Parse(msg.Bytes())
	if err != nil {
		t.Fatalf("Parse(): unexpected error: %v", err)
	}

	if parsed.From != msg.From {
		t.Errorf("From: got %q, want %q", parsed.From, msg.From)
	}
	if len(parsed.To) != 2 || parsed.To[0] != "b@example.com" || parsed.To[1] != "c@example.com" {
		t.Errorf("To: got %v, want %v", parsed.To, msg.To)
	}
	if parsed.Subject != msg.Subject {
		t.Errorf("Subject: got %q, want %q", parsed.Subject, msg.Subject)
	}
	if parsed.Body != msg.Body {
		t.Errorf("Body: got %q, want %q", parsed.Body, msg.Body)
	}
}

func TestMessage_Bytes_CRLF(t *testing.T) {
	t.Parallel()

	msg := &Message{From: "a@example.com", To: []string{"b@example.com"}, Subject: "Test", Body: "Hello"}
	wire := string(msg.Bytes())

	if strings.Contains(strings.ReplaceAll(wire, "\r\n", ""), "\n") {
		t.Errorf("wire format contains bare LF line endings:\n%q", wire)
	}
	if !strings.HasSuffix(wire, "\r\n") {
		t.Errorf("wire format should end with CRLF, got %q", wire[len(wire)-2:])
	}
}

func TestParse_AddressListFallback(t *testing.T) {
	t.Parallel()

	raw := "From: a@example.com\r\nTo: not<<valid, b@example.com\r\nSubject: x\r\n\r\nbody\r\n"
	parsed, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse(): unexpected error: %v", err)
	}
	if len(parsed.To) != 2 {
		t.Errorf("To: got %v, want 2 entries from comma fallback", parsed.To)
	}
}

func TestMessage_Render(t *testing.T) {
	t.Parallel()

	msg := &Message{From: "a@example.com", To: []string{"b@example.com"}, Subject: "Test", Body: "Hello"}
	out := msg.Render()

	for _, want := range []string{"From: a@example.com", "To: b@example.com", "Subject: Test", "Hello"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}
}
