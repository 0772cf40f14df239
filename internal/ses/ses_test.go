package ses

import (
	"context"
	"errors"
	"testing"

	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/shineum/mailkit-lite/internal/email"
)

// mockClient implements SendEmailAPI and records the last input.
type mockClient struct {
	lastInput *sesv2.SendEmailInput
	calls     int
	err       error
}

func (m *mockClient) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	m.calls++
	m.lastInput = params
	if m.err != nil {
		return nil, m.err
	}
	return &sesv2.SendEmailOutput{}, nil
}

func testMessage() *email.Message {
	return &email.Message{
		From:    "a@example.com",
		To:      []string{"b@example.com", "c@example.com"},
		Subject: "Test",
		Body:    "Hello",
	}
}

func TestSend_BuildsSimpleInput(t *testing.T) {
	t.Parallel()

	mock := &mockClient{}
	sender := NewWithClient(mock)

	if err := sender.Send(context.Background(), testMessage()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mock.calls != 1 {
		t.Fatalf("SendEmail calls: got %d, want 1", mock.calls)
	}

	input := mock.lastInput
	if input.FromEmailAddress == nil || *input.FromEmailAddress != "a@example.com" {
		t.Errorf("FromEmailAddress: got %v, want a@example.com", input.FromEmailAddress)
	}
	if len(input.Destination.ToAddresses) != 2 {
		t.Errorf("ToAddresses: got %v, want 2 entries", input.Destination.ToAddresses)
	}
	if got := *input.Content.Simple.Subject.Data; got != "Test" {
		t.Errorf("Subject: got %q, want %q", got, "Test")
	}
	if got := *input.Content.Simple.Body.Text.Data; got != "Hello" {
		t.Errorf("Body: got %q, want %q", got, "Hello")
	}
}

func TestSend_ErrorPropagatedWithoutRetry(t *testing.T) {
	t.Parallel()

	mock := &mockClient{err: errors.New("MessageRejected: address not verified")}
	sender := NewWithClient(mock)

	err := sender.Send(context.Background(), testMessage())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, mock.err) {
		t.Errorf("error should wrap the service error, got %v", err)
	}
	if mock.calls != 1 {
		t.Errorf("SendEmail calls: got %d, want exactly 1 (no retry)", mock.calls)
	}
}

func TestSend_InvalidMessageNeverCallsAPI(t *testing.T) {
	t.Parallel()

	mock := &mockClient{}
	sender := NewWithClient(mock)

	err := sender.Send(context.Background(), &email.Message{From: "a@example.com"})
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if mock.calls != 0 {
		t.Errorf("SendEmail calls: got %d, want 0 for invalid message", mock.calls)
	}
}
