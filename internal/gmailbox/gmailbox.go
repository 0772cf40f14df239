// Package gmailbox implements the Gmail API quickstart: authorize via a
// cached OAuth2 token or a one-time consent flow, then list recent
// message IDs from the mailbox.
package gmailbox

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// NewService constructs a Gmail API client over the authorized HTTP client.
func NewService(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*gmail.Service, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail client: %w", err)
	}
	return svc, nil
}

// ListMessageIDs returns the IDs of the most recent messages in the
// authenticated mailbox, newest first as the API returns them. An empty
// mailbox yields an empty slice.
func ListMessageIDs(ctx context.Context, svc *gmail.Service, maxResults int64) ([]string, error) {
	res, err := svc.Users.Messages.List("me").MaxResults(maxResults).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	ids := make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}
