// Package ses implements one-shot email sending via the AWS SES v2 API.
package ses

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/shineum/mailkit-lite/internal/email"
)

// Config holds the settings for creating a Sender.
type Config struct {
	Region string

	// AccessKeyID and SecretAccessKey are optional static credentials.
	// When empty, the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
}

// SendEmailAPI is the interface for the SES v2 SendEmail operation.
// Used for testing with mock implementations.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Sender sends messages via the AWS SES v2 API.
type Sender struct {
	client SendEmailAPI
}

// New creates a Sender using the default AWS credential chain, or static
// credentials when configured.
func New(ctx context.Context, cfg Config) (*Sender, error) {
	var opts []func(*awsconfig.LoadOptions) error

	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Sender{client: sesv2.NewFromConfig(awsCfg)}, nil
}

// NewWithClient creates a Sender with a custom client, used for testing.
func NewWithClient(client SendEmailAPI) *Sender {
	return &Sender{client: client}
}

// Send delivers one message through SES. The call blocks until SES
// accepts or rejects the message; failures are returned as-is with the
// service's error detail.
func (s *Sender) Send(ctx context.Context, msg *email.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination: &types.Destination{
			ToAddresses: msg.To,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(msg.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    aws.String(msg.Body),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("SES send failed: %w", err)
	}

	return nil
}
