// Command sendmail-keyring sends one message through an SMTP submission
// server, reading the account password from the OS credential store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/wneessen/go-mail"

	"github.com/shineum/mailkit-lite/internal/config"
	"github.com/shineum/mailkit-lite/internal/credstore"
	"github.com/shineum/mailkit-lite/internal/email"
	"github.com/shineum/mailkit-lite/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	dryRun := flag.Bool("dry-run", false, "print the message instead of sending it")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level)

	if err := cfg.SendConfigured(); err != nil {
		slog.Error("incomplete configuration", "error", err)
		os.Exit(1)
	}

	msg := &email.Message{
		From:    cfg.Mail.From,
		To:      cfg.Recipients(),
		Subject: cfg.Mail.Subject,
		Body:    cfg.Mail.Body,
	}

	if *dryRun {
		fmt.Print(msg.Render())
		return
	}

	username := cfg.SMTP.Username
	if username == "" {
		username = cfg.Mail.From
	}

	// The credential must be resolved before any connection is opened.
	password, err := lookupPassword(cfg, username)
	if err != nil {
		slog.Error("failed to obtain credential",
			"service", cfg.Keyring.Service,
			"account", username,
			"error", err,
		)
		os.Exit(1)
	}

	if err := send(context.Background(), cfg, username, password, msg); err != nil {
		slog.Error("send failed", "server", cfg.SMTP.Host, "error", err)
		os.Exit(1)
	}

	slog.Info("message sent",
		"server", cfg.SMTP.Host,
		"recipients", len(msg.To),
	)
	fmt.Println("Message sent.")
}

// lookupPassword resolves the SMTP password, preferring the environment
// override and falling back to the OS credential store.
func lookupPassword(cfg *config.Config, username string) (string, error) {
	if cfg.SMTP.Password != "" {
		return cfg.SMTP.Password, nil
	}

	password, err := credstore.NewKeyring().Get(cfg.Keyring.Service, username)
	if err != nil {
		if errors.Is(err, credstore.ErrNotFound) {
			return "", fmt.Errorf("no stored secret: %w", err)
		}
		return "", err
	}
	return password, nil
}

// send delivers the message via the go-mail client with mandatory TLS.
func send(ctx context.Context, cfg *config.Config, username, password string, msg *email.Message) error {
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	client, err := mail.NewClient(cfg.SMTP.Host,
		mail.WithPort(cfg.SMTP.SubmissionPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(username),
		mail.WithPassword(password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send: %w", err)
	}
	return nil
}

// loadConfig loads configuration from the specified path (YAML + env
// override) or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
