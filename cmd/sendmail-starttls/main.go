// Command sendmail-starttls sends one message over an SMTP connection
// that starts in plaintext and is upgraded with STARTTLS. If the upgrade
// is rejected or the handshake fails the command aborts; credentials are
// never sent over an unencrypted channel.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/shineum/mailkit-lite/internal/config"
	"github.com/shineum/mailkit-lite/internal/email"
	"github.com/shineum/mailkit-lite/internal/logging"
	"github.com/shineum/mailkit-lite/internal/submit"
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

	// The credential must be present before any connection is opened.
	if err := cfg.AuthConfigured(); err != nil {
		slog.Error("missing credential", "server", cfg.SMTP.Host, "error", err)
		os.Exit(1)
	}

	if err := send(cfg, msg); err != nil {
		slog.Error("send failed", "server", cfg.SMTP.Host, "port", cfg.SMTP.SubmissionPort, "error", err)
		os.Exit(1)
	}

	slog.Info("message sent",
		"server", cfg.SMTP.Host,
		"port", cfg.SMTP.SubmissionPort,
		"recipients", len(msg.To),
	)
	fmt.Println("Message sent.")
}

// send performs the full connect, upgrade, authenticate, submit
// sequence. The connection is closed on every return path.
func send(cfg *config.Config, msg *email.Message) error {
	client, err := submit.DialStartTLS(submit.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.SubmissionPort,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Authenticate(); err != nil {
		return err
	}
	return client.Send(msg)
}

// loadConfig loads configuration from the specified path (YAML + env
// override) or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
