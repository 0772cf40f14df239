// Command sendmail-ses sends one message through the AWS SES v2 API
// using the default AWS credential chain.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/shineum/mailkit-lite/internal/config"
	"github.com/shineum/mailkit-lite/internal/email"
	"github.com/shineum/mailkit-lite/internal/logging"
	"github.com/shineum/mailkit-lite/internal/ses"
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

	if cfg.Mail.From == "" || len(cfg.Recipients()) == 0 {
		slog.Error("incomplete configuration: MAIL_FROM and MAIL_TO are required")
		os.Exit(1)
	}
	if cfg.SES.Region == "" {
		slog.Error("incomplete configuration: SES_REGION is required")
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

	ctx := context.Background()

	sender, err := ses.New(ctx, ses.Config{Region: cfg.SES.Region})
	if err != nil {
		slog.Error("failed to create SES client", "region", cfg.SES.Region, "error", err)
		os.Exit(1)
	}

	if err := sender.Send(ctx, msg); err != nil {
		slog.Error("send failed", "region", cfg.SES.Region, "error", err)
		os.Exit(1)
	}

	slog.Info("message sent",
		"region", cfg.SES.Region,
		"recipients", len(msg.To),
	)
	fmt.Println("Message sent.")
}

// loadConfig loads configuration from the specified path (YAML + env
// override) or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
