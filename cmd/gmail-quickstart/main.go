// Command gmail-quickstart authorizes against the Gmail API (reusing a
// cached token when possible, prompting for consent once otherwise) and
// lists the IDs of the most recent messages in the mailbox.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"

	"github.com/shineum/mailkit-lite/internal/config"
	"github.com/shineum/mailkit-lite/internal/gmailbox"
	"github.com/shineum/mailkit-lite/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level)

	credentials, err := os.ReadFile(cfg.Gmail.CredentialsFile)
	if err != nil {
		slog.Error("failed to read OAuth client credentials",
			"path", cfg.Gmail.CredentialsFile,
			"error", err,
		)
		os.Exit(1)
	}

	oauthCfg, err := google.ConfigFromJSON(credentials, gmail.GmailReadonlyScope)
	if err != nil {
		slog.Error("failed to parse OAuth client credentials", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	authorizer := gmailbox.NewAuthorizer(
		oauthCfg,
		gmailbox.NewFileTokenStore(cfg.Gmail.TokenFile),
		gmailbox.PromptConsent(os.Stdin, os.Stdout),
	)

	client, err := authorizer.Client(ctx)
	if err != nil {
		slog.Error("authorization failed", "token_file", cfg.Gmail.TokenFile, "error", err)
		os.Exit(1)
	}

	svc, err := gmailbox.NewService(ctx, client)
	if err != nil {
		slog.Error("failed to create Gmail client", "error", err)
		os.Exit(1)
	}

	ids, err := gmailbox.ListMessageIDs(ctx, svc, cfg.Gmail.MaxResults)
	if err != nil {
		slog.Error("failed to list messages", "error", err)
		os.Exit(1)
	}

	if len(ids) == 0 {
		fmt.Println("No messages found.")
		return
	}

	fmt.Println("Messages:")
	for _, id := range ids {
		fmt.Printf("- %s\n", id)
	}
}

// loadConfig loads configuration from the specified path (YAML + env
// override) or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
