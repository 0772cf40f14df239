// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the mail commands.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the complete configuration shared by the commands. Each
// command reads only the sections it needs.
type Config struct {
	SMTP    SMTPConfig    `yaml:"smtp"`
	Mail    MailConfig    `yaml:"mail"`
	Keyring KeyringConfig `yaml:"keyring"`
	Gmail   GmailConfig   `yaml:"gmail"`
	SES     SESConfig     `yaml:"ses"`
	Logging LoggingConfig `yaml:"logging"`
}

// SMTPConfig holds submission server settings.
type SMTPConfig struct {
	Host string `yaml:"host"`

	// Port is the implicit-TLS submission port (465 semantics).
	Port int `yaml:"port"`

	// SubmissionPort is the plaintext-then-STARTTLS submission port.
	SubmissionPort int `yaml:"submission_port"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MailConfig holds the message fields.
type MailConfig struct {
	From    string `yaml:"from"`
	To      string `yaml:"to"`
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// KeyringConfig names the credential-store entry holding the SMTP password.
type KeyringConfig struct {
	Service string `yaml:"service"`
}

// GmailConfig holds the Gmail API quickstart settings.
type GmailConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
	MaxResults      int64  `yaml:"max_results"`
}

// SESConfig holds AWS SES settings.
type SESConfig struct {
	Region string `yaml:"region"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// Recipients splits the comma-separated recipient list into addresses.
func (c *Config) Recipients() []string {
	if c.Mail.To == "" {
		return nil
	}
	parts := strings.Split(c.Mail.To, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// SendConfigured verifies the fields every SMTP sender needs.
func (c *Config) SendConfigured() error {
	if c.SMTP.Host == "" {
		return fmt.Errorf("SMTP_HOST is required")
	}
	if c.Mail.From == "" {
		return fmt.Errorf("MAIL_FROM is required")
	}
	if len(c.Recipients()) == 0 {
		return fmt.Errorf("MAIL_TO is required")
	}
	return nil
}

// AuthConfigured verifies the credential fields password-authenticated
// senders need. Checked before any connection is opened.
func (c *Config) AuthConfigured() error {
	if c.SMTP.Username == "" {
		return fmt.Errorf("SMTP_USERNAME is required")
	}
	if c.SMTP.Password == "" {
		return fmt.Errorf("SMTP_PASSWORD is required")
	}
	return nil
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.SMTP.Port = 465
	c.SMTP.SubmissionPort = 587
	c.Gmail.CredentialsFile = "credentials.json"
	c.Gmail.TokenFile = "token.json"
	c.Gmail.MaxResults = 10
	c.Keyring.Service = "mailkit-lite"
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.SMTP.Port = port
		}
	}
	if v := os.Getenv("SMTP_SUBMISSION_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.SMTP.SubmissionPort = port
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}

	if v := os.Getenv("MAIL_FROM"); v != "" {
		c.Mail.From = v
	}
	if v := os.Getenv("MAIL_TO"); v != "" {
		c.Mail.To = v
	}
	if v := os.Getenv("MAIL_SUBJECT"); v != "" {
		c.Mail.Subject = v
	}
	if v := os.Getenv("MAIL_BODY"); v != "" {
		c.Mail.Body = v
	}

	if v := os.Getenv("KEYRING_SERVICE"); v != "" {
		c.Keyring.Service = v
	}

	if v := os.Getenv("GMAIL_CREDENTIALS_FILE"); v != "" {
		c.Gmail.CredentialsFile = v
	}
	if v := os.Getenv("GMAIL_TOKEN_FILE"); v != "" {
		c.Gmail.TokenFile = v
	}
	if v := os.Getenv("GMAIL_MAX_RESULTS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.Gmail.MaxResults = n
		}
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		c.SES.Region = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}
