// Package submit implements one-shot SMTP mail submission over a secured
// channel, either implicit TLS (port 465 semantics) or a STARTTLS upgrade.
//
// A Client can only be obtained through DialTLS or DialStartTLS, both of
// which return an already-secured connection. If the STARTTLS upgrade is
// rejected or its handshake fails, DialStartTLS closes the connection and
// returns an error; credentials are never sent over plaintext.
package submit

import (
	"crypto/tls"
	"fmt"
	"net"
	"strconv"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/shineum/mailkit-lite/internal/email"
)

// Config holds the connection parameters for a submission client.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// TLSConfig overrides the default TLS configuration. Used by tests
	// to trust a self-signed server certificate.
	TLSConfig *tls.Config
}

func (c Config) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) tlsConfig() *tls.Config {
	if c.TLSConfig != nil {
		return c.TLSConfig
	}
	return &tls.Config{
		ServerName: c.Host,
		MinVersion: tls.VersionTLS12,
	}
}

// checkCredentials rejects incomplete credentials before any connection
// is opened.
func (c Config) checkCredentials() error {
	if c.Username == "" {
		return fmt.Errorf("username is required for %s", c.addr())
	}
	if c.Password == "" {
		return fmt.Errorf("password is required for %s", c.addr())
	}
	return nil
}

// Client is an SMTP submission client bound to a secured connection.
type Client struct {
	c   *smtp.Client
	cfg Config
}

// DialTLS connects to the server with TLS negotiated before any protocol
// command is exchanged.
func DialTLS(cfg Config) (*Client, error) {
	if err := cfg.checkCredentials(); err != nil {
		return nil, err
	}
	c, err := smtp.DialTLS(cfg.addr(), cfg.tlsConfig())
	if err != nil {
		return nil, stageErr(StageConnect, fmt.Errorf("dial %s: %w", cfg.addr(), err))
	}
	return &Client{c: c, cfg: cfg}, nil
}

// DialStartTLS connects to the server in plaintext and upgrades the
// connection with STARTTLS. If the upgrade is rejected or the handshake
// fails, the connection is closed and an error is returned; there is no
// plaintext fallback.
func DialStartTLS(cfg Config) (*Client, error) {
	if err := cfg.checkCredentials(); err != nil {
		return nil, err
	}
	conn, err := net.Dial("tcp", cfg.addr())
	if err != nil {
		return nil, stageErr(StageConnect, fmt.Errorf("dial %s: %w", cfg.addr(), err))
	}

	c, err := smtp.NewClientStartTLS(conn, cfg.tlsConfig())
	if err != nil {
		return nil, stageErr(StageStartTLS, fmt.Errorf("upgrade to TLS on %s: %w", cfg.addr(), err))
	}

	return &Client{c: c, cfg: cfg}, nil
}

// Authenticate performs SASL PLAIN authentication with the configured
// username and password. The channel is already secured at this point.
func (cl *Client) Authenticate() error {
	auth := sasl.NewPlainClient("", cl.cfg.Username, cl.cfg.Password)
	if err := cl.c.Auth(auth); err != nil {
		return stageErr(StageAuth, fmt.Errorf("authenticate %q: %w", cl.cfg.Username, err))
	}
	return nil
}

// Send transmits one message in a single MAIL/RCPT/DATA transaction.
// It either fully succeeds or fails; there is no partial-send state.
func (cl *Client) Send(msg *email.Message) error {
	if err := msg.Validate(); err != nil {
		return stageErr(StageSend, err)
	}

	if err := cl.c.Mail(msg.From, nil); err != nil {
		return stageErr(StageSend, fmt.Errorf("sender %q rejected: %w", msg.From, err))
	}
	for _, rcpt := range msg.To {
		if err := cl.c.Rcpt(rcpt, nil); err != nil {
			return stageErr(StageSend, fmt.Errorf("recipient %q rejected: %w", rcpt, err))
		}
	}

	w, err := cl.c.Data()
	if err != nil {
		return stageErr(StageSend, fmt.Errorf("start data transfer: %w", err))
	}
	if _, err := w.Write(msg.Bytes()); err != nil {
		w.Close()
		return stageErr(StageSend, fmt.Errorf("write message data: %w", err))
	}
	if err := w.Close(); err != nil {
		return stageErr(StageSend, fmt.Errorf("message rejected: %w", err))
	}

	return nil
}

// Close releases the connection, attempting a clean QUIT first. It is
// safe to call on every exit path, including after a failed send.
func (cl *Client) Close() error {
	if err := cl.c.Quit(); err != nil {
		return cl.c.Close()
	}
	return nil
}
