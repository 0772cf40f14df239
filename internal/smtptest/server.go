// Package smtptest provides an in-process SMTP server test double that
// records the exact command sequence and DATA payloads it receives. It
// serves either implicit TLS or plaintext with an optional STARTTLS
// upgrade, and can be configured to reject STARTTLS or authentication so
// client failure paths can be exercised.
package smtptest

import (
	"bufio"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
)

// Config controls the behavior of a test server.
type Config struct {
	// Username and Password enable AUTH. If both are empty, AUTH is
	// neither advertised nor required.
	Username string
	Password string

	// ImplicitTLS wraps every accepted connection in TLS before the
	// greeting is written (port 465 semantics).
	ImplicitTLS bool

	// StartTLS advertises and accepts the STARTTLS upgrade.
	StartTLS bool

	// RejectStartTLS advertises STARTTLS but answers the upgrade
	// command with a failure, to exercise the client's abort path.
	RejectStartTLS bool
}

// Command is one recorded protocol command.
type Command struct {
	// Verb is the uppercased command verb (EHLO, STARTTLS, AUTH, ...).
	Verb string

	// TLS reports whether the connection was TLS-wrapped when the
	// command arrived.
	TLS bool
}

// Delivery is one accepted message transaction.
type Delivery struct {
	From string
	To   []string
	Data string
}

// Server is a recording SMTP server listening on a loopback port.
type Server struct {
	cfg      Config
	ln       net.Listener
	cert     tls.Certificate
	certPool *x509.CertPool

	mu         sync.Mutex
	commands   []Command
	deliveries []Delivery
}

// New starts a test server on 127.0.0.1:0 and begins serving.
func New(cfg Config) (*Server, error) {
	cert, certPEM, err := generateCert()
	if err != nil {
		return nil, err
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(certPEM) {
		return nil, fmt.Errorf("failed to add server certificate to pool")
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		ln:       ln,
		cert:     cert,
		certPool: pool,
	}

	go s.serve()
	return s, nil
}

// Host returns the server host (always 127.0.0.1).
func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.ln.Addr().String())
	return host
}

// Port returns the ephemeral port the server is listening on.
func (s *Server) Port() int {
	_, portStr, _ := net.SplitHostPort(s.ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return port
}

// ClientTLSConfig returns a TLS configuration that trusts the server's
// self-signed certificate.
func (s *Server) ClientTLSConfig() *tls.Config {
	return &tls.Config{
		ServerName: "localhost",
		RootCAs:    s.certPool,
		MinVersion: tls.VersionTLS12,
	}
}

// Close stops the listener. In-flight sessions end when their
// connections drop.
func (s *Server) Close() {
	s.ln.Close()
}

// Commands returns the recorded command sequence across all connections.
func (s *Server) Commands() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Command, len(s.commands))
	copy(out, s.commands)
	return out
}

// PlaintextVerbs returns the verbs of all commands received before the
// connection was TLS-wrapped.
func (s *Server) PlaintextVerbs() []string {
	var verbs []string
	for _, cmd := range s.Commands() {
		if !cmd.TLS {
			verbs = append(verbs, cmd.Verb)
		}
	}
	return verbs
}

// Deliveries returns the accepted message transactions in order.
func (s *Server) Deliveries() []Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Delivery, len(s.deliveries))
	copy(out, s.deliveries)
	return out
}

func (s *Server) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *Server) record(verb string, tlsActive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, Command{Verb: verb, TLS: tlsActive})
}

func (s *Server) deliver(d Delivery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries = append(s.deliveries, d)
}

// session tracks one connection's protocol state.
type session struct {
	srv       *Server
	conn      net.Conn
	reader    *bufio.Reader
	writer    *bufio.Writer
	tlsActive bool
	authed    bool

	mailFrom string
	rcptTo   []string
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	if s.cfg.ImplicitTLS {
		tlsConn := tls.Server(conn, &tls.Config{Certificates: []tls.Certificate{s.cert}})
		if err := tlsConn.Handshake(); err != nil {
			return
		}
		conn = tlsConn
	}

	sess := &session{
		srv:       s,
		conn:      conn,
		reader:    bufio.NewReader(conn),
		writer:    bufio.NewWriter(conn),
		tlsActive: s.cfg.ImplicitTLS,
	}
	sess.run()
}

func (s *session) run() {
	s.writeLine("220 localhost ESMTP smtptest")

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}

		cmd, arg := parseCommand(line)
		s.srv.record(cmd, s.tlsActive)

		if done := s.handleCommand(cmd, arg); done {
			return
		}
	}
}

// handleCommand processes one command and returns true when the session
// should end.
func (s *session) handleCommand(cmd, arg string) bool {
	switch cmd {
	case "EHLO", "HELO":
		s.handleEHLO(cmd, arg)
	case "STARTTLS":
		return s.handleSTARTTLS()
	case "AUTH":
		s.handleAUTH(arg)
	case "MAIL":
		s.handleMAIL(arg)
	case "RCPT":
		s.handleRCPT(arg)
	case "DATA":
		s.handleDATA()
	case "RSET":
		s.resetTransaction()
		s.writeLine("250 OK")
	case "NOOP":
		s.writeLine("250 OK")
	case "QUIT":
		s.writeLine("221 Bye")
		return true
	default:
		s.writeLine("500 Unrecognized command")
	}
	return false
}

func (s *session) handleEHLO(cmd, arg string) {
	if cmd == "HELO" {
		s.writeLine("250 localhost Hello %s", arg)
		return
	}

	s.writeLine("250-localhost Hello %s", arg)
	if s.startTLSAdvertised() && !s.tlsActive {
		s.writeLine("250-STARTTLS")
	}
	if s.authRequired() {
		s.writeLine("250-AUTH PLAIN")
	}
	s.writeLine("250 OK")
}

func (s *session) handleSTARTTLS() bool {
	if !s.startTLSAdvertised() || s.tlsActive {
		s.writeLine("454 TLS not available")
		return false
	}
	if s.srv.cfg.RejectStartTLS {
		s.writeLine("454 TLS temporarily unavailable")
		return false
	}

	s.writeLine("220 Ready to start TLS")

	tlsConn := tls.Server(s.conn, &tls.Config{Certificates: []tls.Certificate{s.srv.cert}})
	if err := tlsConn.Handshake(); err != nil {
		return true
	}

	s.conn = tlsConn
	s.reader = bufio.NewReader(tlsConn)
	s.writer = bufio.NewWriter(tlsConn)
	s.tlsActive = true
	return false
}

func (s *session) handleAUTH(arg string) {
	if !s.authRequired() {
		s.writeLine("503 AUTH not available")
		return
	}

	parts := strings.SplitN(arg, " ", 2)
	if strings.ToUpper(parts[0]) != "PLAIN" {
		s.writeLine("504 Unrecognized authentication type")
		return
	}

	var encoded string
	if len(parts) > 1 && parts[1] != "" {
		encoded = parts[1]
	} else {
		s.writeLine("334")
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return
		}
		encoded = strings.TrimRight(line, "\r\n")
	}

	if err := s.verifyPlain(encoded); err != nil {
		s.writeLine("535 Authentication failed")
		return
	}

	s.authed = true
	s.writeLine("235 Authentication successful")
}

// verifyPlain decodes and verifies an AUTH PLAIN response of the form
// base64(authzid\0authcid\0password).
func (s *session) verifyPlain(encoded string) error {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("invalid base64 encoding")
	}

	parts := strings.SplitN(string(decoded), "\x00", 3)
	if len(parts) != 3 {
		return fmt.Errorf("invalid AUTH PLAIN format")
	}

	if parts[1] != s.srv.cfg.Username || parts[2] != s.srv.cfg.Password {
		return fmt.Errorf("authentication failed")
	}
	return nil
}

func (s *session) handleMAIL(arg string) {
	if s.authRequired() && !s.authed {
		s.writeLine("530 Authentication required")
		return
	}

	upper := strings.ToUpper(arg)
	if !strings.HasPrefix(upper, "FROM:") {
		s.writeLine("501 Syntax: MAIL FROM:<address>")
		return
	}

	addr := extractAddress(arg[5:])
	if addr == "" {
		s.writeLine("501 Syntax: MAIL FROM:<address>")
		return
	}

	s.mailFrom = addr
	s.rcptTo = nil
	s.writeLine("250 OK")
}

func (s *session) handleRCPT(arg string) {
	if s.mailFrom == "" {
		s.writeLine("503 Send MAIL FROM first")
		return
	}

	upper := strings.ToUpper(arg)
	if !strings.HasPrefix(upper, "TO:") {
		s.writeLine("501 Syntax: RCPT TO:<address>")
		return
	}

	addr := extractAddress(arg[3:])
	if addr == "" {
		s.writeLine("501 Syntax: RCPT TO:<address>")
		return
	}

	s.rcptTo = append(s.rcptTo, addr)
	s.writeLine("250 OK")
}

func (s *session) handleDATA() {
	if len(s.rcptTo) == 0 {
		s.writeLine("503 Send RCPT TO first")
		return
	}

	s.writeLine("354 Start mail input; end with <CRLF>.<CRLF>")

	var data strings.Builder
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return
		}

		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "." {
			break
		}

		// Dot-stuffing: lines starting with ".." have the leading dot removed
		if strings.HasPrefix(trimmed, "..") {
			line = line[1:]
		}

		data.WriteString(line)
	}

	s.srv.deliver(Delivery{
		From: s.mailFrom,
		To:   s.rcptTo,
		Data: data.String(),
	})

	s.resetTransaction()
	s.writeLine("250 OK message queued")
}

func (s *session) resetTransaction() {
	s.mailFrom = ""
	s.rcptTo = nil
}

func (s *session) authRequired() bool {
	return s.srv.cfg.Username != "" && s.srv.cfg.Password != ""
}

func (s *session) startTLSAdvertised() bool {
	return s.srv.cfg.StartTLS || s.srv.cfg.RejectStartTLS
}

func (s *session) writeLine(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	if _, err := s.writer.WriteString(line + "\r\n"); err != nil {
		return
	}
	s.writer.Flush()
}

// parseCommand splits an SMTP command line into the command verb and its argument.
func parseCommand(line string) (string, string) {
	parts := strings.SplitN(line, " ", 2)
	cmd := strings.ToUpper(parts[0])
	arg := ""
	if len(parts) > 1 {
		arg = parts[1]
	}
	return cmd, arg
}

// extractAddress extracts an email address from an SMTP parameter,
// handling both angle-bracket and bare formats.
func extractAddress(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "<") {
		end := strings.Index(s, ">")
		if end < 0 {
			return ""
		}
		return s[1:end]
	}

	return s
}
