package smtptest

import (
	"bufio"
	"net"
	"strings"
	"testing"
)

func readLine(t *testing.T, reader *bufio.Reader) string {
	t.Helper()
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("failed to read line: %v", err)
	}
	return strings.TrimRight(line, "\r\n")
}

func sendCmd(t *testing.T, conn net.Conn, cmd string) {
	t.Helper()
	if _, err := conn.Write([]byte(cmd + "\r\n")); err != nil {
		t.Fatalf("failed to write command: %v", err)
	}
}

func TestServer_PlainSession(t *testing.T) {
	t.Parallel()

	srv, err := New(Config{})
	if err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	defer srv.Close()

	conn, err := net.Dial("tcp", srv.ln.Addr().String())
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)
	if greeting := readLine(t, reader); !strings.HasPrefix(greeting, "220 ") {
		t.Fatalf("greeting: got %q, want prefix '220 '", greeting)
	}

	sendCmd(t, conn, "EHLO client.test")
	var lines []string
	for {
		line := readLine(t, reader)
		lines = append(lines, line)
		if strings.HasPrefix(line, "250 ") {
			break
		}
	}
	for _, line := range lines {
		if strings.Contains(line, "STARTTLS") || strings.Contains(line, "AUTH") {
			t.Errorf("unconfigured server should not advertise %q", line)
		}
	}

	sendCmd(t, conn, "MAIL FROM:<a@example.com>")
	if resp := readLine(t, reader); !strings.HasPrefix(resp, "250") {
		t.Fatalf("MAIL: got %q", resp)
	}
	sendCmd(t, conn, "RCPT TO:<b@example.com>")
	if resp := readLine(t, reader); !strings.HasPrefix(resp, "250") {
		t.Fatalf("RCPT: got %q", resp)
	}
	sendCmd(t, conn, "DATA")
	if resp := readLine(t, reader); !strings.HasPrefix(resp, "354") {
		t.Fatalf("DATA: got %q", resp)
	}
	sendCmd(t, conn, "Subject: Test")
	sendCmd(t, conn, "")
	sendCmd(t, conn, "Hello")
	sendCmd(t, conn, ".")
	if resp := readLine(t, reader); !strings.HasPrefix(resp, "250") {
		t.Fatalf("end of data: got %q", resp)
	}
	sendCmd(t, conn, "QUIT")
	if resp := readLine(t, reader); !strings.HasPrefix(resp, "221") {
		t.Fatalf("QUIT: got %q", resp)
	}

	deliveries := srv.Deliveries()
	if len(deliveries) != 1 {
		t.Fatalf("deliveries: got %d, want 1", len(deliveries))
	}
	if deliveries[0].From != "a@example.com" {
		t.Errorf("from: got %q, want %q", deliveries[0].From, "a@example.com")
	}
	if !strings.Contains(deliveries[0].Data, "Hello") {
		t.Errorf("data should contain body, got %q", deliveries[0].Data)
	}

	verbs := srv.PlaintextVerbs()
	want := []string{"EHLO", "MAIL", "RCPT", "DATA", "QUIT"}
	if len(verbs) != len(want) {
		t.Fatalf("recorded verbs: got %v, want %v", verbs, want)
	}
	for i := range want {
		if verbs[i] != want[i] {
			t.Errorf("verb[%d]: got %q, want %q", i, verbs[i], want[i])
		}
	}
}

func TestServer_AuthRequiredBeforeMail(t *testing.T) {
	t.Parallel()

	srv, err := New(Config{Username: "u", Password: "p"})
	if err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	defer srv.Close()

	conn, err := net.Dial("tcp", srv.ln.Addr().String())
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)
	readLine(t, reader) // greeting

	sendCmd(t, conn, "EHLO client.test")
	for {
		if line := readLine(t, reader); strings.HasPrefix(line, "250 ") {
			break
		}
	}

	sendCmd(t, conn, "MAIL FROM:<a@example.com>")
	if resp := readLine(t, reader); !strings.HasPrefix(resp, "530") {
		t.Errorf("MAIL without auth: got %q, want 530 rejection", resp)
	}
}
