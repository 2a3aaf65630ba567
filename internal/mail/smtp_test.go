package mail_test

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/hugh/go-storefront/internal/mail"
	"github.com/hugh/go-storefront/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen starts a one-connection SMTP peer. serve gets the accepted conn and
// runs until it returns or the test ends.
func listen(t *testing.T, serve func(net.Conn)) *config.MailConfig {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		serve(conn)
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return &config.MailConfig{Host: "127.0.0.1", Port: addr.Port}
}

// fakeSMTP answers just enough of the protocol to accept one message and
// hands the DATA section to received.
func fakeSMTP(received chan<- string) func(net.Conn) {
	return func(conn net.Conn) {
		r := bufio.NewReader(conn)
		reply := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }

		reply("220 localhost ESMTP")
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				reply("250 localhost")
			case strings.HasPrefix(cmd, "MAIL FROM"), strings.HasPrefix(cmd, "RCPT TO"):
				reply("250 OK")
			case cmd == "DATA":
				reply("354 go ahead")
				var body strings.Builder
				for {
					l, err := r.ReadString('\n')
					if err != nil {
						return
					}
					if l == ".\r\n" {
						break
					}
					body.WriteString(l)
				}
				received <- body.String()
				reply("250 queued")
			case cmd == "QUIT":
				reply("221 bye")
				return
			default:
				reply("502 not implemented")
			}
		}
	}
}

func TestSMTPTransport_Deliver(t *testing.T) {
	env := mail.Envelope{
		From:    "shop@example.com",
		To:      "john@example.com",
		Subject: "Activate your account",
		HTML:    "<p>hello</p>",
	}

	t.Run("delivers message", func(t *testing.T) {
		received := make(chan string, 1)
		cfg := listen(t, fakeSMTP(received))

		err := mail.NewSMTPTransport(cfg).Deliver(context.Background(), env)
		require.NoError(t, err)

		select {
		case data := <-received:
			assert.Contains(t, data, "Subject: Activate your account")
			assert.Contains(t, data, "hello")
		case <-time.After(time.Second):
			t.Fatal("server never received DATA")
		}
	})

	t.Run("gives up when context expires on a silent server", func(t *testing.T) {
		done := make(chan struct{})
		t.Cleanup(func() { close(done) })
		cfg := listen(t, func(net.Conn) { <-done })

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		start := time.Now()
		err := mail.NewSMTPTransport(cfg).Deliver(ctx, env)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("cancelled context sends nothing", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		cfg := &config.MailConfig{Host: "127.0.0.1", Port: 1}
		err := mail.NewSMTPTransport(cfg).Deliver(ctx, env)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
