package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	netmail "net/mail"
	"net/smtp"

	"github.com/hugh/go-storefront/pkg/config"
	"github.com/jordan-wright/email"
)

// SMTPTransport delivers envelopes over SMTP with PLAIN auth. Auth is skipped
// when no username is configured, which suits local catchers like MailHog.
type SMTPTransport struct {
	host     string
	username string
	password string
	addr     string
}

func NewSMTPTransport(cfg *config.MailConfig) *SMTPTransport {
	return &SMTPTransport{
		host:     cfg.Host,
		username: cfg.Username,
		password: cfg.Password,
		addr:     cfg.Addr(),
	}
}

// Deliver sends env and gives up as soon as ctx is done; the connection is
// closed underneath any exchange still in flight.
func (t *SMTPTransport) Deliver(ctx context.Context, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = env.From
	e.To = []string{env.To}
	e.Subject = env.Subject
	e.HTML = []byte(env.HTML)

	msg, err := e.Bytes()
	if err != nil {
		return fmt.Errorf("building message: %w", err)
	}
	from, err := netmail.ParseAddress(env.From)
	if err != nil {
		return fmt.Errorf("parsing sender: %w", err)
	}
	to, err := netmail.ParseAddress(env.To)
	if err != nil {
		return fmt.Errorf("parsing recipient: %w", err)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", t.addr, err)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	err = t.send(conn, from.Address, to.Address, msg)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// send runs the same exchange as smtp.SendMail over an established conn.
func (t *SMTPTransport) send(conn net.Conn, from, to string, msg []byte) error {
	c, err := smtp.NewClient(conn, t.host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: t.host}); err != nil {
			return err
		}
	}
	if t.username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", t.username, t.password, t.host)); err != nil {
				return err
			}
		}
	}

	if err := c.Mail(from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
