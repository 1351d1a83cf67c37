package channels

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"strconv"
	"time"

	"tamil_society/internal/common"

	"gopkg.in/gomail.v2"
)

// SMTPConfig holds the SMTP server settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // Address, optionally "Name <address>"
	FromName string
}

// SMTPTransport sends through an SMTP relay. gomail builds the MIME message;
// the session runs on net/smtp over a connection bound to the caller's context.
type SMTPTransport struct {
	cfg    SMTPConfig
	dialer net.Dialer
}

// NewSMTPTransport builds an SMTP transport
func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	return &SMTPTransport{cfg: cfg}
}

// Name identifies the transport in logs
func (t *SMTPTransport) Name() string { return "smtp" }

// Send runs one SMTP session. The connection never outlives ctx: its deadline
// follows ctx and cancellation forces pending reads and writes to fail.
func (t *SMTPTransport) Send(ctx context.Context, env Envelope) error {
	if err := t.send(ctx, env); err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			// connection deadlines only ever come from ctx
			<-ctx.Done()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(err, ctxErr)
		}
		return common.WithDetails(common.ErrMailTransport, fmt.Errorf("smtp send to %s: %w", env.To, err))
	}
	return nil
}

func (t *SMTPTransport) send(ctx context.Context, env Envelope) error {
	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))
	raw, err := t.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer raw.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := raw.SetDeadline(deadline); err != nil {
			return err
		}
	}
	stop := context.AfterFunc(ctx, func() {
		_ = raw.SetDeadline(time.Now())
	})
	defer stop()

	conn := raw
	tlsConfig := &tls.Config{ServerName: t.cfg.Host}
	if t.cfg.Port == 465 {
		conn = tls.Client(raw, tlsConfig)
	}

	c, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		return err
	}
	defer c.Close()

	if t.cfg.Port != 465 {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsConfig); err != nil {
				return err
			}
		}
	}
	if t.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)); err != nil {
			return err
		}
	}

	if err := c.Mail(fromAddress(t.cfg.From)); err != nil {
		return err
	}
	if err := c.Rcpt(env.To); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := t.buildMessage(env).WriteTo(w); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func (t *SMTPTransport) buildMessage(env Envelope) *gomail.Message {
	msg := gomail.NewMessage(gomail.SetCharset("UTF-8"))
	if t.cfg.FromName != "" {
		msg.SetAddressHeader("From", fromAddress(t.cfg.From), t.cfg.FromName)
	} else {
		msg.SetHeader("From", t.cfg.From)
	}
	if env.ToName != "" {
		msg.SetAddressHeader("To", env.To, env.ToName)
	} else {
		msg.SetHeader("To", env.To)
	}
	msg.SetHeader("Subject", env.Subject)
	msg.SetHeader("X-Notification-Template", env.Template)

	msg.SetBody("text/plain", env.Text)
	if env.HTML != "" {
		msg.AddAlternative("text/html", env.HTML)
	}
	return msg
}
