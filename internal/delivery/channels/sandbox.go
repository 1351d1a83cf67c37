package channels

import (
	"context"
	"fmt"
	"io"
	netmail "net/mail"
	"path/filepath"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// SandboxTransport writes every message as an RFC 5322 .eml file instead of sending it.
// Used in development and tests when no SMTP relay is configured.
type SandboxTransport struct {
	fs   afero.Fs
	dir  string
	from *mail.Address
	now  func() time.Time
}

// NewSandboxTransport writes into dir on fs
func NewSandboxTransport(fs afero.Fs, dir string, from string, fromName string) *SandboxTransport {
	return &SandboxTransport{
		fs:   fs,
		dir:  dir,
		from: &mail.Address{Name: fromName, Address: fromAddress(from)},
		now:  time.Now,
	}
}

// Name identifies the transport in logs
func (t *SandboxTransport) Name() string { return "sandbox" }

// Send writes env to <dir>/<unix-ms>-<uuid>.eml
func (t *SandboxTransport) Send(ctx context.Context, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.fs.MkdirAll(t.dir, 0o755); err != nil {
		return fmt.Errorf("sandbox dir: %w", err)
	}

	now := t.now()
	name := filepath.Join(t.dir, fmt.Sprintf("%d-%s.eml", now.UnixMilli(), uuid.NewString()))
	f, err := t.fs.Create(name)
	if err != nil {
		return fmt.Errorf("sandbox file: %w", err)
	}
	defer f.Close()

	return writeMessage(f, t.from, env, now)
}

func writeMessage(w io.Writer, from *mail.Address, env Envelope, now time.Time) error {
	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{{Name: env.ToName, Address: env.To}})
	h.SetSubject(env.Subject)
	h.Set("X-Notification-Template", env.Template)
	if err := h.GenerateMessageID(); err != nil {
		return err
	}

	mw, err := mail.CreateWriter(w, h)
	if err != nil {
		return err
	}

	iw, err := mw.CreateInline()
	if err != nil {
		return err
	}
	if err := writePart(iw, "text/plain", env.Text); err != nil {
		return err
	}
	if env.HTML != "" {
		if err := writePart(iw, "text/html", env.HTML); err != nil {
			return err
		}
	}
	if err := iw.Close(); err != nil {
		return err
	}
	return mw.Close()
}

func writePart(iw *mail.InlineWriter, contentType string, body string) error {
	var ph mail.InlineHeader
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	pw, err := iw.CreatePart(ph)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(pw, body); err != nil {
		return err
	}
	return pw.Close()
}

// fromAddress extracts the bare address from "Name <addr>"
func fromAddress(from string) string {
	if addr, err := netmail.ParseAddress(from); err == nil {
		return addr.Address
	}
	return from
}
