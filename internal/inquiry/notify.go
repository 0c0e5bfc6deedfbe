package inquiry

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/evcraddock/keyswap/internal/config"
)

// Recipient is who an inquiry is delivered to.
type Recipient struct {
	Name  string
	Email string
	// About names the listing or company in the subject line.
	About string
}

// Notifier delivers inquiries by email. In dev mode, or when SMTP is not
// configured, it logs the message instead.
type Notifier struct {
	smtp    config.SMTP
	devMode bool
	send    func(cfg config.SMTP, to []string, subject, body string) error
}

// NewNotifier creates a notifier.
func NewNotifier(cfg config.SMTP, devMode bool) *Notifier {
	return &Notifier{smtp: cfg, devMode: devMode, send: Send}
}

// Notify emails rcpt about in.
func (n *Notifier) Notify(rcpt Recipient, in *Inquiry) error {
	subject := fmt.Sprintf("New inquiry about %s", rcpt.About)
	body := FormatMessage(rcpt, in)

	if n.devMode || !n.smtp.Configured() || rcpt.Email == "" {
		slog.Info("inquiry notification (not sent)",
			"to", rcpt.Email,
			"subject", subject,
			"inquiry_id", in.ID,
			"body", body,
		)
		return nil
	}

	if err := n.send(n.smtp, []string{rcpt.Email}, subject, body); err != nil {
		return fmt.Errorf("notifying %s: %w", rcpt.Email, err)
	}
	slog.Info("inquiry notification sent", "to", rcpt.Email, "inquiry_id", in.ID)
	return nil
}

// FormatMessage builds the plain-text email body for an inquiry.
func FormatMessage(rcpt Recipient, in *Inquiry) string {
	var buf bytes.Buffer

	greeting := "Hi"
	if rcpt.Name != "" {
		greeting += " " + rcpt.Name
	}
	fmt.Fprintf(&buf, "%s,\n\n", greeting)
	fmt.Fprintf(&buf, "%s sent a message about %s:\n\n", in.SenderName, rcpt.About)

	for _, line := range strings.Split(in.Message, "\n") {
		fmt.Fprintf(&buf, "> %s\n", line)
	}

	fmt.Fprintf(&buf, "\nReply to: %s\n", in.SenderEmail)
	if in.Phone != "" {
		fmt.Fprintf(&buf, "Phone: %s\n", in.Phone)
	}
	fmt.Fprintf(&buf, "\nSent via Keyswap\n")

	return buf.String()
}

// Send sends an email via SMTP.
// Supports both port 465 (implicit TLS) and port 587 (STARTTLS).
func Send(cfg config.SMTP, to []string, subject, body string) error {
	if !cfg.Configured() {
		return fmt.Errorf("SMTP not configured")
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		cfg.From,
		strings.Join(to, ", "),
		subject,
		body,
	)

	addr := cfg.Host + ":" + cfg.Port

	if cfg.Port == "465" {
		return sendImplicitTLS(cfg, addr, to, msg)
	}
	return sendSTARTTLS(cfg, addr, to, msg)
}

// sendImplicitTLS connects over TLS directly (port 465/SMTPS).
func sendImplicitTLS(cfg config.SMTP, addr string, to []string, msg string) (err error) {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: cfg.Host})
	if err != nil {
		return fmt.Errorf("TLS dial: %w", err)
	}

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer func() {
		if quitErr := c.Quit(); quitErr != nil && err == nil {
			err = fmt.Errorf("quit: %w", quitErr)
		}
	}()

	if cfg.User != "" {
		if err := c.Auth(smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return nil
}

// sendSTARTTLS connects plain then upgrades to TLS (port 587).
func sendSTARTTLS(cfg config.SMTP, addr string, to []string, msg string) error {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, cfg.From, to, []byte(msg)); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
