package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/ikkim/shopauth-backend/config"
	"github.com/ikkim/shopauth-backend/pkg/logger"
)

var ErrInvalidHeader = errors.New("invalid mail header")

// Sender delivers a single HTML email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// LogSender writes emails to the log instead of sending them. Used in development.
type LogSender struct {
	from string
}

func NewLogSender(from string) *LogSender {
	return &LogSender{from: from}
}

func (s *LogSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	logger.Info("Email sent (logged)", map[string]interface{}{
		"from":    s.from,
		"to":      to,
		"subject": subject,
		"body":    htmlBody,
	})
	return nil
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers mail through an authenticated SMTP relay.
type SMTPSender struct {
	addr     string
	host     string
	from     string
	auth     smtp.Auth
	sendMail sendMailFunc
}

func NewSMTPSender(cfg *config.SMTPConfig, from string) *SMTPSender {
	return &SMTPSender{
		addr:     cfg.Addr(),
		host:     cfg.Host,
		from:     from,
		auth:     smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host),
		sendMail: smtp.SendMail,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := buildMessage(s.from, to, subject, htmlBody)
	if err != nil {
		return err
	}

	if err := s.sendMail(s.addr, s.auth, s.from, []string{to}, msg); err != nil {
		logger.Error("Failed to send email", err, map[string]interface{}{
			"to":   to,
			"host": s.host,
		})
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}

	logger.Info("Email sent", map[string]interface{}{
		"to":      to,
		"subject": subject,
	})
	return nil
}

func buildMessage(from, to, subject, htmlBody string) ([]byte, error) {
	for _, h := range []string{from, to, subject} {
		if strings.ContainsAny(h, "\r\n") {
			return nil, ErrInvalidHeader
		}
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String()), nil
}

// New builds the sender selected by cfg.Provider. When archive is non-nil
// every delivered message is also archived.
func New(cfg *config.MailConfig, archive Archiver) (Sender, error) {
	var sender Sender
	switch cfg.Provider {
	case "log":
		sender = NewLogSender(cfg.From)
	case "smtp":
		if cfg.SMTP.Username == "" || cfg.SMTP.Password == "" {
			return nil, fmt.Errorf("mail provider is 'smtp' but SMTP credentials are not set")
		}
		sender = NewSMTPSender(&cfg.SMTP, cfg.From)
	default:
		return nil, fmt.Errorf("unknown mail provider: %s", cfg.Provider)
	}

	if archive != nil {
		sender = NewArchivingSender(sender, archive)
	}
	return sender, nil
}
