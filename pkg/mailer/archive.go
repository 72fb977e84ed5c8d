package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/shopauth-backend/pkg/logger"
)

// Archiver stores a copy of an outbound message under key.
type Archiver interface {
	Put(ctx context.Context, key, contentType string, body []byte, metadata map[string]string) error
}

// ArchivingSender copies every delivered message to an Archiver. Archive
// failures are logged and never fail the send.
type ArchivingSender struct {
	next    Sender
	archive Archiver
	now     func() time.Time
}

func NewArchivingSender(next Sender, archive Archiver) *ArchivingSender {
	return &ArchivingSender{next: next, archive: archive, now: time.Now}
}

func (s *ArchivingSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := s.next.Send(ctx, to, subject, htmlBody); err != nil {
		return err
	}

	key := ArchiveKey(s.now())
	metadata := map[string]string{
		"to":      to,
		"subject": subject,
	}
	if err := s.archive.Put(ctx, key, "text/html; charset=UTF-8", []byte(htmlBody), metadata); err != nil {
		logger.Warn("Failed to archive email", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	return nil
}

// ArchiveKey returns a unique object key grouped by UTC day.
func ArchiveKey(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("mail/%04d/%02d/%02d/%s.html", t.Year(), t.Month(), t.Day(), uuid.New().String())
}
