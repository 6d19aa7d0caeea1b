package mail

import (
	"context"

	"github.com/dmitrijs2005/eatsauth/internal/logging"
)

// LogSender writes verification codes to the log instead of sending them.
// Intended for local development.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log.With("module", "mail")}
}

func (s *LogSender) SendVerificationEmail(ctx context.Context, address, code string) error {
	s.log.Info(ctx, "verification email", "to", address, "code", code)
	return nil
}
