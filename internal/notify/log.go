package notify

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogSender records messages instead of sending them. It is used when mail
// credentials are absent.
type LogSender struct{}

func (LogSender) Send(_ context.Context, m Message) error {
	subject, _, err := Render(m)
	if err != nil {
		return Permanent(err)
	}
	log.Info().Str("to", m.To).Str("template", string(m.Template)).Str("subject", subject).
		Msg("email_skipped_not_configured")
	return nil
}
