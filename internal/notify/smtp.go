package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"github.com/wneessen/go-mail"

	"github.com/ariefcatur/go-storefront-orders/internal/config"
)

// SMTPSender delivers rendered mail through an SMTP relay behind a circuit breaker.
type SMTPSender struct {
	client *mail.Client
	from   string
	cb     *gobreaker.CircuitBreaker[struct{}]
}

func NewSMTPSender(cfg config.EmailConfig) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Password),
		mail.WithTimeout(20 * time.Second),
	}
	if cfg.Secure {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	c, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPSender{
		client: c,
		from:   cfg.From,
		cb: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        "smtp",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 5 },
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("breaker_state")
			},
		}),
	}, nil
}

func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	subject, body, err := Render(m)
	if err != nil {
		return Permanent(err)
	}
	msg := mail.NewMsg()
	if err := msg.FromFormat(Brand, s.from); err != nil {
		return Permanent(fmt.Errorf("from address: %w", err))
	}
	if err := msg.To(m.To); err != nil {
		return Permanent(fmt.Errorf("recipient %q: %w", m.To, err))
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	_, err = s.cb.Execute(func() (struct{}, error) {
		return struct{}{}, s.client.DialAndSendWithContext(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	log.Info().Str("to", m.To).Str("template", string(m.Template)).Msg("email_sent")
	return nil
}
