// Package mailer sends transactional email to dealers.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/vaidashi/pool-dealer-portal/internal/config"
	"github.com/vaidashi/pool-dealer-portal/internal/metrics"
	"github.com/vaidashi/pool-dealer-portal/pkg/circuitbreaker"
	apperrors "github.com/vaidashi/pool-dealer-portal/pkg/errors"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
	"github.com/vaidashi/pool-dealer-portal/pkg/retry"
)

// Mailer delivers one HTML email
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// New returns an SMTP mailer guarded by a circuit breaker, or a LogMailer when no SMTP
// host is configured
func New(cfg config.SMTPConfig, logger logger.Logger) Mailer {
	if cfg.Host == "" {
		logger.Warn("SMTP_HOST not set, emails will only be logged")
		return NewLogMailer(logger)
	}
	return NewGuarded(NewSMTPMailer(cfg), logger)
}

// SMTPMailer sends through an SMTP relay with PLAIN auth
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer creates an SMTPMailer
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from: cfg.From,
		auth: auth,
		send: smtp.SendMail,
	}
}

// Send delivers the message. net/smtp has no context support, so ctx is only checked
// before dialing.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.send(m.addr, m.auth, m.from, []string{to}, BuildMessage(m.from, to, subject, html)); err != nil {
		return fmt.Errorf("%w: smtp send: %v", apperrors.ErrTemporaryFailure, err)
	}
	return nil
}

// BuildMessage renders RFC 5322 headers and an HTML body
func BuildMessage(from, to, subject, html string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + strings.NewReplacer("\r", "", "\n", "").Replace(subject) + "\r\n")
	b.WriteString("Date: " + time.Now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return []byte(b.String())
}

// LogMailer writes emails to the log instead of sending them
type LogMailer struct {
	logger logger.Logger
}

// NewLogMailer creates a LogMailer
func NewLogMailer(logger logger.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the email
func (m *LogMailer) Send(_ context.Context, to, subject, html string) error {
	m.logger.Info("Email (not sent)", "to", to, "subject", subject, "bytes", len(html))
	metrics.EmailsTotal.WithLabelValues("logged").Inc()
	return nil
}

// Guarded retries transient send failures and stops calling the relay while it keeps
// failing
type Guarded struct {
	next    Mailer
	breaker *circuitbreaker.CircuitBreaker
	retry   retry.Config
	logger  logger.Logger
}

// NewGuarded wraps next with retries and a circuit breaker
func NewGuarded(next Mailer, logger logger.Logger) *Guarded {
	return &Guarded{
		next: next,
		breaker: circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
			HalfOpenMaxCalls: 1,
		}),
		retry: retry.Config{
			MaxAttempts: 3,
			Backoff:     retry.NewDefaultExponentialBackoff(),
			Logger:      logger,
			Operation:   "send email",
			Retryable: func(err error) bool {
				return err != circuitbreaker.ErrOpen && apperrors.IsRetryable(err)
			},
		},
		logger: logger,
	}
}

// Breaker exposes the circuit breaker for health reporting
func (g *Guarded) Breaker() *circuitbreaker.CircuitBreaker {
	return g.breaker
}

// Send delivers through the wrapped mailer
func (g *Guarded) Send(ctx context.Context, to, subject, html string) error {
	err := retry.Do(ctx, g.retry, func(ctx context.Context) error {
		return g.breaker.Execute(func() error {
			return g.next.Send(ctx, to, subject, html)
		})
	})
	if err != nil {
		metrics.EmailsTotal.WithLabelValues("failed").Inc()
		g.logger.Error("Failed to send email", "error", err, "to", to, "breaker", g.breaker.State().String())
		return err
	}

	metrics.EmailsTotal.WithLabelValues("sent").Inc()
	return nil
}
