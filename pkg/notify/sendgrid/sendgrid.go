// Package sendgrid delivers order notifications through the SendGrid v3 API.
package sendgrid

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/sendgrid/rest"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"sufikitchen/pkg/notify"
	"sufikitchen/pkg/order"
)

const senderName = "Sufi's Kitchen"

// Sender sends a prepared message. *sendgrid.Client satisfies it.
type Sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Config holds addressing and retry settings.
type Config struct {
	APIKey     string
	From       string
	To         string
	CC         []string
	MaxRetries int
	// Backoff bounds; zero values select 200ms and 3s.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// Notifier implements order.Notifier.
type Notifier struct {
	cfg      Config
	sender   Sender
	pipeline failsafe.Executor[*rest.Response]
	log      *zap.Logger
}

// New returns a Notifier using the SendGrid HTTP client.
func New(cfg Config, log *zap.Logger) (*Notifier, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("sendgrid api key is empty")
	}
	return NewWithSender(cfg, sg.NewSendClient(cfg.APIKey), log)
}

// NewWithSender returns a Notifier that delivers through s.
func NewWithSender(cfg Config, s Sender, log *zap.Logger) (*Notifier, error) {
	if cfg.From == "" {
		return nil, errors.New("from address is empty")
	}
	if cfg.To == "" {
		return nil, errors.New("to address is empty")
	}
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = 3 * time.Second
		if cfg.MaxBackoff < cfg.MinBackoff {
			cfg.MaxBackoff = cfg.MinBackoff
		}
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	retryPolicy := retrypolicy.NewBuilder[*rest.Response]().
		HandleIf(func(resp *rest.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode >= 500 || resp.StatusCode == 429
		}).
		WithBackoff(cfg.MinBackoff, cfg.MaxBackoff).
		WithMaxRetries(cfg.MaxRetries).
		ReturnLastFailure().
		Build()

	return &Notifier{
		cfg:      cfg,
		sender:   s,
		pipeline: failsafe.With[*rest.Response](retryPolicy),
		log:      log,
	}, nil
}

// NotifyOrder sends the owner notification for o.
func (n *Notifier) NotifyOrder(ctx context.Context, o order.Order) error {
	body, err := notify.RenderOrderHTML(o)
	if err != nil {
		return err
	}
	msg := n.message(notify.Subject(o), body)

	attempts := 0
	resp, err := n.pipeline.WithContext(ctx).Get(func() (*rest.Response, error) {
		attempts++
		return n.sender.SendWithContext(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("sendgrid send error after %d attempt(s): %w", attempts, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", resp.StatusCode, resp.Body)
	}

	n.log.Info("order notification sent",
		zap.String("order_id", o.ID),
		zap.Int("status", resp.StatusCode),
		zap.Int("attempts", attempts))
	return nil
}

func (n *Notifier) message(subject, html string) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(senderName, n.cfg.From))
	m.Subject = subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", n.cfg.To))
	for _, cc := range n.cfg.CC {
		if cc != "" && cc != n.cfg.To {
			p.AddCCs(mail.NewEmail("", cc))
		}
	}
	m.AddPersonalizations(p)
	m.AddContent(mail.NewContent("text/html", html))
	return m
}
