package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"sufikitchen/pkg/cart"
	"sufikitchen/pkg/otel"
)

// idAttempts bounds how many fresh ids Submit tries when one is taken.
const idAttempts = 3

// Notifier tells the restaurant about a new order.
type Notifier interface {
	NotifyOrder(ctx context.Context, o Order) error
}

// Recorder counts order outcomes.
type Recorder interface {
	OrderSubmitted(paymentMethod, outcome string)
}

// Submitter accepts orders. Service implements it.
type Submitter interface {
	Submit(ctx context.Context, req Request) (Confirmation, error)
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the time source used for order ids and timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithRecorder registers an outcome recorder.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

// Service validates, stores and announces orders.
type Service struct {
	repo     Repository
	notifier Notifier
	recorder Recorder
	log      *zap.Logger
	now      func() time.Time
}

// NewService returns an order service.
func NewService(repo Repository, notifier Notifier, log *zap.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		repo:     repo,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit places an order. The order is stored before the restaurant is
// notified; a failed notification is logged and does not fail the order.
func (s *Service) Submit(ctx context.Context, req Request) (Confirmation, error) {
	ctx, span := otel.AddSpan(ctx, "order.Submit", attribute.String("payment_method", string(req.PaymentMethod)))
	defer span.End()

	if err := req.Validate(); err != nil {
		s.record(req.PaymentMethod, "invalid")
		return Confirmation{}, err
	}

	now := s.now()
	o := Order{
		Customer:      req.Customer,
		Lines:         linesFrom(req.Items),
		TotalPrice:    req.TotalPrice,
		PaymentMethod: req.PaymentMethod,
		CreatedAt:     now,
	}

	var err error
	for i := 0; i < idAttempts; i++ {
		o.ID = newOrderID(now)
		if err = s.repo.Create(ctx, o); !errors.Is(err, ErrDuplicate) {
			break
		}
		s.log.Warn("order id taken, retrying", zap.String("order_id", o.ID))
	}
	log := s.log.With(zap.String("order_id", o.ID))
	if err != nil {
		s.record(req.PaymentMethod, "error")
		log.Error("store order", zap.Error(err))
		return Confirmation{}, fmt.Errorf("store order: %w", err)
	}

	if err := s.notifier.NotifyOrder(ctx, o); err != nil {
		log.Warn("order notification failed, order still accepted",
			zap.Error(err),
			zap.String("customer", o.Customer.Name),
			zap.String("phone", o.Customer.Phone),
			zap.String("address", o.Customer.Address),
			zap.String("total", o.TotalPrice.StringFixed(2)),
			zap.Int("lines", len(o.Lines)))
	}

	s.record(req.PaymentMethod, "success")
	log.Info("order placed", zap.String("total", o.TotalPrice.StringFixed(2)))
	return Confirmation{
		Success:             true,
		OrderID:             o.ID,
		ConfirmationMessage: confirmationMessage(o),
	}, nil
}

// newOrderID returns SUFI-<unix millis>-<8 hex chars>.
func newOrderID(now time.Time) string {
	return fmt.Sprintf("SUFI-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

func (s *Service) record(method PaymentMethod, outcome string) {
	if s.recorder != nil {
		s.recorder.OrderSubmitted(string(method), outcome)
	}
}

func confirmationMessage(o Order) string {
	if o.PaymentMethod == MobileWallet {
		return fmt.Sprintf("Your order #%s is confirmed! Please remember to send the receipt via WhatsApp.", o.ID)
	}
	return fmt.Sprintf("Your order #%s has been placed successfully! It will be delivered soon.", o.ID)
}

// Checkout submits the current contents of store and, once the order is
// confirmed, removes the ordered quantities from it. Items added while the
// order was being placed stay in the cart. On failure the cart is left
// untouched so the customer can retry.
func Checkout(ctx context.Context, sub Submitter, store *cart.Store, customer Customer, method PaymentMethod) (Confirmation, error) {
	snap := store.Snapshot()
	if len(snap.Items) == 0 {
		return Confirmation{}, ErrEmptyCart
	}
	conf, err := sub.Submit(ctx, Request{
		Customer:      customer,
		Items:         snap.Items,
		TotalPrice:    snap.TotalPrice,
		PaymentMethod: method,
	})
	if err != nil {
		return Confirmation{}, err
	}
	if conf.Success {
		store.DeductItems(snap.Items)
	}
	return conf, nil
}
