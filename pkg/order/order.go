package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sufikitchen/pkg/cart"
)

// PaymentMethod is how the customer pays for an order.
type PaymentMethod string

const (
	// CashOnDelivery is paid to the rider.
	CashOnDelivery PaymentMethod = "COD"
	// MobileWallet is an Easypaisa transfer; the customer sends the receipt
	// over WhatsApp.
	MobileWallet PaymentMethod = "Easypaisa"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == CashOnDelivery || m == MobileWallet
}

// Customer holds delivery contact details.
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Line is one ordered dish.
type Line struct {
	DishID   int             `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image,omitempty"`
}

// Subtotal is price × quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order represents a placed customer order.
type Order struct {
	ID            string          `json:"id"`
	Customer      Customer        `json:"customer"`
	Lines         []Line          `json:"items"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Request is what the checkout sends for submission.
type Request struct {
	Customer      Customer        `json:"customer"`
	Items         []cart.Item     `json:"items"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
}

// Confirmation is the result of a successful submission.
type Confirmation struct {
	Success             bool   `json:"success"`
	OrderID             string `json:"orderId"`
	ConfirmationMessage string `json:"confirmationMessage"`
}

// Repository defines behavior for persisting orders.
type Repository interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	List(ctx context.Context) ([]Order, error)
	Update(ctx context.Context, o Order) error
	Delete(ctx context.Context, id string) error
}

var (
	// ErrNotFound indicates the requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrDuplicate is returned by Repository.Create when the id is taken.
	ErrDuplicate = errors.New("order id already exists")
	// ErrInvalid wraps every request validation failure.
	ErrInvalid = errors.New("invalid order")
	// ErrEmptyCart is returned by Checkout when there is nothing to order.
	ErrEmptyCart = errors.New("cart is empty")
)

// Validate checks the request and that its total matches its items.
func (r Request) Validate() error {
	var problems []string
	if strings.TrimSpace(r.Customer.Name) == "" {
		problems = append(problems, "customer name is required")
	}
	if strings.TrimSpace(r.Customer.Phone) == "" {
		problems = append(problems, "customer phone is required")
	}
	if strings.TrimSpace(r.Customer.Address) == "" {
		problems = append(problems, "customer address is required")
	}
	if !r.PaymentMethod.Valid() {
		problems = append(problems, fmt.Sprintf("unsupported payment method %q", r.PaymentMethod))
	}
	if len(r.Items) == 0 {
		problems = append(problems, "at least one item is required")
	}
	for _, it := range r.Items {
		if it.Quantity < 1 || it.Quantity > cart.MaxQuantity {
			problems = append(problems, fmt.Sprintf("item %d has quantity %d", it.ID, it.Quantity))
		}
	}
	if total, _ := cart.Recompute(r.Items); !total.Equal(r.TotalPrice) {
		problems = append(problems, fmt.Sprintf("total %s does not match items (%s)", r.TotalPrice, total))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

func linesFrom(items []cart.Item) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{
			DishID:   it.ID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
			Image:    it.Image,
		})
	}
	return lines
}
