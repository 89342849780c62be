package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sufikitchen/pkg/order"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := New()
	o := order.Order{
		ID:            "SUFI-1",
		Customer:      order.Customer{Name: "Ali", Phone: "0300", Address: "Lahore"},
		Lines:         []order.Line{{DishID: 1, Name: "Chicken Karahi", Price: decimal.NewFromInt(1250), Quantity: 2}},
		TotalPrice:    decimal.NewFromInt(2500),
		PaymentMethod: order.CashOnDelivery,
		CreatedAt:     time.Now(),
	}
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := o
	dup.Customer.Name = "Someone else"
	if err := repo.Create(ctx, dup); err != order.ErrDuplicate {
		t.Fatalf("expected ErrDuplicate on reused id, got %v", err)
	}
	got, err := repo.Get(ctx, "SUFI-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Customer.Name != "Ali" || len(got.Lines) != 1 {
		t.Fatalf("unexpected order: %+v", got)
	}
	o.PaymentMethod = order.MobileWallet
	if err := repo.Update(ctx, o); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 || list[0].PaymentMethod != order.MobileWallet {
		t.Fatalf("list: %v %+v", err, list)
	}
	if err := repo.Delete(ctx, "SUFI-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, "SUFI-1"); err != order.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Update(ctx, o); err != order.ErrNotFound {
		t.Fatalf("expected ErrNotFound on update of missing order, got %v", err)
	}
}

func TestListIsOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	repo := New()
	now := time.Now()
	repo.Create(ctx, order.Order{ID: "b", CreatedAt: now.Add(time.Second)})
	repo.Create(ctx, order.Order{ID: "a", CreatedAt: now})

	list, _ := repo.List(ctx)
	if len(list) != 2 || list[0].ID != "a" || list[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", list)
	}
}
