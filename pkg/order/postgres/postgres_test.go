package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"sufikitchen/pkg/order"
)

func TestRepository(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		t.Fatalf("schema: %v", err)
	}
	repo := New(db)
	o := order.Order{
		ID:            "SUFI-test-" + time.Now().Format("150405.000000"),
		Customer:      order.Customer{Name: "Ali", Phone: "0300", Address: "Lahore"},
		Lines:         []order.Line{{DishID: 2, Name: "Beef Biryani", Price: decimal.NewFromInt(1500), Quantity: 1}},
		TotalPrice:    decimal.NewFromInt(1500),
		PaymentMethod: order.CashOnDelivery,
		CreatedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("create: %v", err)
	}
	defer repo.Delete(ctx, o.ID)
	if err := repo.Create(ctx, o); err != order.ErrDuplicate {
		t.Fatalf("expected ErrDuplicate on second create, got %v", err)
	}

	got, err := repo.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.TotalPrice.Equal(o.TotalPrice) || len(got.Lines) != 1 || got.Lines[0].Name != "Beef Biryani" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if err := repo.Delete(ctx, o.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, o.ID); err != order.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
