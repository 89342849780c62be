package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/lib/pq"

	"sufikitchen/pkg/order"
)

// Schema creates the orders table used by Repository.
const Schema = `CREATE TABLE IF NOT EXISTS orders (
	id               TEXT PRIMARY KEY,
	customer_name    TEXT NOT NULL,
	customer_phone   TEXT NOT NULL,
	customer_address TEXT NOT NULL,
	payment_method   TEXT NOT NULL,
	total_price      NUMERIC(12,2) NOT NULL,
	items            JSONB NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL
)`

const columns = "id,customer_name,customer_phone,customer_address,payment_method,total_price,items,created_at"

// Repository persists orders in PostgreSQL.
type Repository struct {
	db *sql.DB
}

// New creates a PostgreSQL repository.
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// uniqueViolation is the PostgreSQL error code for a duplicate key.
const uniqueViolation = "23505"

// Create inserts a new order. A taken id yields order.ErrDuplicate.
func (r *Repository) Create(ctx context.Context, o order.Order) error {
	items, err := json.Marshal(o.Lines)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO orders ("+columns+") VALUES ($1,$2,$3,$4,$5,$6,$7,$8)",
		o.ID, o.Customer.Name, o.Customer.Phone, o.Customer.Address,
		string(o.PaymentMethod), o.TotalPrice, string(items), o.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return order.ErrDuplicate
	}
	return err
}

// Get retrieves an order by ID.
func (r *Repository) Get(ctx context.Context, id string) (order.Order, error) {
	o, err := scan(r.db.QueryRowContext(ctx, "SELECT "+columns+" FROM orders WHERE id=$1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, order.ErrNotFound
	}
	return o, err
}

// List fetches all orders, oldest first.
func (r *Repository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+columns+" FROM orders ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []order.Order
	for rows.Next() {
		o, err := scan(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Update updates an existing order.
func (r *Repository) Update(ctx context.Context, o order.Order) error {
	items, err := json.Marshal(o.Lines)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET customer_name=$2, customer_phone=$3, customer_address=$4,
		 payment_method=$5, total_price=$6, items=$7 WHERE id=$1`,
		o.ID, o.Customer.Name, o.Customer.Phone, o.Customer.Address,
		string(o.PaymentMethod), o.TotalPrice, string(items))
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Delete removes an order by ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM orders WHERE id=$1", id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return order.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (order.Order, error) {
	var (
		o      order.Order
		method string
		items  []byte
	)
	err := row.Scan(&o.ID, &o.Customer.Name, &o.Customer.Phone, &o.Customer.Address,
		&method, &o.TotalPrice, &items, &o.CreatedAt)
	if err != nil {
		return order.Order{}, err
	}
	o.PaymentMethod = order.PaymentMethod(method)
	if err := json.Unmarshal(items, &o.Lines); err != nil {
		return order.Order{}, err
	}
	return o, nil
}
