package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"adminBackend/models"
)

// OrderRepository handles basic CRUD for purchases.
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, profile_id, product_code, amount, currency, status, created_at`

// Create inserts a new order. Status defaults to 'pending' and currency to BYN.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) (*models.Order, error) {
	if o == nil {
		return nil, errors.New("order is nil")
	}
	if o.Status == "" {
		o.Status = models.OrderStatusPending
	}
	if o.Currency == "" {
		o.Currency = "BYN"
	}
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO orders (profile_id, product_code, amount, currency, status) VALUES (?,?,?,?,?)`,
		o.ProfileID, o.ProductCode, o.Amount, o.Currency, string(o.Status))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	o2, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o2 == nil {
		return nil, fmt.Errorf("created order not found: id=%d", id)
	}
	return o2, nil
}

// GetByID fetches an order by its ID.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	var o models.Order
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id).
		Scan(&o.ID, &o.ProfileID, &o.ProductCode, &o.Amount, &o.Currency, &status, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	o.Status = models.OrderStatus(status)
	return &o, nil
}

// ListByProfile returns a profile's orders, newest first.
func (r *OrderRepository) ListByProfile(ctx context.Context, profileID int64) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE profile_id = ? ORDER BY created_at DESC, id DESC`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Order
	for rows.Next() {
		var o models.Order
		var status string
		if err := rows.Scan(&o.ID, &o.ProfileID, &o.ProductCode, &o.Amount, &o.Currency, &status, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Status = models.OrderStatus(status)
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateStatus updates only the status field of an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}
