package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"retailops/pkg/metrics"
	"retailops/pkg/models"
)

var ErrOrderNotFound = errors.New("order not found")

type Repository interface {
	Create(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, order *models.Order) error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

const orderColumns = `id, customer_id, customer_name, customer_phone, shipping_address, order_date,
	items, total_amount, status, payment_method, payment_status, notes, discount, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, order *models.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}

	var discount []byte
	if order.Discount != nil {
		discount, err = json.Marshal(order.Discount)
		if err != nil {
			return fmt.Errorf("failed to marshal discount: %w", err)
		}
	}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = r.db.ExecContext(ctx, query,
		order.ID, order.CustomerID, order.CustomerName, order.CustomerPhone, order.ShippingAddress, order.OrderDate,
		items, order.TotalAmount, order.Status, order.PaymentMethod, order.PaymentStatus, order.Notes, discount,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		metrics.IncDatabaseQuery("postgres", "order_create", "error")
		return fmt.Errorf("failed to create order: %w", err)
	}
	metrics.IncDatabaseQuery("postgres", "order_create", "ok")
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]models.Order, int64, error) {
	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)

	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY order_date DESC, id ASC LIMIT $%d OFFSET $%d`,
		orderColumns, clause, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	return orders, total, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, order *models.Order) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $2, payment_status = $3, updated_at = $4 WHERE id = $1`,
		order.ID, order.Status, order.PaymentStatus, order.UpdatedAt,
	)
	if err != nil {
		metrics.IncDatabaseQuery("postgres", "order_update_status", "error")
		return fmt.Errorf("failed to update order status: %w", err)
	}
	metrics.IncDatabaseQuery("postgres", "order_update_status", "ok")

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrOrderNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o        models.Order
		address  sql.NullString
		notes    sql.NullString
		items    []byte
		discount []byte
	)
	if err := row.Scan(
		&o.ID, &o.CustomerID, &o.CustomerName, &o.CustomerPhone, &address, &o.OrderDate,
		&items, &o.TotalAmount, &o.Status, &o.PaymentMethod, &o.PaymentStatus, &notes, &discount,
		&o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	o.ShippingAddress = address.String
	o.Notes = notes.String

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}
	if len(discount) > 0 && string(discount) != "null" {
		o.Discount = &models.Discount{}
		if err := json.Unmarshal(discount, o.Discount); err != nil {
			return nil, fmt.Errorf("failed to unmarshal discount: %w", err)
		}
	}
	return &o, nil
}
