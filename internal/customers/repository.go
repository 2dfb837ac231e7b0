package customers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	pkgerrors "retailops/pkg/errors"
	"retailops/pkg/metrics"
	"retailops/pkg/models"
)

var ErrCustomerNotFound = errors.New("customer not found")

type ListFilter struct {
	Tag    string
	Search string
	Limit  int
	Offset int
}

// Repository is the customer store. Find and FindByPhone return (nil, nil)
// when nothing matches.
type Repository interface {
	Find(ctx context.Context, id string) (*models.Customer, error)
	FindByPhone(ctx context.Context, phone string) (*models.Customer, error)
	Upsert(ctx context.Context, customer *models.Customer) error
	List(ctx context.Context, filter ListFilter) ([]models.Customer, int64, error)
	Delete(ctx context.Context, id string) error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

const customerColumns = `id, name, phone, email, address, tags, created_at, updated_at`

func (r *PostgresRepository) Find(ctx context.Context, id string) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	customer, err := scanCustomer(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		metrics.IncDatabaseQuery("postgres", "customer_find", "miss")
		return nil, nil
	}
	if err != nil {
		metrics.IncDatabaseQuery("postgres", "customer_find", "error")
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	metrics.IncDatabaseQuery("postgres", "customer_find", "ok")
	return customer, nil
}

func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE phone = $1`
	customer, err := scanCustomer(r.db.QueryRowContext(ctx, query, phone))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer by phone: %w", err)
	}
	return customer, nil
}

// Upsert writes the whole record. The tag array is replaced, not merged.
func (r *PostgresRepository) Upsert(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO customers (id, name, phone, email, address, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			address = EXCLUDED.address,
			tags = EXCLUDED.tags,
			updated_at = EXCLUDED.updated_at
	`

	tags := customer.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := r.db.ExecContext(ctx, query,
		customer.ID, customer.Name, customer.Phone, customer.Email, customer.Address,
		pq.Array(tags), customer.CreatedAt, customer.UpdatedAt,
	)
	if err != nil {
		metrics.IncDatabaseQuery("postgres", "customer_upsert", "error")
		if isUniqueViolation(err) {
			return pkgerrors.ErrConflict.WithCause(err).WithDetail("message", fmt.Sprintf("customer with phone '%s' already exists", customer.Phone))
		}
		return fmt.Errorf("failed to upsert customer: %w", err)
	}
	metrics.IncDatabaseQuery("postgres", "customer_upsert", "ok")
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]models.Customer, int64, error) {
	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)

	if filter.Tag != "" {
		args = append(args, filter.Tag)
		where = append(where, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR phone ILIKE $%d)", len(args), len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM customers%s ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d`,
		customerColumns, clause, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]models.Customer, 0)
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *customer)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	return customers, total, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var (
		c       models.Customer
		email   sql.NullString
		address sql.NullString
		tags    pq.StringArray
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &email, &address, &tags, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Email = email.String
	c.Address = address.String
	c.Tags = []string(tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "duplicate key")
}
