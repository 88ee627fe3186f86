package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"storefront/internal/order/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

const orderColumns = `id, order_number, customer_id, email, items, currency,
	subtotal, tax, shipping, total, status, payment_status, payment_method,
	shipping_address, notes, version, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, order *domain.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	var addressJSON []byte
	if order.ShippingAddress != nil {
		addressJSON, err = json.Marshal(order.ShippingAddress)
		if err != nil {
			return fmt.Errorf("failed to marshal shipping address: %w", err)
		}
	}

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.Version = 1

	query := `INSERT INTO orders (id, order_number, customer_id, email, items, currency,
	            subtotal, tax, shipping, total, status, payment_status, payment_method,
	            shipping_address, notes, version, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
	          RETURNING created_at, updated_at`

	insertErr := r.db.QueryRowContext(ctx, query,
		order.ID,
		order.OrderNumber,
		order.CustomerID,
		order.Email,
		itemsJSON,
		order.Currency,
		order.Subtotal,
		order.Tax,
		order.Shipping,
		order.Total,
		order.Status,
		order.PaymentStatus,
		order.PaymentMethod,
		addressJSON,
		order.Notes,
		order.Version,
	).Scan(&order.CreatedAt, &order.UpdatedAt)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateOrderNumber
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}
	return nil
}

func (r *Repository) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, orderNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by number: %w", err)
	}
	return order, nil
}

func (r *Repository) ListByOwner(ctx context.Context, customerID, email string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
	          WHERE (customer_id = $1 AND $1 <> '') OR (email = $2 AND $2 <> '')
	          ORDER BY created_at DESC`

	return r.queryOrders(ctx, query, customerID, email)
}

func (r *Repository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`

	return r.queryOrders(ctx, query)
}

func (r *Repository) UpdateStatus(ctx context.Context, orderNumber string, status domain.Status, expectedVersion int64) error {
	query := `UPDATE orders SET status = $1, version = version + 1, updated_at = NOW()
	          WHERE order_number = $2 AND version = $3`

	return r.versionedUpdate(ctx, query, status, orderNumber, expectedVersion)
}

func (r *Repository) UpdatePaymentStatus(ctx context.Context, orderNumber string, status domain.PaymentStatus, expectedVersion int64) error {
	query := `UPDATE orders SET payment_status = $1, version = version + 1, updated_at = NOW()
	          WHERE order_number = $2 AND version = $3`

	return r.versionedUpdate(ctx, query, status, orderNumber, expectedVersion)
}

// versionedUpdate distinguishes a missing order from a lost optimistic race:
// zero rows updated plus an existing row means the version moved underneath
// the caller.
func (r *Repository) versionedUpdate(ctx context.Context, query string, value interface{}, orderNumber string, expectedVersion int64) error {
	res, err := r.db.ExecContext(ctx, query, value, orderNumber, expectedVersion)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	err = r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE order_number = $1)`, orderNumber).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check order existence: %w", err)
	}
	if exists {
		return ErrVersionConflict
	}
	return ErrOrderNotFound
}

func (r *Repository) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row scannable) (*domain.Order, error) {
	var (
		order       domain.Order
		itemsJSON   []byte
		addressJSON []byte
	)

	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.CustomerID,
		&order.Email,
		&itemsJSON,
		&order.Currency,
		&order.Subtotal,
		&order.Tax,
		&order.Shipping,
		&order.Total,
		&order.Status,
		&order.PaymentStatus,
		&order.PaymentMethod,
		&addressJSON,
		&order.Notes,
		&order.Version,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if len(addressJSON) > 0 {
		order.ShippingAddress = &domain.ShippingAddress{}
		if err := json.Unmarshal(addressJSON, order.ShippingAddress); err != nil {
			return nil, fmt.Errorf("unmarshal shipping address: %w", err)
		}
	}

	return &order, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
