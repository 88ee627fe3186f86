package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the product assortment in a local sqlite database.
// Variant lists are stored as a JSON column.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Product, error) {
	query := `
		SELECT id, sku, name, price, currency, stock, digital, variants
		FROM products
		WHERE id = ?
	`

	var (
		p            Product
		variantsJSON string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.SKU, &p.Name, &p.Price, &p.Currency, &p.Stock, &p.Digital, &variantsJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("failed to query product: %w", err)
	}

	if err := json.Unmarshal([]byte(variantsJSON), &p.Variants); err != nil {
		return Product{}, fmt.Errorf("failed to unmarshal variants for %s: %w", id, err)
	}
	return p, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Product, error) {
	query := `
		SELECT id, sku, name, price, currency, stock, digital, variants
		FROM products
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var (
			p            Product
			variantsJSON string
		)
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.Currency, &p.Stock, &p.Digital, &variantsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if err := json.Unmarshal([]byte(variantsJSON), &p.Variants); err != nil {
			return nil, fmt.Errorf("failed to unmarshal variants for %s: %w", p.ID, err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, nil
}

// Upsert inserts or replaces a product. Used for seeding and admin tooling.
func (s *SQLiteStore) Upsert(ctx context.Context, p Product) error {
	variants := p.Variants
	if variants == nil {
		variants = []Variant{}
	}
	variantsJSON, err := json.Marshal(variants)
	if err != nil {
		return fmt.Errorf("failed to marshal variants for %s: %w", p.ID, err)
	}

	query := `
		INSERT INTO products (id, sku, name, price, currency, stock, digital, variants)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sku = excluded.sku,
			name = excluded.name,
			price = excluded.price,
			currency = excluded.currency,
			stock = excluded.stock,
			digital = excluded.digital,
			variants = excluded.variants
	`

	_, err = s.db.ExecContext(ctx, query,
		p.ID, p.SKU, p.Name, p.Price, p.Currency, p.Stock, p.Digital, string(variantsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", p.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
