package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
	_ "github.com/lib/pq"

	"github.com/SamBailey6194/boutique-ado-v1/internal/domain"
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(cred *Credentials) (*PostgresRepository, error) {
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
	return &PostgresRepository{db: db}, nil
}

// NewPostgresRepositoryFromDB wraps an existing connection. Used by the
// profiles store and tests so everything shares one pool.
func NewPostgresRepositoryFromDB(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) DB() *sql.DB {
	return r.db
}

func (r *PostgresRepository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "storefront_schema_migrations",
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

func (r *PostgresRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	query := `INSERT INTO orders
	          (order_number, stripe_pid, full_name, email, phone_number, country, postcode,
	           town_or_city, street_address1, street_address2, county,
	           order_total, delivery_cost, grand_total, original_bag, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW())
	          RETURNING id, created_at`

	s := order.Shipping
	err := r.db.QueryRowContext(ctx, query,
		order.OrderNumber,
		order.StripePID,
		s.FullName,
		s.Email,
		s.Phone,
		s.Country,
		s.Postcode,
		s.City,
		s.StreetAddress1,
		s.StreetAddress2,
		s.County,
		order.OrderTotal,
		order.DeliveryCost,
		order.GrandTotal,
		order.OriginalBag,
		order.Status,
	).Scan(&order.ID, &order.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicatePayment
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *PostgresRepository) InsertLineItems(ctx context.Context, orderID int64, items []domain.OrderLineItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin line items tx: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO order_line_items
	          (order_id, product_id, product_name, product_size, quantity, lineitem_total)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	for _, item := range items {
		var size sql.NullString
		if item.Size != "" {
			size = sql.NullString{String: item.Size, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, query,
			orderID,
			item.ProductID,
			item.ProductName,
			size,
			item.Quantity,
			item.LineTotal,
		); err != nil {
			return fmt.Errorf("insert line item for product %s: %w", item.ProductID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit line items: %w", err)
	}
	return nil
}

// DeleteOrder removes an order; line items go with it via ON DELETE CASCADE.
func (r *PostgresRepository) DeleteOrder(ctx context.Context, orderID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order %d: %w", orderID, err)
	}
	return nil
}

const orderColumns = `id, order_number, stripe_pid, full_name, email, phone_number, country,
	postcode, town_or_city, street_address1, street_address2, county,
	order_total, delivery_cost, grand_total, original_bag, status, created_at`

func (r *PostgresRepository) GetByStripePID(ctx context.Context, stripePID string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE stripe_pid = $1`, orderColumns)
	return r.queryOrder(ctx, query, stripePID)
}

func (r *PostgresRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE order_number = $1`, orderColumns)
	return r.queryOrder(ctx, query, orderNumber)
}

// FindMatching looks up an order by the full shipping tuple plus totals,
// snapshot and payment id, matching text fields case-insensitively.
func (r *PostgresRepository) FindMatching(ctx context.Context, m MatchCriteria) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders
	          WHERE lower(full_name) = lower($1)
	            AND lower(email) = lower($2)
	            AND lower(phone_number) = lower($3)
	            AND lower(country) = lower($4)
	            AND lower(postcode) = lower($5)
	            AND lower(town_or_city) = lower($6)
	            AND lower(street_address1) = lower($7)
	            AND lower(street_address2) = lower($8)
	            AND lower(county) = lower($9)
	            AND grand_total = $10
	            AND original_bag = $11
	            AND stripe_pid = $12`, orderColumns)

	s := m.Shipping
	return r.queryOrder(ctx, query,
		s.FullName, s.Email, s.Phone, s.Country, s.Postcode, s.City,
		s.StreetAddress1, s.StreetAddress2, s.County,
		m.GrandTotal, m.OriginalBag, m.StripePID,
	)
}

func (r *PostgresRepository) UpdateShipping(ctx context.Context, orderID int64, shipping domain.ShippingDetails) error {
	query := `UPDATE orders SET
	          full_name = $1, email = $2, phone_number = $3, country = $4, postcode = $5,
	          town_or_city = $6, street_address1 = $7, street_address2 = $8, county = $9
	          WHERE id = $10`

	_, err := r.db.ExecContext(ctx, query,
		shipping.FullName,
		shipping.Email,
		shipping.Phone,
		shipping.Country,
		shipping.Postcode,
		shipping.City,
		shipping.StreetAddress1,
		shipping.StreetAddress2,
		shipping.County,
		orderID,
	)
	if err != nil {
		return fmt.Errorf("update order shipping: %w", err)
	}
	return nil
}

func (r *PostgresRepository) queryOrder(ctx context.Context, query string, args ...interface{}) (*domain.Order, error) {
	var order domain.Order
	s := &order.Shipping
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&order.ID,
		&order.OrderNumber,
		&order.StripePID,
		&s.FullName,
		&s.Email,
		&s.Phone,
		&s.Country,
		&s.Postcode,
		&s.City,
		&s.StreetAddress1,
		&s.StreetAddress2,
		&s.County,
		&order.OrderTotal,
		&order.DeliveryCost,
		&order.GrandTotal,
		&order.OriginalBag,
		&order.Status,
		&order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	items, err := r.loadLineItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (r *PostgresRepository) loadLineItems(ctx context.Context, orderID int64) ([]domain.OrderLineItem, error) {
	query := `SELECT id, order_id, product_id, product_name, product_size, quantity, lineitem_total
	          FROM order_line_items WHERE order_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query line items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderLineItem
	for rows.Next() {
		var item domain.OrderLineItem
		var size sql.NullString
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&size,
			&item.Quantity,
			&item.LineTotal,
		); err != nil {
			return nil, fmt.Errorf("scan line item row: %w", err)
		}
		item.Size = size.String
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
