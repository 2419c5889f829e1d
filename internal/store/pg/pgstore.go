package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"bazarly.org/internal/auth"
	"bazarly.org/internal/catalog"
)

const uniqueViolation = "23505"

// Store implements the auth and catalog store interfaces on PostgreSQL.
type Store struct {
	db *sql.DB
}

var (
	_ auth.UserStore       = (*Store)(nil)
	_ catalog.ProductStore = (*Store)(nil)
)

// Open connects to PostgreSQL with pool defaults tuned for the API workload.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection. Used by tests with sqlmock.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle for readiness pings and migrations.
func (s *Store) DB() *sql.DB { return s.db }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// --- auth.UserStore ---

const userColumns = `id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*auth.User, error) {
	var u auth.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = auth.Role(role)
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	_, err := s.db.ExecContext(ctx, `
		insert into users(id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, string(u.Role), u.IsActive, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: email already registered", auth.ErrConflict)
	}
	return err
}

func (s *Store) FindUser(ctx context.Context, id string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where id=$1`, id)
	return scanUser(row)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where email=$1`, email)
	return scanUser(row)
}

func (s *Store) ListUsers(ctx context.Context) ([]*auth.User, error) {
	rows, err := s.db.QueryContext(ctx, `select `+userColumns+` from users order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*auth.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) SetUserActive(ctx context.Context, userID string, active bool) error {
	res, err := s.db.ExecContext(ctx, `update users set is_active=$2, updated_at=now() where id=$1`, userID, active)
	if err != nil {
		return err
	}
	return ensureAffected(res, auth.ErrNotFound)
}

func (s *Store) SetUserRole(ctx context.Context, userID string, role auth.Role) error {
	res, err := s.db.ExecContext(ctx, `update users set role=$2, updated_at=now() where id=$1`, userID, string(role))
	if err != nil {
		return err
	}
	return ensureAffected(res, auth.ErrNotFound)
}

func (s *Store) DeactivateUser(ctx context.Context, userID string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	prodRes, err := tx.ExecContext(ctx, `
		update products set is_active=false, updated_at=now()
		where seller_id=$1 and is_active
	`, userID)
	if err != nil {
		return 0, err
	}
	hidden, err := prodRes.RowsAffected()
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `update users set is_active=false, updated_at=now() where id=$1`, userID)
	if err != nil {
		return 0, err
	}
	if err := ensureAffected(res, auth.ErrNotFound); err != nil {
		return 0, err
	}
	return hidden, tx.Commit()
}

func (s *Store) DeleteUser(ctx context.Context, userID string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	prodRes, err := tx.ExecContext(ctx, `delete from products where seller_id=$1`, userID)
	if err != nil {
		return 0, err
	}
	purged, err := prodRes.RowsAffected()
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `delete from users where id=$1`, userID)
	if err != nil {
		return 0, err
	}
	if err := ensureAffected(res, auth.ErrNotFound); err != nil {
		return 0, err
	}
	return purged, tx.Commit()
}

// --- catalog.ProductStore ---

const productColumns = `id, seller_id, title, description, price_cents, stock_quantity, category, image_url, is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.SellerID, &p.Title, &p.Description, &p.PriceCents, &p.StockQuantity, &p.Category, &p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *catalog.Product) error {
	_, err := s.db.ExecContext(ctx, `
		insert into products(id, seller_id, title, description, price_cents, stock_quantity, category, image_url, is_active, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, p.ID, p.SellerID, p.Title, p.Description, p.PriceCents, p.StockQuantity, p.Category, p.ImageURL, p.IsActive, p.CreatedAt, p.UpdatedAt)
	return err
}

func (s *Store) FindProduct(ctx context.Context, id string) (*catalog.Product, error) {
	row := s.db.QueryRowContext(ctx, `select `+productColumns+` from products where id=$1`, id)
	return scanProduct(row)
}

func (s *Store) ListProducts(ctx context.Context, filter catalog.Filter) ([]*catalog.Product, error) {
	query := `select ` + productColumns + ` from products where is_active = true`
	args := []any{}
	idx := 1
	if filter.Query != "" {
		query += fmt.Sprintf(` and title ilike $%d`, idx)
		args = append(args, "%"+filter.Query+"%")
		idx++
	}
	if filter.Category != "" {
		query += fmt.Sprintf(` and category = $%d`, idx)
		args = append(args, filter.Category)
		idx++
	}
	if filter.MinPriceCents > 0 {
		query += fmt.Sprintf(` and price_cents >= $%d`, idx)
		args = append(args, filter.MinPriceCents)
		idx++
	}
	if filter.MaxPriceCents > 0 {
		query += fmt.Sprintf(` and price_cents <= $%d`, idx)
		args = append(args, filter.MaxPriceCents)
		idx++
	}
	query += fmt.Sprintf(` order by created_at desc limit $%d offset $%d`, idx, idx+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (s *Store) ListSellerProducts(ctx context.Context, filter catalog.SellerFilter) ([]*catalog.Product, error) {
	query := `select ` + productColumns + ` from products where seller_id=$1`
	switch {
	case filter.OnlyInactive:
		query += ` and is_active = false`
	case !filter.IncludeInactive:
		query += ` and is_active = true`
	}
	query += ` order by created_at desc`

	rows, err := s.db.QueryContext(ctx, query, filter.SellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (s *Store) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	res, err := s.db.ExecContext(ctx, `
		update products
		set title=$2, description=$3, price_cents=$4, stock_quantity=$5, category=$6, image_url=$7, updated_at=$8
		where id=$1
	`, p.ID, p.Title, p.Description, p.PriceCents, p.StockQuantity, p.Category, p.ImageURL, p.UpdatedAt)
	if err != nil {
		return err
	}
	return ensureAffected(res, catalog.ErrNotFound)
}

func (s *Store) SetProductActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, `update products set is_active=$2, updated_at=now() where id=$1`, id, active)
	if err != nil {
		return err
	}
	return ensureAffected(res, catalog.ErrNotFound)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from products where id=$1`, id)
	if err != nil {
		return err
	}
	return ensureAffected(res, catalog.ErrNotFound)
}

func (s *Store) SellerStats(ctx context.Context, sellerID string) (catalog.Stats, error) {
	var stats catalog.Stats
	err := s.db.QueryRowContext(ctx, `
		select
			count(*),
			count(*) filter (where is_active),
			count(*) filter (where not is_active),
			coalesce(sum(price_cents * stock_quantity) filter (where is_active), 0)
		from products where seller_id=$1
	`, sellerID).Scan(&stats.TotalProducts, &stats.ActiveProducts, &stats.InactiveProducts, &stats.TotalInventoryValue)
	if err != nil {
		return catalog.Stats{}, err
	}
	return stats, nil
}

// --- helpers ---

func collectProducts(rows *sql.Rows) ([]*catalog.Product, error) {
	var products []*catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func ensureAffected(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}
