package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"bazarly.org/internal/auth"
	"bazarly.org/internal/catalog"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func TestCreateUserMapsUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("insert into users").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err := store.CreateUser(context.Background(), &auth.User{
		ID:    "u1",
		Email: "alice@example.com",
	})
	if !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFindUserByEmail(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "first_name", "last_name", "role", "is_active", "created_at", "updated_at"}).
		AddRow("u1", "alice@example.com", "hash", "Alice", "", "seller", true, now, now)
	mock.ExpectQuery("select .* from users where email").
		WithArgs("alice@example.com").
		WillReturnRows(rows)

	user, err := store.FindUserByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("FindUserByEmail: %v", err)
	}
	if user.ID != "u1" || user.Role != auth.RoleSeller {
		t.Fatalf("unexpected user: %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFindUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select .* from users where id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.FindUser(context.Background(), "missing")
	if !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetUserActiveMissingRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("update users set is_active").
		WithArgs("missing", false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.SetUserActive(context.Background(), "missing", false)
	if !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUserRemovesProductsFirst(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("delete from products where seller_id").
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("delete from users where id").
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	purged, err := store.DeleteUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if purged != 3 {
		t.Fatalf("expected 3 purged listings, got %d", purged)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeactivateUserCascadesInOneTx(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("update products set is_active=false").
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("update users set is_active=false").
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	hidden, err := store.DeactivateUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("DeactivateUser: %v", err)
	}
	if hidden != 4 {
		t.Fatalf("expected 4 hidden listings, got %d", hidden)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeactivateUserRollsBackOnMissingAccount(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("update products set is_active=false").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("update users set is_active=false").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := store.DeactivateUser(context.Background(), "missing")
	if !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListProductsComposesPredicates(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "seller_id", "title", "description", "price_cents", "stock_quantity", "category", "image_url", "is_active", "created_at", "updated_at"}).
		AddRow("p1", "u1", "Desk Lamp", "", int64(2500), int64(3), "lighting", "", true, now, now)
	mock.ExpectQuery(`select .* from products where is_active = true and title ilike \$1 and category = \$2 and price_cents >= \$3 order by created_at desc limit \$4 offset \$5`).
		WithArgs("%lamp%", "lighting", int64(1000), 20, 0).
		WillReturnRows(rows)

	products, err := store.ListProducts(context.Background(), catalog.Filter{
		Query:         "lamp",
		Category:      "lighting",
		MinPriceCents: 1000,
		Limit:         20,
	})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) != 1 || products[0].Title != "Desk Lamp" {
		t.Fatalf("unexpected products: %+v", products)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListSellerProductsOnlyInactive(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`select .* from products where seller_id=\$1 and is_active = false order by created_at desc`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "seller_id", "title", "description", "price_cents", "stock_quantity", "category", "image_url", "is_active", "created_at", "updated_at"}))

	_, err := store.ListSellerProducts(context.Background(), catalog.SellerFilter{
		SellerID:     "u1",
		OnlyInactive: true,
	})
	if err != nil {
		t.Fatalf("ListSellerProducts: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSellerStats(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count", "active", "inactive", "value"}).
			AddRow(int64(5), int64(3), int64(2), int64(75000)))

	stats, err := store.SellerStats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("SellerStats: %v", err)
	}
	if stats.TotalProducts != 5 || stats.ActiveProducts != 3 || stats.InactiveProducts != 2 || stats.TotalInventoryValue != 75000 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
