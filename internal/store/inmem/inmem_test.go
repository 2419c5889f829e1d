package inmem

import (
	"context"
	"errors"
	"testing"
	"time"

	"bazarly.org/internal/auth"
	"bazarly.org/internal/catalog"
)

func seedSeller(t *testing.T, s *Store, id string) {
	t.Helper()
	now := time.Now().UTC()
	err := s.CreateUser(context.Background(), &auth.User{
		ID:        id,
		Email:     id + "@example.com",
		Role:      auth.RoleSeller,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
}

func seedProduct(t *testing.T, s *Store, id, sellerID string, active bool) {
	t.Helper()
	now := time.Now().UTC()
	err := s.CreateProduct(context.Background(), &catalog.Product{
		ID:        id,
		SellerID:  sellerID,
		Title:     "Item " + id,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
}

func TestDeactivateUserHidesListings(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedSeller(t, s, "seller-1")
	seedSeller(t, s, "seller-2")
	seedProduct(t, s, "p1", "seller-1", true)
	seedProduct(t, s, "p2", "seller-1", true)
	seedProduct(t, s, "p3", "seller-1", false)
	seedProduct(t, s, "p4", "seller-2", true)

	hidden, err := s.DeactivateUser(ctx, "seller-1")
	if err != nil {
		t.Fatalf("DeactivateUser: %v", err)
	}
	if hidden != 2 {
		t.Fatalf("expected 2 hidden listings, got %d", hidden)
	}

	user, err := s.FindUser(ctx, "seller-1")
	if err != nil {
		t.Fatalf("FindUser: %v", err)
	}
	if user.IsActive {
		t.Fatal("account still active after DeactivateUser")
	}
	visible, err := s.ListProducts(ctx, catalog.Filter{Limit: 100})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != "p4" {
		t.Fatalf("expected only the other seller's listing to stay public, got %d", len(visible))
	}
}

func TestDeleteUserPurgesListings(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedSeller(t, s, "seller-1")
	seedSeller(t, s, "seller-2")
	seedProduct(t, s, "p1", "seller-1", true)
	seedProduct(t, s, "p2", "seller-1", false)
	seedProduct(t, s, "p3", "seller-2", true)

	purged, err := s.DeleteUser(ctx, "seller-1")
	if err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if purged != 2 {
		t.Fatalf("expected 2 purged listings, got %d", purged)
	}

	if _, err := s.FindUser(ctx, "seller-1"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted user, got %v", err)
	}
	if _, err := s.FindUserByEmail(ctx, "seller-1@example.com"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected email freed after deletion, got %v", err)
	}
	remaining, err := s.ListSellerProducts(ctx, catalog.SellerFilter{SellerID: "seller-1", IncludeInactive: true})
	if err != nil {
		t.Fatalf("ListSellerProducts: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no listings left, got %d", len(remaining))
	}
}
