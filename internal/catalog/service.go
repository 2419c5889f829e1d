package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bazarly.org/internal/ids"
)

const (
	defaultLimit = 20
	maxLimit     = 100
	maxTitleLen  = 300
)

// Actor identifies who performs a mutation. Admins may act on any product,
// everyone else only on their own.
type Actor struct {
	ID    string
	Admin bool
}

func (a Actor) owns(p *Product) bool {
	return a.Admin || a.ID == p.SellerID
}

// Service implements product management on top of a ProductStore.
type Service struct {
	store ProductStore
	now   func() time.Time
}

// NewService constructs the catalog service.
func NewService(store ProductStore) *Service {
	return &Service{store: store, now: time.Now}
}

// CreateParams carries new listing input.
type CreateParams struct {
	Title         string
	Description   string
	PriceCents    int64
	StockQuantity int64
	Category      string
	ImageURL      string
}

// Create stores a new active listing owned by the actor.
func (s *Service) Create(ctx context.Context, actor Actor, params CreateParams) (*Product, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if len(title) > maxTitleLen {
		return nil, fmt.Errorf("%w: title too long", ErrInvalidInput)
	}
	if params.PriceCents < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrInvalidInput)
	}
	if params.StockQuantity < 0 {
		return nil, fmt.Errorf("%w: stock_quantity must be >= 0", ErrInvalidInput)
	}
	now := s.now().UTC()
	product := &Product{
		ID:            ids.New(),
		SellerID:      actor.ID,
		Title:         title,
		Description:   strings.TrimSpace(params.Description),
		PriceCents:    params.PriceCents,
		StockQuantity: params.StockQuantity,
		Category:      strings.TrimSpace(strings.ToLower(params.Category)),
		ImageURL:      strings.TrimSpace(params.ImageURL),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Get returns an active listing for public viewing.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	product, err := s.store.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrNotFound
	}
	return product, nil
}

// List returns active listings matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Product, error) {
	if filter.MinPriceCents < 0 || filter.MaxPriceCents < 0 {
		return nil, fmt.Errorf("%w: price bounds must be >= 0", ErrInvalidInput)
	}
	if filter.MaxPriceCents > 0 && filter.MaxPriceCents < filter.MinPriceCents {
		return nil, fmt.Errorf("%w: max_price below min_price", ErrInvalidInput)
	}
	if filter.Limit <= 0 || filter.Limit > maxLimit {
		filter.Limit = defaultLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.Query = strings.TrimSpace(filter.Query)
	filter.Category = strings.TrimSpace(strings.ToLower(filter.Category))
	return s.store.ListProducts(ctx, filter)
}

// ListMine returns the actor's own listings.
func (s *Service) ListMine(ctx context.Context, actor Actor, includeInactive bool) ([]*Product, error) {
	return s.store.ListSellerProducts(ctx, SellerFilter{
		SellerID:        actor.ID,
		IncludeInactive: includeInactive,
	})
}

// ListMineInactive returns only the actor's deactivated listings.
func (s *Service) ListMineInactive(ctx context.Context, actor Actor) ([]*Product, error) {
	return s.store.ListSellerProducts(ctx, SellerFilter{
		SellerID:     actor.ID,
		OnlyInactive: true,
	})
}

// StatsFor summarises the actor's inventory.
func (s *Service) StatsFor(ctx context.Context, actor Actor) (Stats, error) {
	return s.store.SellerStats(ctx, actor.ID)
}

// Update applies the non-nil fields to a listing the actor owns.
func (s *Service) Update(ctx context.Context, actor Actor, id string, upd Update) (*Product, error) {
	product, err := s.store.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.owns(product) {
		return nil, ErrForbidden
	}
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" || len(title) > maxTitleLen {
			return nil, fmt.Errorf("%w: invalid title", ErrInvalidInput)
		}
		product.Title = title
	}
	if upd.Description != nil {
		product.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.PriceCents != nil {
		if *upd.PriceCents < 0 {
			return nil, fmt.Errorf("%w: price must be >= 0", ErrInvalidInput)
		}
		product.PriceCents = *upd.PriceCents
	}
	if upd.StockQuantity != nil {
		if *upd.StockQuantity < 0 {
			return nil, fmt.Errorf("%w: stock_quantity must be >= 0", ErrInvalidInput)
		}
		product.StockQuantity = *upd.StockQuantity
	}
	if upd.Category != nil {
		product.Category = strings.TrimSpace(strings.ToLower(*upd.Category))
	}
	if upd.ImageURL != nil {
		product.ImageURL = strings.TrimSpace(*upd.ImageURL)
	}
	product.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// SetActive activates or deactivates a listing the actor owns.
func (s *Service) SetActive(ctx context.Context, actor Actor, id string, active bool) (*Product, error) {
	product, err := s.store.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.owns(product) {
		return nil, ErrForbidden
	}
	if product.IsActive != active {
		if err := s.store.SetProductActive(ctx, id, active); err != nil {
			return nil, err
		}
		product.IsActive = active
		product.UpdatedAt = s.now().UTC()
	}
	return product, nil
}

// Delete permanently removes a listing the actor owns.
func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	product, err := s.store.FindProduct(ctx, id)
	if err != nil {
		return err
	}
	if !actor.owns(product) {
		return ErrForbidden
	}
	return s.store.DeleteProduct(ctx, id)
}
