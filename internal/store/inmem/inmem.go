package inmem

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"bazarly.org/internal/auth"
	"bazarly.org/internal/catalog"
)

// Store is an in-memory implementation of the auth and catalog stores, used by
// tests and by local runs without PostgreSQL.
type Store struct {
	mu       sync.RWMutex
	users    map[string]*auth.User    // by id
	byEmail  map[string]string        // email -> id
	products map[string]*catalog.Product
}

var (
	_ auth.UserStore       = (*Store)(nil)
	_ catalog.ProductStore = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{
		users:    make(map[string]*auth.User),
		byEmail:  make(map[string]string),
		products: make(map[string]*catalog.Product),
	}
}

// --- auth.UserStore ---

func (s *Store) CreateUser(_ context.Context, u *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[u.Email]; exists {
		return fmt.Errorf("%w: email already registered", auth.ErrConflict)
	}
	cp := *u
	s.users[u.ID] = &cp
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *Store) FindUser(_ context.Context, id string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

func (s *Store) ListUsers(_ context.Context) ([]*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*auth.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (s *Store) SetUserActive(_ context.Context, userID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return auth.ErrNotFound
	}
	u.IsActive = active
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) SetUserRole(_ context.Context, userID string, role auth.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return auth.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) DeactivateUser(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return 0, auth.ErrNotFound
	}
	now := time.Now().UTC()
	var hidden int64
	for _, p := range s.products {
		if p.SellerID == userID && p.IsActive {
			p.IsActive = false
			p.UpdatedAt = now
			hidden++
		}
	}
	u.IsActive = false
	u.UpdatedAt = now
	return hidden, nil
}

func (s *Store) DeleteUser(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return 0, auth.ErrNotFound
	}
	delete(s.byEmail, u.Email)
	delete(s.users, userID)
	var purged int64
	for id, p := range s.products {
		if p.SellerID == userID {
			delete(s.products, id)
			purged++
		}
	}
	return purged, nil
}

// --- catalog.ProductStore ---

func (s *Store) CreateProduct(_ context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s *Store) FindProduct(_ context.Context, id string) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListProducts(_ context.Context, filter catalog.Filter) ([]*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*catalog.Product
	for _, p := range s.products {
		if !p.IsActive {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(filter.Query)) {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.MinPriceCents > 0 && p.PriceCents < filter.MinPriceCents {
			continue
		}
		if filter.MaxPriceCents > 0 && p.PriceCents > filter.MaxPriceCents {
			continue
		}
		cp := *p
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	if filter.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (s *Store) ListSellerProducts(_ context.Context, filter catalog.SellerFilter) ([]*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*catalog.Product
	for _, p := range s.products {
		if p.SellerID != filter.SellerID {
			continue
		}
		if filter.OnlyInactive && p.IsActive {
			continue
		}
		if !filter.OnlyInactive && !filter.IncludeInactive && !p.IsActive {
			continue
		}
		cp := *p
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return matched, nil
}

func (s *Store) UpdateProduct(_ context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return catalog.ErrNotFound
	}
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s *Store) SetProductActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return catalog.ErrNotFound
	}
	p.IsActive = active
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) SellerStats(_ context.Context, sellerID string) (catalog.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats catalog.Stats
	for _, p := range s.products {
		if p.SellerID != sellerID {
			continue
		}
		stats.TotalProducts++
		if p.IsActive {
			stats.ActiveProducts++
			stats.TotalInventoryValue += p.PriceCents * p.StockQuantity
		} else {
			stats.InactiveProducts++
		}
	}
	return stats, nil
}
