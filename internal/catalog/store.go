package catalog

import "context"

// ProductStore describes persistence operations for listings.
type ProductStore interface {
	CreateProduct(ctx context.Context, p *Product) error
	FindProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, filter Filter) ([]*Product, error)
	ListSellerProducts(ctx context.Context, filter SellerFilter) ([]*Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	SetProductActive(ctx context.Context, id string, active bool) error
	DeleteProduct(ctx context.Context, id string) error
	SellerStats(ctx context.Context, sellerID string) (Stats, error)
}
