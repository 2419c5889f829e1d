package catalog

import "time"

// Product is a marketplace listing owned by a seller. Prices are stored in
// minor units to keep arithmetic exact.
type Product struct {
	ID            string    `json:"id"`
	SellerID      string    `json:"seller_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	PriceCents    int64     `json:"price_cents"`
	StockQuantity int64     `json:"stock_quantity"`
	Category      string    `json:"category,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Filter composes the public listing predicates. Zero values mean "no
// constraint"; MaxPriceCents < 0 is rejected by the service.
type Filter struct {
	Query         string
	Category      string
	MinPriceCents int64
	MaxPriceCents int64
	Limit         int
	Offset        int
}

// SellerFilter scopes queries to one seller's products.
type SellerFilter struct {
	SellerID        string
	IncludeInactive bool
	OnlyInactive    bool
}

// Stats summarises a seller's inventory.
type Stats struct {
	TotalProducts       int64 `json:"total_products"`
	ActiveProducts      int64 `json:"active_products"`
	InactiveProducts    int64 `json:"inactive_products"`
	TotalInventoryValue int64 `json:"total_inventory_value_cents"`
}

// Update carries optional field changes; nil pointers leave fields untouched.
type Update struct {
	Title         *string
	Description   *string
	PriceCents    *int64
	StockQuantity *int64
	Category      *string
	ImageURL      *string
}
