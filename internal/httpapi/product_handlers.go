package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"bazarly.org/internal/audit"
	"bazarly.org/internal/auth"
	"bazarly.org/internal/catalog"
	"bazarly.org/internal/stream"
)

func actorFor(p auth.Principal) catalog.Actor {
	return catalog.Actor{
		ID:    p.User.ID,
		Admin: p.Role == auth.RoleAdmin,
	}
}

type createProductRequest struct {
	Title         string `json:"title" validate:"required,max=300"`
	Description   string `json:"description" validate:"max=5000"`
	PriceCents    int64  `json:"price_cents" validate:"min=0"`
	StockQuantity int64  `json:"stock_quantity" validate:"min=0"`
	Category      string `json:"category" validate:"max=100"`
	ImageURL      string `json:"image_url" validate:"omitempty,url"`
}

type updateProductRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	PriceCents    *int64  `json:"price_cents"`
	StockQuantity *int64  `json:"stock_quantity"`
	Category      *string `json:"category"`
	ImageURL      *string `json:"image_url"`
}

func (a *API) publishProductEvent(kind stream.EventType, p *catalog.Product) {
	if a.stream == nil {
		return
	}
	a.stream.Publish(stream.ProductEvent{
		Type:       kind,
		ProductID:  p.ID,
		Title:      p.Title,
		PriceCents: p.PriceCents,
	})
}

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	minPrice, err := parseQueryInt64(q.Get("min_price_cents"), 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "min_price_cents "+err.Error())
		return
	}
	maxPrice, err := parseQueryInt64(q.Get("max_price_cents"), 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "max_price_cents "+err.Error())
		return
	}
	limit, err := parseQueryInt64(q.Get("limit"), 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "limit "+err.Error())
		return
	}
	offset, err := parseQueryInt64(q.Get("offset"), 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "offset "+err.Error())
		return
	}

	products, err := a.catalog.List(r.Context(), catalog.Filter{
		Query:         q.Get("q"),
		Category:      q.Get("category"),
		MinPriceCents: minPrice,
		MaxPriceCents: maxPrice,
		Limit:         int(limit),
		Offset:        int(offset),
	})
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"products": products,
		"count":    len(products),
	})
}

func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := a.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	var req createProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid product payload")
		return
	}

	product, err := a.catalog.Create(r.Context(), actorFor(principal), catalog.CreateParams{
		Title:         req.Title,
		Description:   req.Description,
		PriceCents:    req.PriceCents,
		StockQuantity: req.StockQuantity,
		Category:      req.Category,
		ImageURL:      req.ImageURL,
	})
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}

	a.publishProductEvent(stream.EventCreated, product)
	_ = audit.LogEvent(r.Context(), "catalog.product.created", map[string]any{
		"product_id": product.ID,
	})
	writeJSON(w, http.StatusCreated, product)
}

func (a *API) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	var req updateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	product, err := a.catalog.Update(r.Context(), actorFor(principal), chi.URLParam(r, "id"), catalog.Update{
		Title:         req.Title,
		Description:   req.Description,
		PriceCents:    req.PriceCents,
		StockQuantity: req.StockQuantity,
		Category:      req.Category,
		ImageURL:      req.ImageURL,
	})
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}

	a.publishProductEvent(stream.EventUpdated, product)
	writeJSON(w, http.StatusOK, product)
}

func (a *API) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	id := chi.URLParam(r, "id")
	if err := a.catalog.Delete(r.Context(), actorFor(principal), id); err != nil {
		handleCatalogError(w, r, err)
		return
	}

	a.publishProductEvent(stream.EventDeleted, &catalog.Product{ID: id})
	_ = audit.LogEvent(r.Context(), "catalog.product.deleted", map[string]any{
		"product_id": id,
	})
	writeJSON(w, http.StatusOK, map[string]any{"deleted_id": id})
}

func (a *API) handleActivateProduct(w http.ResponseWriter, r *http.Request) {
	a.setProductActive(w, r, true)
}

func (a *API) handleDeactivateProduct(w http.ResponseWriter, r *http.Request) {
	a.setProductActive(w, r, false)
}

func (a *API) setProductActive(w http.ResponseWriter, r *http.Request, active bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	product, err := a.catalog.SetActive(r.Context(), actorFor(principal), chi.URLParam(r, "id"), active)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}

	kind := stream.EventDeactivated
	if active {
		kind = stream.EventActivated
	}
	a.publishProductEvent(kind, product)
	writeJSON(w, http.StatusOK, product)
}

func (a *API) handleMyProducts(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	includeInactive := parseQueryBool(r.URL.Query().Get("include_inactive"))

	products, err := a.catalog.ListMine(r.Context(), actorFor(principal), includeInactive)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"products": products,
		"count":    len(products),
	})
}

func (a *API) handleMyInactiveProducts(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	products, err := a.catalog.ListMineInactive(r.Context(), actorFor(principal))
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"products": products,
		"count":    len(products),
	})
}

func (a *API) handleMyProductStats(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	stats, err := a.catalog.StatsFor(r.Context(), actorFor(principal))
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
