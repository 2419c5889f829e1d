package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"bazarly.org/api/spec"
	"bazarly.org/internal/auth"
	"bazarly.org/internal/catalog"
	"bazarly.org/internal/obs"
	"bazarly.org/internal/stream"
)

// ReadyProbe reports readiness, typically by pinging the database.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer wiring handlers, the authorization gate and the
// platform endpoints together.
type API struct {
	router     chi.Router
	readyProbe ReadyProbe
	version    string

	auth     *auth.Service
	catalog  *catalog.Service
	stream   *stream.Stream
	validate *validator.Validate

	rateBurst    int
	ratePerSec   int
	maxBodyBytes int64
}

// Option tweaks API construction.
type Option func(*API)

// WithRateLimit overrides the per-IP token bucket parameters.
func WithRateLimit(burst, perSec int) Option {
	return func(a *API) {
		if burst > 0 {
			a.rateBurst = burst
		}
		if perSec > 0 {
			a.ratePerSec = perSec
		}
	}
}

// WithMaxBodyBytes overrides the request body limit.
func WithMaxBodyBytes(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxBodyBytes = n
		}
	}
}

// New constructs the API and mounts all routes.
func New(rp ReadyProbe, version string, authSvc *auth.Service, catalogSvc *catalog.Service, events *stream.Stream, opts ...Option) *API {
	a := &API{
		router:       chi.NewRouter(),
		readyProbe:   rp,
		version:      version,
		auth:         authSvc,
		catalog:      catalogSvc,
		stream:       events,
		validate:     validator.New(),
		rateBurst:    20,
		ratePerSec:   10,
		maxBodyBytes: 1 << 20,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.mountRoutes()
	return a
}

func (a *API) mountRoutes() {
	r := a.router

	// health/ready/info
	r.Get("/healthz", a.healthz)
	r.Get("/readyz", a.ready)
	r.Get("/v1/info", a.info)
	r.Get("/openapi.yaml", a.openAPISpec)
	r.Handle("/metrics", obs.Handler())

	// public auth surface
	r.Post("/v1/auth/register", a.handleRegister)
	r.Post("/v1/auth/login", a.handleLogin)
	r.Post("/v1/auth/reactivate", a.handleReactivate)

	// public catalog surface
	r.Get("/v1/products", a.handleListProducts)
	r.Get("/v1/products/events", a.handleProductEvents)
	r.Get("/v1/products/{id}", a.handleGetProduct)

	// authenticated account surface
	r.Group(func(r chi.Router) {
		r.Use(a.requireAuth)
		r.Get("/v1/auth/me", a.handleMe)
		r.Get("/v1/auth/account", a.handleAccountInfo)
		r.Patch("/v1/auth/deactivate", a.handleDeactivateAccount)
		r.Delete("/v1/auth/account", a.handleDeleteAccount)
	})

	// seller surface
	r.Group(func(r chi.Router) {
		r.Use(a.requireAuth, RequireOperation(auth.OpCatalogManage))
		r.Post("/v1/products", a.handleCreateProduct)
		r.Put("/v1/products/{id}", a.handleUpdateProduct)
		r.Delete("/v1/products/{id}", a.handleDeleteProduct)
		r.Post("/v1/products/{id}/activate", a.handleActivateProduct)
		r.Post("/v1/products/{id}/deactivate", a.handleDeactivateProduct)
		r.Get("/v1/my/products", a.handleMyProducts)
		r.Get("/v1/my/products/inactive", a.handleMyInactiveProducts)
		r.Get("/v1/my/products/stats", a.handleMyProductStats)
	})

	// admin surface
	r.Group(func(r chi.Router) {
		r.Use(a.requireAuth, RequireOperation(auth.OpAdmin))
		r.Get("/v1/admin/users", a.handleAdminListUsers)
		r.Patch("/v1/admin/users/{id}/role", a.handleAdminSetRole)
		r.Patch("/v1/admin/users/{id}/active", a.handleAdminSetActive)
	})
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.router
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = Logging(h)
	h = RequestID(h)
	h = CORS(h)
	h = SecurityHeaders(h)
	return obs.Instrument(h)
}

// --- platform handlers ---

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "bazarly-api",
		"version": a.version,
	})
}

func (a *API) ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "bazarly-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func (a *API) openAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(spec.OpenAPI)
}
