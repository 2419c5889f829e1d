// Package client provides a Go client for the Bazarly API. It keeps the
// bearer token and the cached account in a Session, attaches the token to
// every request and tears the session down on any 401 response.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bazarly.org/internal/auth"
	"bazarly.org/internal/catalog"
)

// State describes whether the session currently holds credentials.
type State string

const (
	StateAnonymous     State = "anonymous"
	StateAuthenticated State = "authenticated"
)

// APIError carries the HTTP status and server message of a failed call.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Client talks to a Bazarly API server.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session

	// onLogout runs once per teardown, after the session is cleared.
	onLogout func()
}

// Option customises client construction.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogoutHook registers a callback fired whenever the session is torn
// down, either explicitly or by a server 401.
func WithLogoutHook(fn func()) Option {
	return func(c *Client) { c.onLogout = fn }
}

// New constructs a client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		session: newSession(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session exposes the current session for inspection.
func (c *Client) Session() *Session { return c.session }

// State reports the current session state.
func (c *Client) State() State { return c.session.State() }

// tokenResponse mirrors the login payload.
type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RegisterParams carries new account input.
type RegisterParams struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Register creates a buyer account. It does not log in.
func (c *Client) Register(ctx context.Context, params RegisterParams) (*auth.User, error) {
	var user auth.User
	if err := c.doJSON(ctx, http.MethodPost, "/v1/auth/register", params, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a token and moves the session to
// Authenticated. The cached account is fetched right after.
func (c *Client) Login(ctx context.Context, email, password string) error {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readAPIError(resp)
	}
	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return err
	}
	c.session.setToken(tok.Token, tok.ExpiresAt)

	user, err := c.Me(ctx)
	if err != nil {
		return err
	}
	c.session.setUser(user)
	return nil
}

// Logout clears the session. Safe to call in any state.
func (c *Client) Logout() {
	if c.session.clear() && c.onLogout != nil {
		c.onLogout()
	}
}

// Me returns the authenticated account.
func (c *Client) Me(ctx context.Context) (*auth.User, error) {
	var user auth.User
	if err := c.doJSON(ctx, http.MethodGet, "/v1/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ProductFilter mirrors the public listing query parameters.
type ProductFilter struct {
	Query         string
	Category      string
	MinPriceCents int64
	MaxPriceCents int64
	Limit         int
	Offset        int
}

type productListResponse struct {
	Products []*catalog.Product `json:"products"`
	Count    int                `json:"count"`
}

// ListProducts fetches active listings matching the filter.
func (c *Client) ListProducts(ctx context.Context, filter ProductFilter) ([]*catalog.Product, error) {
	q := url.Values{}
	if filter.Query != "" {
		q.Set("q", filter.Query)
	}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	if filter.MinPriceCents > 0 {
		q.Set("min_price_cents", strconv.FormatInt(filter.MinPriceCents, 10))
	}
	if filter.MaxPriceCents > 0 {
		q.Set("max_price_cents", strconv.FormatInt(filter.MaxPriceCents, 10))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}
	path := "/v1/products"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var out productListResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

// GetProduct fetches one active listing.
func (c *Client) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	var product catalog.Product
	if err := c.doJSON(ctx, http.MethodGet, "/v1/products/"+url.PathEscape(id), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProductParams carries new listing input.
type CreateProductParams struct {
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	PriceCents    int64  `json:"price_cents"`
	StockQuantity int64  `json:"stock_quantity"`
	Category      string `json:"category,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
}

// CreateProduct creates a listing owned by the authenticated seller.
func (c *Client) CreateProduct(ctx context.Context, params CreateProductParams) (*catalog.Product, error) {
	var product catalog.Product
	if err := c.doJSON(ctx, http.MethodPost, "/v1/products", params, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// MyProducts returns the authenticated seller's listings.
func (c *Client) MyProducts(ctx context.Context) ([]*catalog.Product, error) {
	var out productListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/my/products", nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

// MyStats returns the authenticated seller's inventory summary.
func (c *Client) MyStats(ctx context.Context) (catalog.Stats, error) {
	var stats catalog.Stats
	if err := c.doJSON(ctx, http.MethodGet, "/v1/my/products/stats", nil, &stats); err != nil {
		return catalog.Stats{}, err
	}
	return stats, nil
}

// doJSON performs a request with the session token attached, decodes the
// response into out and tears the session down on a 401.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// The server is the only authority on token validity. Any 401 ends
		// the session, even when several in-flight requests race here.
		if c.session.clear() && c.onLogout != nil {
			c.onLogout()
		}
		return readAPIError(resp)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func readAPIError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &payload); err != nil || payload.Error == "" {
		payload.Error = strings.TrimSpace(string(data))
		if payload.Error == "" {
			payload.Error = http.StatusText(resp.StatusCode)
		}
	}
	return &APIError{Status: resp.StatusCode, Message: payload.Error}
}
