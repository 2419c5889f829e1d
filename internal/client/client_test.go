package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazarly.org/internal/auth"
	"bazarly.org/internal/client"
)

// fakeAPI is a scripted server standing in for the real API.
type fakeAPI struct {
	mu         sync.Mutex
	validToken string
	user       auth.User
	rejectAll  bool
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostFormValue("username") != f.user.Email || r.PostFormValue("password") != "secret-password" {
			f.unauthorized(w)
			return
		}
		f.mu.Lock()
		f.validToken = "token-" + time.Now().Format("150405.000000")
		token := f.validToken
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token":      token,
			"token_type": "bearer",
			"expires_at": time.Now().Add(30 * time.Minute),
		})
	})
	mux.HandleFunc("GET /v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		ok := !f.rejectAll && r.Header.Get("Authorization") == "Bearer "+f.validToken && f.validToken != ""
		f.mu.Unlock()
		if !ok {
			f.unauthorized(w)
			return
		}
		_ = json.NewEncoder(w).Encode(f.user)
	})
	mux.HandleFunc("GET /v1/products", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"products": []map[string]any{{"id": "p1", "title": "Lamp", "price_cents": 100}},
			"count":    1,
		})
	})
	return mux
}

func (f *fakeAPI) unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid token"})
}

func (f *fakeAPI) revoke() {
	f.mu.Lock()
	f.rejectAll = true
	f.mu.Unlock()
}

func newFakeAPI(t *testing.T) (*fakeAPI, string) {
	t.Helper()
	api := &fakeAPI{user: auth.User{ID: "u1", Email: "alice@example.com", Role: auth.RoleBuyer, IsActive: true}}
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)
	return api, server.URL
}

func TestLoginMovesSessionToAuthenticated(t *testing.T) {
	_, baseURL := newFakeAPI(t)
	c := client.New(baseURL)

	assert.Equal(t, client.StateAnonymous, c.State())

	require.NoError(t, c.Login(context.Background(), "alice@example.com", "secret-password"))
	assert.Equal(t, client.StateAuthenticated, c.State())

	user := c.Session().User()
	require.NotNil(t, user)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.True(t, c.Session().ExpiresAt().After(time.Now()))
}

func TestLoginFailureStaysAnonymous(t *testing.T) {
	_, baseURL := newFakeAPI(t)
	c := client.New(baseURL)

	err := c.Login(context.Background(), "alice@example.com", "wrong-password")
	require.Error(t, err)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, client.StateAnonymous, c.State())
}

func TestServer401TearsDownSession(t *testing.T) {
	api, baseURL := newFakeAPI(t)

	var logouts atomic.Int32
	c := client.New(baseURL, client.WithLogoutHook(func() {
		logouts.Add(1)
	}))

	require.NoError(t, c.Login(context.Background(), "alice@example.com", "secret-password"))
	require.Equal(t, client.StateAuthenticated, c.State())

	// The server starts rejecting the token; the next call ends the session.
	api.revoke()
	_, err := c.Me(context.Background())
	require.Error(t, err)

	assert.Equal(t, client.StateAnonymous, c.State())
	assert.Nil(t, c.Session().User())
	assert.Empty(t, c.Session().Token())
	assert.EqualValues(t, 1, logouts.Load())

	// A second 401 must not fire the hook again.
	_, err = c.Me(context.Background())
	require.Error(t, err)
	assert.EqualValues(t, 1, logouts.Load())
}

func TestConcurrent401TeardownFiresHookOnce(t *testing.T) {
	api, baseURL := newFakeAPI(t)

	var logouts atomic.Int32
	c := client.New(baseURL, client.WithLogoutHook(func() {
		logouts.Add(1)
	}))
	require.NoError(t, c.Login(context.Background(), "alice@example.com", "secret-password"))
	api.revoke()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Me(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, client.StateAnonymous, c.State())
	assert.EqualValues(t, 1, logouts.Load())
}

func TestLogoutIsIdempotent(t *testing.T) {
	_, baseURL := newFakeAPI(t)

	var logouts atomic.Int32
	c := client.New(baseURL, client.WithLogoutHook(func() {
		logouts.Add(1)
	}))

	// Logging out while anonymous is a no-op.
	c.Logout()
	assert.EqualValues(t, 0, logouts.Load())

	require.NoError(t, c.Login(context.Background(), "alice@example.com", "secret-password"))
	c.Logout()
	c.Logout()
	assert.Equal(t, client.StateAnonymous, c.State())
	assert.EqualValues(t, 1, logouts.Load())
}

func TestAnonymousRequestsCarryNoBearer(t *testing.T) {
	var sawAuth atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			sawAuth.Store(true)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"products": nil, "count": 0})
	}))
	t.Cleanup(server.Close)

	c := client.New(server.URL)
	_, err := c.ListProducts(context.Background(), client.ProductFilter{Query: "lamp"})
	require.NoError(t, err)
	assert.False(t, sawAuth.Load(), "anonymous calls must not send Authorization")
}

func TestListProducts(t *testing.T) {
	_, baseURL := newFakeAPI(t)
	c := client.New(baseURL)

	products, err := c.ListProducts(context.Background(), client.ProductFilter{Query: "lamp", Limit: 10})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Lamp", products[0].Title)
}
