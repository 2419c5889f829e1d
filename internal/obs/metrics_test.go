package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                   "/",
		"/metrics":                           "/metrics",
		"/v1/products":                       "/v1/products",
		"/v1/products?limit=10":              "/v1/products",
		"/v1/products/01J3ZC":                "/v1/products/:id",
		"/v1/products/01J3ZC/activate":       "/v1/products/:id/activate",
		"/v1/products/events":                "/v1/products/events",
		"/v1/my/products":                    "/v1/my/products",
		"/v1/admin/users":                    "/v1/admin/users",
		"/v1/admin/users/abc/role":           "/v1/admin/users/:id/role",
		"/v1/auth/login":                     "/v1/auth/login",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
