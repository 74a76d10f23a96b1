package auth

import (
	"net/http/httptest"
	"testing"
)

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"bearer", map[string]string{"Authorization": "Bearer abc"}, "abc"},
		{"bearer lowercase", map[string]string{"Authorization": "bearer abc"}, "abc"},
		{"session header", map[string]string{HeaderSessionToken: "xyz"}, "xyz"},
		{"bearer wins", map[string]string{"Authorization": "Bearer abc", HeaderSessionToken: "xyz"}, "abc"},
		{"basic falls back", map[string]string{"Authorization": "Basic Zm9v", HeaderSessionToken: "xyz"}, "xyz"},
		{"none", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := TokenFromRequest(r); got != tt.want {
				t.Fatalf("TokenFromRequest() = %q, want %q", got, tt.want)
			}
		})
	}
	if TokenFromRequest(nil) != "" {
		t.Fatal("nil request must yield no token")
	}
}
