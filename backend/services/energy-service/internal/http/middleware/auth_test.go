package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestAuthMiddleware(t *testing.T) {
	var got Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := AuthMiddleware("s3cret")(next)

	cases := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"malformed", "Token abc", "", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signed(t, "other", jwt.MapClaims{"household_id": 1}), "", http.StatusUnauthorized},
		{"no household", "Bearer " + signed(t, "s3cret", jwt.MapClaims{"sub": "x"}), "", http.StatusUnauthorized},
		{"household", "Bearer " + signed(t, "s3cret", jwt.MapClaims{"household_id": 7}), "", http.StatusNoContent},
		{"query token", "", "?access_token=" + signed(t, "s3cret", jwt.MapClaims{"household_id": "7"}), http.StatusNoContent},
		{"admin", "Bearer " + signed(t, "s3cret", jwt.MapClaims{"role": "admin"}), "", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/forecasts/7"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, "s3cret", jwt.MapClaims{"household_id": 7}))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !got.CanAccess(7) || got.CanAccess(8) {
		t.Fatalf("unexpected access for %+v", got)
	}
}

func TestAdminCanAccessAnyHousehold(t *testing.T) {
	p := Principal{Role: RoleAdmin}
	if !p.CanAccess(1) || !p.CanAccess(99) {
		t.Fatalf("admin must access every household")
	}
	if (Principal{}).CanAccess(0) {
		t.Fatalf("anonymous principal must not access household 0")
	}
}
