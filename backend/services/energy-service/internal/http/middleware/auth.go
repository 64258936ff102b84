package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const principalKey contextKey = "principal"

// RoleAdmin may access every household.
const RoleAdmin = "admin"

// Principal is the authenticated caller.
type Principal struct {
	Subject     string
	HouseholdID int64
	Role        string
}

// CanAccess reports whether the caller may read or write the household.
func (p Principal) CanAccess(householdID int64) bool {
	return p.Role == RoleAdmin || (p.HouseholdID != 0 && p.HouseholdID == householdID)
}

// IsAdmin reports whether the caller has the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// AuthMiddleware validates HS256 bearer tokens. Browsers cannot set headers on websocket
// upgrades, so the access_token query parameter is accepted when the header is absent.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenInvalidClaims
				}
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "invalid token claims", http.StatusUnauthorized)
				return
			}

			principal := Principal{}
			principal.Subject, _ = claims.GetSubject()
			principal.Role, _ = claims["role"].(string)
			householdID, err := extractHouseholdID(claims)
			if err != nil && principal.Role != RoleAdmin {
				http.Error(w, "household id not found", http.StatusUnauthorized)
				return
			}
			principal.HouseholdID = householdID

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if q := strings.TrimSpace(r.URL.Query().Get("access_token")); q != "" {
			return q, true
		}
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func extractHouseholdID(claims jwt.MapClaims) (int64, error) {
	switch v := claims["household_id"].(type) {
	case float64:
		return int64(v), nil
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, err
		}
		return id, nil
	default:
		return 0, fmt.Errorf("household_id not present")
	}
}

// WithPrincipal stores the caller in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the caller from request context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
