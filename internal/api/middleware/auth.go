package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/example/ec-checkout/internal/auth"
)

// AccessTokenCookie carries the token for browser clients. It wins over the
// Authorization header when both are sent.
const AccessTokenCookie = "access_token"

// TokenVerifier checks an access token and returns its claims.
// *auth.JWTService satisfies it.
type TokenVerifier interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// refusal is one way a request can be turned away before reaching a handler
type refusal struct {
	status  int
	code    string
	message string
}

var (
	refuseMissingToken = refusal{http.StatusUnauthorized, "unauthorized", "missing access token"}
	refuseInvalidToken = refusal{http.StatusUnauthorized, "unauthorized", "invalid token"}
	refuseExpiredToken = refusal{http.StatusUnauthorized, "token_expired", "access token has expired"}
	refuseRole         = refusal{http.StatusForbidden, "forbidden", "insufficient role"}
)

// write renders the refusal in the API's {"error","message"} shape
func (f refusal) write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": f.code, "message": f.message})
}

func refusalFor(err error) refusal {
	if errors.Is(err, auth.ErrExpiredToken) {
		return refuseExpiredToken
	}
	return refuseInvalidToken
}

func tokenFromCookie(r *http.Request) string {
	c, err := r.Cookie(AccessTokenCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func tokenFromBearer(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

var tokenSources = []func(*http.Request) string{tokenFromCookie, tokenFromBearer}

// ExtractToken returns the first non-empty token from tokenSources
func ExtractToken(r *http.Request) string {
	for _, source := range tokenSources {
		if token := source(r); token != "" {
			return token
		}
	}
	return ""
}

// AuthMiddleware admits requests carrying a token the verifier accepts and
// puts its claims on the request context.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				refuseMissingToken.write(w)
				return
			}
			claims, err := verifier.ValidateAccessToken(token)
			if err != nil {
				refusalFor(err).write(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole admits authenticated requests whose role is one of roles.
// It must run after AuthMiddleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok {
				refuseMissingToken.write(w)
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				log.Printf("[Auth] User %s with role %q refused %s %s", claims.UserID, claims.Role, r.Method, r.URL.Path)
				refuseRole.write(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type claimsKey struct{}

// WithClaims attaches verified claims to ctx
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFrom returns the claims AuthMiddleware attached, if any
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok && claims != nil
}

// GetUserID is the authenticated user's ID, or "" outside AuthMiddleware
func GetUserID(ctx context.Context) string {
	if claims, ok := ClaimsFrom(ctx); ok {
		return claims.UserID
	}
	return ""
}
