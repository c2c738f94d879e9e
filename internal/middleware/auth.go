package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ecomonitor/aquamap/internal/domain"
)

// Claims is the bearer token payload. Tokens are minted by the login
// collaborator; this service only verifies them.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// UserLookup loads the account behind a token. repo.UserRepo satisfies it.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (domain.User, error)
}

type userKey struct{}

// NewIdentity returns a middleware that resolves the caller from an
// "Authorization: Bearer <jwt>" header and stores the user in the request
// context. Requests without the header pass through anonymously; a header
// carrying a bad token, or a token for an unknown or inactive user, is
// rejected with 401.
func NewIdentity(secret string, users UserLookup) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			token := bearerFromHeader(header)
			if token == "" {
				writeUnauthorized(w, "malformed authorization header")
				return
			}

			claims := &Claims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (any, error) {
				return key, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !parsed.Valid {
				writeUnauthorized(w, "invalid token")
				return
			}

			u, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if !errors.Is(err, domain.ErrNotFound) {
					slog.ErrorContext(r.Context(), "identity lookup failed", "user_id", claims.UserID, "error", err)
				}
				writeUnauthorized(w, "unknown user")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// RequireUser rejects anonymous requests with 401. Wire it after NewIdentity.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			writeUnauthorized(w, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the authenticated caller, if any.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userKey{}).(domain.User)
	return u, ok
}

// NewToken signs an HS256 token for userID valid for ttl.
func NewToken(secret string, userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, "unauthorized", message)
}

// writeError writes the API's JSON error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]map[string]string{
		"error": {"code": code, "message": message},
	})
}
