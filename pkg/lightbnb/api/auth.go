package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
)

// TokenCookie is the cookie carrying the session token. jwtauth.Verifier
// reads the same name.
const TokenCookie = "jwt"

// TokenAuth issues and verifies HS256 session tokens. The subject claim
// holds the user id.
type TokenAuth struct {
	ja  *jwtauth.JWTAuth
	ttl time.Duration
}

// NewTokenAuth creates a TokenAuth signing with secret.
func NewTokenAuth(secret string, ttl time.Duration) *TokenAuth {
	return &TokenAuth{
		ja:  jwtauth.New("HS256", []byte(secret), nil),
		ttl: ttl,
	}
}

// Issue returns a signed token for userID.
func (a *TokenAuth) Issue(userID int64) (string, error) {
	claims := map[string]interface{}{
		"sub": strconv.FormatInt(userID, 10),
		"jti": uuid.NewString(),
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, a.ttl)

	_, token, err := a.ja.Encode(claims)
	return token, err
}

// Verifier finds a token in the Authorization header or the jwt cookie and
// verifies it. Use RequireUser after it to reject anonymous requests.
func (a *TokenAuth) Verifier() func(http.Handler) http.Handler {
	return jwtauth.Verifier(a.ja)
}

type contextKey int

const userIDKey contextKey = iota

var errUnauthorized = errors.New("not logged in")

// RequireUser rejects requests without a valid token and stores the user id
// in the request context.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			writeError(w, r, errUnauthorized)
			return
		}

		sub, _ := claims["sub"].(string)
		userID, err := strconv.ParseInt(sub, 10, 64)
		if err != nil || userID <= 0 {
			writeError(w, r, errUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

// UserIDFromContext returns the id stored by RequireUser.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

func (h *Handler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.auth.ttl),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
