package chi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/domain"
)

type ctxKey int

const requesterKey ctxKey = iota

// Claims carries the identity fields the service reads from a bearer token.
type Claims struct {
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	jwt.RegisteredClaims
}

// RequesterMiddleware resolves the caller identity from a Bearer JWT signed
// with the shared HMAC secret. Absent or invalid tokens degrade to a
// per-client guest identity so rate limiting still applies.
func RequesterMiddleware(secret []byte, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requester := guestRequester(r)

			const bearerPrefix = "Bearer "
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, bearerPrefix) && len(secret) > 0 {
				parsed, err := parseToken(auth[len(bearerPrefix):], secret)
				if err != nil {
					logger.Warn("Rejected bearer token", zap.Error(err))
				} else {
					requester = parsed
				}
			}

			ctx := context.WithValue(r.Context(), requesterKey, requester)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequesterFrom returns the identity resolved by RequesterMiddleware.
func RequesterFrom(ctx context.Context) domain.Requester {
	if requester, ok := ctx.Value(requesterKey).(domain.Requester); ok {
		return requester
	}
	return domain.Guest("unknown")
}

func parseToken(raw string, secret []byte) (domain.Requester, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		return domain.Requester{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return domain.Requester{}, fmt.Errorf("token has no subject")
	}
	return domain.Requester{
		ID:         claims.Subject,
		Role:       domain.ParseRole(claims.Role),
		Department: claims.Department,
	}, nil
}

// guestRequester derives a stable anonymous identity from the client address
// so each client gets its own guest rate window.
func guestRequester(r *http.Request) domain.Requester {
	addr := r.Header.Get("X-Forwarded-For")
	if addr != "" {
		if i := strings.IndexByte(addr, ','); i >= 0 {
			addr = addr[:i]
		}
		addr = strings.TrimSpace(addr)
	} else {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		addr = host
	}

	sum := sha256.Sum256([]byte(addr))
	return domain.Guest(hex.EncodeToString(sum[:8]))
}
