// Package middleware provides the HTTP middleware chain: authentication,
// CORS and rate limiting.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/model"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/storage"
	"github.com/antoinealex/eureka-empowerment-environment/pkg/logger"
)

type contextKey string

const actorKey contextKey = "actor"

// Claims are the JWT claims issued at login.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator issues and validates HS256 tokens and resolves the bearer to
// a stored user.
type Authenticator struct {
	secret []byte
	store  storage.EntityStore
	ttl    time.Duration
	log    *logger.Logger
}

// NewAuthenticator builds an authenticator over the shared secret.
func NewAuthenticator(secret string, store storage.EntityStore, ttl time.Duration, log *logger.Logger) *Authenticator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &Authenticator{secret: []byte(secret), store: store, ttl: ttl, log: log}
}

// IssueToken signs a token for the user.
func (a *Authenticator) IssueToken(user *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			Subject:   user.ID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Required rejects requests without a valid bearer token. The rejection body
// matches the wire contract for denied access.
func (a *Authenticator) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := a.resolve(r)
		if err != nil || actor == nil {
			if err != nil {
				a.log.WithError(err).Debug("authentication rejected")
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "ACCESS_FORBIDDEN"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
	})
}

// Optional attaches the actor when a valid token is present and passes the
// request through either way.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor, err := a.resolve(r); err == nil && actor != nil {
			r = r.WithContext(context.WithValue(r.Context(), actorKey, actor))
		}
		next.ServeHTTP(w, r)
	})
}

// Actor returns the authenticated user attached to the context, or nil.
func Actor(ctx context.Context) *model.User {
	actor, _ := ctx.Value(actorKey).(*model.User)
	return actor
}

func (a *Authenticator) resolve(r *http.Request) (*model.User, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, fmt.Errorf("malformed authorization header")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	found, err := a.store.FindByCriteria(r.Context(), model.KindUser, storage.Criteria{"id": claims.UserID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("user %s no longer exists", claims.UserID)
	}
	return found[0].(*model.User), nil
}
