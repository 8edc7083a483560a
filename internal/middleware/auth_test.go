package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/model"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/storage/memory"
)

func TestRequiredRejectsMissingToken(t *testing.T) {
	auth := NewAuthenticator("secret", memory.New(), time.Hour, nil)
	handler := auth.Required(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler reached without a token")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ACCESS_FORBIDDEN") {
		t.Fatalf("body %s", w.Body.String())
	}
}

func TestRequiredResolvesActor(t *testing.T) {
	store := memory.New()
	user := &model.User{ID: "u1", Email: "ada@example.com"}
	if err := store.Save(context.Background(), user); err != nil {
		t.Fatalf("save: %v", err)
	}
	auth := NewAuthenticator("secret", store, time.Hour, nil)
	token, err := auth.IssueToken(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var seen *model.User
	handler := auth.Required(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = Actor(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if seen == nil || seen.ID != "u1" {
		t.Fatalf("actor not resolved: %#v", seen)
	}
}

func TestRequiredRejectsDeletedUser(t *testing.T) {
	store := memory.New()
	user := &model.User{ID: "ghost"}
	auth := NewAuthenticator("secret", store, time.Hour, nil)
	token, err := auth.IssueToken(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	handler := auth.Required(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler reached for a deleted user")
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status %d", w.Code)
	}
}

func TestRequiredRejectsForgedToken(t *testing.T) {
	store := memory.New()
	user := &model.User{ID: "u1"}
	if err := store.Save(context.Background(), user); err != nil {
		t.Fatalf("save: %v", err)
	}
	forger := NewAuthenticator("other-secret", store, time.Hour, nil)
	token, err := forger.IssueToken(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	auth := NewAuthenticator("secret", store, time.Hour, nil)
	handler := auth.Required(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler reached with a forged token")
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status %d", w.Code)
	}
}

func TestOptionalPassesAnonymous(t *testing.T) {
	auth := NewAuthenticator("secret", memory.New(), time.Hour, nil)
	var called bool
	handler := auth.Optional(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		called = true
		if Actor(r.Context()) != nil {
			t.Fatal("unexpected actor")
		}
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatal("handler not reached")
	}
}

func TestRateLimiterThrottles(t *testing.T) {
	rl := NewRateLimiter(1, 2, nil)
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last int
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(w, r)
		last = w.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected throttle, got %d", last)
	}
}
