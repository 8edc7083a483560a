// Package app composes the request pipeline, storage, middleware and HTTP
// surface into a running application. It carries no business rules itself.
package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/assets"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/audit"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/following"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/httpapi"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/pipeline"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/response"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/storage"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/storage/memory"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/storage/postgres"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/validation"
	"github.com/antoinealex/eureka-empowerment-environment/internal/config"
	"github.com/antoinealex/eureka-empowerment-environment/internal/middleware"
	"github.com/antoinealex/eureka-empowerment-environment/pkg/logger"
)

// Options override the pieces an application is built from. Nil fields fall
// back to what the configuration implies.
type Options struct {
	Store     storage.EntityStore
	Rules     validation.RuleProvider
	Sanitizer pipeline.Sanitizer
}

// Application ties the layers together.
type Application struct {
	cfg     *config.Config
	log     *logger.Logger
	handler http.Handler

	Store storage.EntityStore
	Audit *audit.Log
}

// New builds a fully wired application. With no database URL configured the
// in-memory store is used.
func New(cfg *config.Config, opts Options, log *logger.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.NewDefault("app")
	}

	store := opts.Store
	if store == nil {
		if cfg.DatabaseURL != "" {
			pg, err := postgres.Open(cfg.DatabaseURL)
			if err != nil {
				return nil, fmt.Errorf("open database: %w", err)
			}
			store = pg
			log.Info("using postgres storage")
		} else {
			store = memory.New()
			log.Warn("no database configured, using in-memory storage")
		}
	}

	sink, err := audit.NewFileSink(cfg.AuditLog)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	auditLog := audit.NewLog(0, sink)

	assetStore := assets.New(cfg.StorageRoot, cfg.AllowedMime, log.WithField("component", "assets"))
	pipe := pipeline.New(store, validation.New(opts.Rules), assetStore, opts.Sanitizer, log.WithField("component", "pipeline"))
	ledger := following.NewLedger(log.WithField("component", "following"))
	auth := middleware.NewAuthenticator(cfg.JWTSecret, store, 24*time.Hour, log.WithField("component", "auth"))
	builder := response.New(auditLog, log.WithField("component", "response"))
	handler := httpapi.New(pipe, ledger, store, auth, builder, log.WithField("component", "httpapi"))

	chain := handler.Router()
	if cfg.RateLimit > 0 {
		chain = middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, log.WithField("component", "ratelimit")).Handler(chain)
	}
	chain = middleware.NewCORS(cfg.AllowedOrigins).Handler(chain)

	return &Application{
		cfg:     cfg,
		log:     log,
		handler: chain,
		Store:   store,
		Audit:   auditLog,
	}, nil
}

// Handler returns the HTTP surface with the middleware chain applied.
func (a *Application) Handler() http.Handler { return a.handler }

// ListenAddr returns the configured bind address.
func (a *Application) ListenAddr() string { return a.cfg.Listen }
