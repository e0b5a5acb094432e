// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"sync"

	authgooglefeature "github.com/dalemusser/verihub/internal/app/features/authgoogle"
	healthfeature "github.com/dalemusser/verihub/internal/app/features/health"
	hierarchyfeature "github.com/dalemusser/verihub/internal/app/features/hierarchy"
	ivrsfeature "github.com/dalemusser/verihub/internal/app/features/ivrs"
	loginfeature "github.com/dalemusser/verihub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/verihub/internal/app/features/logout"
	salespeoplefeature "github.com/dalemusser/verihub/internal/app/features/salespeople"
	"github.com/dalemusser/verihub/internal/app/store/audit"
	hierarchystore "github.com/dalemusser/verihub/internal/app/store/hierarchy"
	ivrstore "github.com/dalemusser/verihub/internal/app/store/ivrs"
	salespersonstore "github.com/dalemusser/verihub/internal/app/store/salespeople"
	userstore "github.com/dalemusser/verihub/internal/app/store/users"
	"github.com/dalemusser/verihub/internal/app/system/auditlog"
	"github.com/dalemusser/verihub/internal/app/system/auth"
	"github.com/dalemusser/verihub/internal/app/system/hierarchy"
	"github.com/dalemusser/verihub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Background workers started by BuildHandler, stopped from Shutdown.
var (
	workersMu   sync.Mutex
	sweepWorker *workers.RegistrySweep
)

func stopWorkers() {
	workersMu.Lock()
	defer workersMu.Unlock()
	if sweepWorker != nil {
		sweepWorker.Stop()
		sweepWorker = nil
	}
}

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It wires the stores, the hierarchy
// resolver/registry, the audit logger, and the session middleware, then
// mounts a feature router per URL area.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Stores.
	users := userstore.New(db)
	ivrs := ivrstore.New(db)
	salespeople := salespersonstore.New(db)
	hierStore := hierarchystore.New(db)
	auditStore := audit.New(db)

	// Set up the UserFetcher so LoadSessionUser fetches fresh user data on
	// each request. Role changes and disabled accounts take effect
	// immediately instead of at next sign-in.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(users))

	// Audit logger with per-category destinations.
	auditLog := auditlog.New(auditStore, logger, auditlog.Config{
		Auth:   appCfg.AuditLogAuth,
		Access: appCfg.AuditLogAccess,
		Admin:  appCfg.AuditLogAdmin,
	})

	// Hierarchy engine: resolver walks the stored tree, registry caches
	// per-user results with single-flight + TTL.
	resolver := hierarchy.NewResolver(hierStore, logger)
	registry := hierarchy.NewRegistry(resolver, appCfg.HierarchyCacheTTL, logger)

	workersMu.Lock()
	sweepWorker = workers.NewRegistrySweep(registry, logger, appCfg.RegistrySweepInterval)
	sweepWorker.Start()
	workersMu.Unlock()

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(users, sessionMgr, auditLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	googleHandler := authgooglefeature.NewHandler(users, sessionMgr, auditLog,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, appCfg.SessionKey, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Hierarchy-filtered record listings
	ivrsHandler := ivrsfeature.NewHandler(ivrs, registry, auditLog, logger)
	r.Mount("/ivrs", ivrsfeature.Routes(ivrsHandler))

	salespeopleHandler := salespeoplefeature.NewHandler(salespeople, registry, auditLog, logger)
	r.Mount("/salespeople", salespeoplefeature.Routes(salespeopleHandler))

	// Hierarchy inspection + cache control
	hierHandler := hierarchyfeature.NewHandler(registry, hierStore, auditLog, logger)
	r.Mount("/hierarchy", hierarchyfeature.Routes(hierHandler))

	return r, nil
}
