// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level, and request limits. AppConfig is where
// everything specific to VeriHub lives.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: verihub-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Base URL for OAuth callbacks
	BaseURL string // e.g., "https://verihub.example.com" or "http://localhost:3000"

	// Hierarchy cache configuration
	HierarchyCacheTTL     time.Duration // how long a resolved hierarchy stays fresh
	RegistrySweepInterval time.Duration // how often the sweep worker drops expired entries

	// Audit logging settings ("all", "db", "log", "off")
	AuditLogAuth   string
	AuditLogAccess string
	AuditLogAdmin  string

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string
}
