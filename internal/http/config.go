package http

import (
	"github.com/locallib/catalog/internal/auth"
	"github.com/locallib/catalog/internal/config"
	"github.com/locallib/catalog/internal/database"
)

// RouterConfig contains all dependencies and configuration needed to create
// the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database       *database.Database
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware

	// UI paths
	TemplatesPath string
	StaticPath    string

	// List view page sizes
	Pagination config.Pagination

	// Cookie material
	CSRFSecret    []byte
	SecureCookies bool

	// Application info
	Version string
}
