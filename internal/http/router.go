package http

import (
	"html/template"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/locallib/catalog/internal/auth"
	"github.com/locallib/catalog/internal/database/authors"
	"github.com/locallib/catalog/internal/database/books"
	"github.com/locallib/catalog/internal/database/genres"
	"github.com/locallib/catalog/internal/database/instances"
	"github.com/locallib/catalog/internal/entities"
)

// NewRouter builds the HTTP router with all routes and middleware configured.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(auth.SecurityHeadersMiddleware())
	router.Use(cfg.SessionManager.SessionLoadSave())
	router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	router.Use(cfg.AuthMiddleware.LoadUser())

	router.SetFuncMap(template.FuncMap{
		"formatDate": formatDate,
		"deref": func(p *uint) uint {
			if p == nil {
				return 0
			}
			return *p
		},
	})
	router.LoadHTMLGlob(filepath.Join(cfg.TemplatesPath, "*.html"))
	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	}

	booksRepo := books.NewRepository(cfg.Database.DB)
	authorsRepo := authors.NewRepository(cfg.Database.DB)
	genresRepo := genres.NewRepository(cfg.Database.DB)
	instancesRepo := instances.NewRepository(cfg.Database.DB)

	dashboard := NewDashboardController(booksRepo, instancesRepo, authorsRepo, genresRepo, cfg.SessionManager)
	booksCtrl := NewBooksController(booksRepo, authorsRepo, genresRepo, cfg.Pagination.BooksPerPage)
	authorsCtrl := NewAuthorsController(authorsRepo, cfg.Pagination.AuthorsPerPage)
	loansCtrl := NewLoansController(instancesRepo, cfg.Pagination.LoansPerPage)
	adminCtrl := NewAdminController(booksRepo, authorsRepo, genresRepo, instancesRepo, cfg.AuthService)
	health := NewHealthController(cfg.Database, cfg.Version)

	authCtrl, err := auth.NewController(cfg.AuthService, cfg.SessionManager, cfg.TemplatesPath)
	if err != nil {
		return nil, err
	}
	authCtrl.RegisterRoutes(router)

	requireAuth := cfg.AuthMiddleware.RequireAuth()
	requireLibrarian := cfg.AuthMiddleware.RequirePermission(entities.PermissionMarkReturned)

	// Every catalog page sits behind a login; only the health endpoint and
	// the auth pages themselves are reachable anonymously.
	router.GET("/", requireAuth, dashboard.Index)
	router.GET("/health", health.Check)

	router.GET("/books/", requireAuth, booksCtrl.List)
	router.GET("/authors/", requireAuth, authorsCtrl.List)

	// The create pages share the :id position with the detail pages, which
	// the router cannot express as separate static routes. A single handler
	// dispatches on the parameter value and runs the librarian gate manually
	// for the create branch.
	router.GET("/book/:id", requireAuth, func(c *gin.Context) {
		if c.Param("id") == "create" {
			requireLibrarian(c)
			if c.IsAborted() {
				return
			}
			booksCtrl.CreateForm(c)
			return
		}
		booksCtrl.Detail(c)
	})
	router.POST("/book/:id", requireAuth, func(c *gin.Context) {
		if c.Param("id") == "create" {
			requireLibrarian(c)
			if c.IsAborted() {
				return
			}
			booksCtrl.Create(c)
			return
		}
		renderNotFound(c)
	})
	router.GET("/book/:id/update", requireLibrarian, booksCtrl.UpdateForm)
	router.POST("/book/:id/update", requireLibrarian, booksCtrl.Update)
	router.GET("/book/:id/delete", requireLibrarian, booksCtrl.DeleteConfirm)
	router.POST("/book/:id/delete", requireLibrarian, booksCtrl.Delete)

	// Loan renewal addresses the copy by its UUID in the same position.
	router.GET("/book/:id/renew", requireLibrarian, loansCtrl.RenewForm)
	router.POST("/book/:id/renew", requireLibrarian, loansCtrl.Renew)

	router.GET("/author/:id", requireAuth, func(c *gin.Context) {
		if c.Param("id") == "create" {
			requireLibrarian(c)
			if c.IsAborted() {
				return
			}
			authorsCtrl.CreateForm(c)
			return
		}
		authorsCtrl.Detail(c)
	})
	router.POST("/author/:id", requireAuth, func(c *gin.Context) {
		if c.Param("id") == "create" {
			requireLibrarian(c)
			if c.IsAborted() {
				return
			}
			authorsCtrl.Create(c)
			return
		}
		renderNotFound(c)
	})
	router.GET("/author/:id/update", requireLibrarian, authorsCtrl.UpdateForm)
	router.POST("/author/:id/update", requireLibrarian, authorsCtrl.Update)
	router.GET("/author/:id/delete", requireLibrarian, authorsCtrl.DeleteConfirm)
	router.POST("/author/:id/delete", requireLibrarian, authorsCtrl.Delete)

	router.GET("/mybooks/", requireAuth, loansCtrl.MyBooks)
	router.GET("/allborrowedbooks/", requireLibrarian, loansCtrl.AllBorrowed)

	admin := router.Group("/admin", cfg.AuthMiddleware.RequireStaff())
	adminCtrl.RegisterRoutes(admin)

	return router, nil
}
