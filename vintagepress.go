// Package vintagepress is the engine behind a multi-language literary
// publishing site built with Go, Echo, and SQLite. It serves poems, short
// stories, and prose in Marathi, Hindi, and English over a JSON API, with
// anonymous engagement tracking (deduplicated views, toggleable likes, share
// counts), moderated reader comments, and an admin surface for authoring and
// analytics. Frontends consume the API; vintagepress owns handlers,
// middleware, and all database operations.
package vintagepress

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/smapte/vintagepress/analytics"
)

// App is the central vintagepress application. It wires together the content
// store, the analytics store, the cache, handlers, and middleware.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	Store     *Store
	Analytics *analytics.Store
	Cache     *ContentCache

	loginLimiter   *RateLimiter
	commentLimiter *RateLimiter
	customRoutes   []func(*App)
}

// New creates a vintagepress App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the database, cache, middleware, and routes, then starts
// the server. It blocks until the server stops.
func (a *App) Start() error {
	if err := a.init(); err != nil {
		return err
	}

	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// init wires everything short of listening, split out so tests can exercise
// the full router without binding a port.
func (a *App) init() error {
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("vintagepress: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("vintagepress: SessionSecret is required")
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("vintagepress: init store: %w", err)
	}
	a.Store = store

	// The engagement ledger shares the content database so counters can
	// join posts.
	a.Analytics = analytics.NewStore(store.DB())

	a.Cache = NewContentCache(a.Store, a.Config.ContentCacheTTL)
	a.loginLimiter = NewRateLimiter(5, time.Minute)
	a.commentLimiter = NewRateLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Public API
	e.GET("/api/posts", a.handleListPosts)
	e.GET("/api/posts/featured", a.handleFeaturedPosts)
	e.GET("/api/tags", a.handleTags)
	e.GET("/api/years", a.handleYears)
	e.GET("/api/post/:slug", a.handleGetPost)
	e.GET("/api/posts/:id/like", a.handleGetLike)
	e.POST("/api/posts/:id/like", a.handleToggleLike)
	e.POST("/api/posts/:id/share", a.handleShare)
	e.POST("/api/posts/:id/comments", a.handleCreateComment)

	// Admin auth
	e.POST("/admin/login", a.handleLogin)
	e.POST("/admin/logout", a.handleLogout)

	// Admin API
	admin := e.Group("/admin", a.requireAdmin)
	admin.GET("/posts", a.handleAdminListPosts)
	admin.POST("/posts", a.handleSavePost)
	admin.DELETE("/posts/:id", a.handleDeletePost)
	admin.POST("/posts/bulk", a.handleBulkPostAction)
	admin.GET("/posts/:id/metrics", a.handlePostMetrics)
	admin.GET("/comments", a.handleListComments)
	admin.POST("/comments/:id/status", a.handleSetCommentStatus)
	admin.DELETE("/comments/:id", a.handleDeleteComment)
	admin.GET("/analytics", a.handleSiteAnalytics)
	admin.GET("/analytics/top-posts", a.handleTopPosts)
}

// httpErrorHandler renders every error as JSON. Unexpected errors are logged
// and collapsed to a generic 500 so internals never leak.
func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := "internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	} else {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	if writeErr := c.JSON(code, map[string]string{"error": msg}); writeErr != nil {
		c.Logger().Errorf("write error response: %v", writeErr)
	}
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
