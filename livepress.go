// Package livepress is a server-rendered blog whose landing page stays in
// sync with the content store while it is open.
//
// The App wires the SQLite content store, the live view coordinator, the
// Echo handlers, and the page components together. Pages are provided by
// ViewFuncs; DefaultViews returns the stock ones from package views.
package livepress

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/eringen/livepress/content"
	"github.com/eringen/livepress/views"
)

// ViewFuncs holds the components the handlers render. Replace any of them
// with WithViews to restyle the site.
type ViewFuncs struct {
	Home           func(cfg views.SiteConfig, l views.Listing) templ.Component
	ContentSection func(l views.Listing) templ.Component
	Post           func(cfg views.SiteConfig, r content.Record) templ.Component
	NotFound       func(cfg views.SiteConfig) templ.Component
	ServerError    func(cfg views.SiteConfig, msg string) templ.Component
	SearchResults  func(query string, hits []content.SearchHit, failed bool) templ.Component
	Login          func(cfg views.SiteConfig, showError bool, csrfToken string) templ.Component
	AdminDashboard func(cfg views.SiteConfig, records []content.Record, message, csrfToken string) templ.Component
	AdminForm      func(cfg views.SiteConfig, r content.Record, isNew bool, csrfToken string) templ.Component
	AdminImages    func(cfg views.SiteConfig, images []views.Image, csrfToken string) templ.Component
}

// DefaultViews returns the components from package views.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Home:           views.Home,
		ContentSection: views.ContentSection,
		Post:           views.Post,
		NotFound:       views.NotFound,
		ServerError:    views.ServerError,
		SearchResults:  views.SearchResults,
		Login:          views.Login,
		AdminDashboard: views.AdminDashboard,
		AdminForm:      views.AdminForm,
		AdminImages:    views.AdminImages,
	}
}

// Loader reads the listing and single records. *content.Fetcher implements it.
type Loader interface {
	LoadContentView(ctx context.Context) (content.View, error)
	LoadRecord(ctx context.Context, slug string) (content.Record, error)
}

// Searcher resolves title searches. *content.Resolver implements it.
type Searcher interface {
	Search(ctx context.Context, query string) ([]content.SearchHit, error)
}

// App is the central livepress application.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Views  ViewFuncs

	// Store, Loader, Searcher and Notifier are filled in by Setup unless set
	// beforehand.
	Store    *content.Store
	Loader   Loader
	Searcher Searcher
	Notifier content.Notifier

	loginLimiter *LoginLimiter
	upgrader     websocket.Upgrader
	liveTimeouts liveTimeouts
	customRoutes []func(*App)
	staticDir    string
}

// New creates a new App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:       cfg,
		Echo:         echo.New(),
		Views:        DefaultViews(),
		staticDir:    "public",
		liveTimeouts: defaultLiveTimeouts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup opens the store and registers middleware and routes. Start calls it;
// tests call it directly and drive a.Echo with httptest.
func (a *App) Setup() error {
	a.Echo.HideBanner = true
	a.Echo.Logger.SetLevel(parseLevel(a.Config.LogLevel))

	// Admin writes, the feed, the sitemap and seeding go through the store
	// even when reads come from injected sources.
	if a.Store == nil {
		store, err := content.NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("livepress: init store: %w", err)
		}
		a.Store = store
	}
	if a.Loader == nil {
		a.Loader = content.NewFetcher(a.Store)
	}
	if a.Searcher == nil {
		a.Searcher = content.NewResolver(a.Store)
	}
	if a.Notifier == nil {
		a.Notifier = a.Store.Changes()
	}

	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start validates the configuration, sets the app up and serves until the
// server is shut down.
func (a *App) Start() error {
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("livepress: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("livepress: SessionSecret is required")
	}
	if err := a.Setup(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/blog", handleBlogRedirect)
	e.GET("/", a.handleHome)
	e.GET("/blog/:slug/", a.handlePost)
	e.GET("/search", a.handleSearch)
	e.GET("/live/", a.handleLive)

	e.GET("/login/", a.handleLoginForm)
	e.POST("/login/", a.handleLogin)

	// Admin routes
	admin := e.Group("/admin", requireAdmin)
	admin.GET("/", a.handleAdmin)
	admin.GET("/create/", a.handleAdminCreate)
	admin.GET("/post/:slug/", a.handleAdminPost)
	admin.POST("/save/", a.handleAdminSave)
	admin.DELETE("/post/:slug/", a.handleAdminDelete)
	admin.POST("/logout/", handleLogout)
	admin.GET("/images/", a.handleImageList)
	admin.POST("/images/", a.handleImageUpload)
	admin.DELETE("/images/:filename/", a.handleImageDelete)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("livepress: required environment variable %s is not set", key)
	}
	return v
}
