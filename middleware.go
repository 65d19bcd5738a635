package livepress

import (
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	sessionName = "admin_session"
	sessionAuth = "authenticated"
	livePath    = "/live/"
)

// contentSecurityPolicy allows the inline page scripts and the live socket
// back to the same host.
const contentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; " +
	"style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; " +
	"connect-src 'self' ws: wss:; font-src 'self'; frame-ancestors 'none'"

// Paths served without a trailing slash.
var exactPaths = map[string]bool{
	"/blog":        true,
	"/search":      true,
	"/favicon.svg": true,
	"/sitemap.xml": true,
	"/feed.xml":    true,
	"/robots.txt":  true,
}

func isStatic(path string) bool {
	return strings.HasPrefix(path, "/public/")
}

func isFeed(path string) bool {
	return path == "/sitemap.xml" || path == "/feed.xml" || path == "/robots.txt"
}

func isPrivate(path string) bool {
	return strings.HasPrefix(path, "/admin") || path == "/login/" || path == livePath
}

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)
	e.HTTPErrorHandler = a.httpErrorHandler
	e.Logger.SetPrefix("livepress")

	e.Pre(middleware.NonWWWRedirect())

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:     true,
		LogURI:        true,
		LogMethod:     true,
		LogLatency:    true,
		LogValuesFunc: logRequest,
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:   5,
		Skipper: skipCompression,
	}))
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: contentSecurityPolicy,
		HSTSMaxAge:            31536000,
	}))
	e.Use(session.Middleware(a.newSessionStore()))
	e.Use(middleware.CSRFWithConfig(a.csrfConfig()))
	e.Use(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper:      skipTrailingSlash,
	}))
	e.Use(cacheControl)
}

func logRequest(c echo.Context, v middleware.RequestLoggerValues) error {
	if v.Status >= http.StatusInternalServerError {
		c.Logger().Errorf("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
		return nil
	}
	c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
	return nil
}

// skipCompression leaves static files and the live socket alone; the
// upgrade cannot go through a gzip writer.
func skipCompression(c echo.Context) bool {
	path := c.Request().URL.Path
	return isStatic(path) || path == livePath
}

func skipTrailingSlash(c echo.Context) bool {
	path := c.Request().URL.Path
	return strings.HasPrefix(path, "/public") || exactPaths[path]
}

func (a *App) csrfConfig() middleware.CSRFConfig {
	return middleware.CSRFConfig{
		ContextKey:     middleware.DefaultCSRFConfig.ContextKey,
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieSameSite: http.SameSiteLaxMode,
		CookieSecure:   a.Config.CookieSecure,
		ErrorHandler: func(err error, c echo.Context) error {
			return c.String(http.StatusForbidden, "Forbidden")
		},
	}
}

// cachePolicy returns the Cache-Control value for a request path. The home
// listing and search change while a page is open, so they are revalidated.
func cachePolicy(path string) string {
	switch {
	case isStatic(path):
		return "public, max-age=31536000, immutable"
	case isFeed(path):
		return "public, max-age=86400"
	case isPrivate(path):
		return "no-store"
	case path == "/", path == "/search":
		return "no-cache"
	default:
		return "public, max-age=3600"
	}
}

func cacheControl(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Cache-Control", cachePolicy(c.Request().URL.Path))
		return next(c)
	}
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 12,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// requireAdmin guards the admin group. Page loads are sent to the login
// form; script requests get a bare 401 they can act on.
func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if IsAdmin(c) {
			return next(c)
		}
		req := c.Request()
		if req.Header.Get("HX-Request") == "true" || req.Method == http.MethodDelete {
			return c.NoContent(http.StatusUnauthorized)
		}
		return c.Redirect(http.StatusSeeOther, "/login/")
	}
}

// IsAdmin reports whether the request carries a signed-in admin session.
func IsAdmin(c echo.Context) bool {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return false
	}
	auth, _ := sess.Values[sessionAuth].(bool)
	return auth
}

func setAdminSession(c echo.Context) error {
	return updateSession(c, func(s *sessions.Session) {
		s.Values[sessionAuth] = true
	})
}

func clearAdminSession(c echo.Context) error {
	return updateSession(c, func(s *sessions.Session) {
		delete(s.Values, sessionAuth)
		s.Options.MaxAge = -1
	})
}

func updateSession(c echo.Context, fn func(*sessions.Session)) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	fn(sess)
	return sess.Save(c.Request(), c.Response())
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
