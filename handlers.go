package livepress

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/livepress/content"
	"github.com/eringen/livepress/live"
	"github.com/eringen/livepress/views"
)

// listing caps a state to what the page shows.
func listing(s live.State) views.Listing {
	return views.Listing{
		Featured: s.Featured,
		Items:    s.Visible(),
		HasMore:  s.HasMore(),
		Loading:  s.InitialLoading,
	}
}

func (a *App) handleHome(c echo.Context) error {
	state := live.State{
		PageSize: a.Config.PageSize,
		Expanded: c.QueryParam("all") == "1",
	}
	code := http.StatusOK
	view, err := a.Loader.LoadContentView(c.Request().Context())
	var l views.Listing
	switch {
	case err == nil:
		state.Featured = view.Featured
		state.Items = view.Items
		l = listing(state)
	case isFetchFailure(err):
		c.Logger().Errorf("home: %v", err)
		code = http.StatusServiceUnavailable
		l = views.Listing{Notice: live.LoadErrorMessage}
	default:
		return err
	}
	if c.Request().Header.Get("HX-Request") == "true" && c.QueryParam("partial") == "content" {
		return RenderStatus(c, code, a.Views.ContentSection(l))
	}
	return RenderStatus(c, code, a.Views.Home(a.Config.View(), l))
}

func (a *App) handlePost(c echo.Context) error {
	rec, err := a.Loader.LoadRecord(c.Request().Context(), c.Param("slug"))
	if errors.Is(err, content.ErrNotFound) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.Config.View()))
	}
	if err != nil {
		return err
	}
	return Render(c, a.Views.Post(a.Config.View(), rec))
}

type searchError struct {
	Error string `json:"error"`
}

func (a *App) handleSearch(c echo.Context) error {
	q := c.QueryParam("q")
	hits, err := a.Searcher.Search(c.Request().Context(), q)
	htmx := c.Request().Header.Get("HX-Request") == "true"
	var sf *content.SearchFailure
	switch {
	case errors.As(err, &sf):
		c.Logger().Errorf("search: %v", err)
		if htmx {
			return RenderStatus(c, http.StatusBadGateway, a.Views.SearchResults(q, nil, true))
		}
		return c.JSON(http.StatusBadGateway, searchError{Error: "search unavailable"})
	case err != nil:
		return err
	}
	if htmx {
		return Render(c, a.Views.SearchResults(q, hits, false))
	}
	return c.JSON(http.StatusOK, hits)
}

func (a *App) handleSitemap(c echo.Context) error {
	recs, err := a.allRecords(c)
	if err != nil {
		return err
	}
	return a.renderSitemap(c, recs)
}

func (a *App) handleFeed(c echo.Context) error {
	recs, err := a.allRecords(c)
	if err != nil {
		return err
	}
	return a.renderRSS(c, recs)
}

// allRecords returns the featured record followed by the list.
func (a *App) allRecords(c echo.Context) ([]content.Record, error) {
	view, err := a.Loader.LoadContentView(c.Request().Context())
	if err != nil {
		return nil, err
	}
	recs := make([]content.Record, 0, len(view.Items)+1)
	if view.Featured != nil {
		recs = append(recs, *view.Featured)
	}
	return append(recs, view.Items...), nil
}

func handleBlogRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/")
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nDisallow: /admin/\nDisallow: /login/\nSitemap: " + strings.TrimRight(a.Config.URL, "/") + "/sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func isFetchFailure(err error) bool {
	var ff *content.FetchFailure
	return errors.As(err, &ff)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.Config.View()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		msg := ""
		if isFetchFailure(err) {
			msg = "The content store is unavailable."
		}
		_ = RenderStatus(c, code, a.Views.ServerError(a.Config.View(), msg))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
