package livepress

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/livepress/content"
)

func (a *App) handleLoginForm(c echo.Context) error {
	if IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return Render(c, a.Views.Login(a.Config.View(), false, CsrfToken(c)))
}

func (a *App) handleLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if a.Config.AdminPassword != "" &&
		subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		a.loginLimiter.Reset(ip)
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	c.Logger().Warnf("failed login from %s", ip)
	return RenderStatus(c, http.StatusUnauthorized, a.Views.Login(a.Config.View(), true, CsrfToken(c)))
}

func handleLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/login/")
}

func (a *App) handleAdmin(c echo.Context) error {
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminCreate(c echo.Context) error {
	return Render(c, a.Views.AdminForm(a.Config.View(), content.Record{}, true, CsrfToken(c)))
}

func (a *App) handleAdminPost(c echo.Context) error {
	rec, err := a.Loader.LoadRecord(c.Request().Context(), c.Param("slug"))
	if errors.Is(err, content.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminForm(a.Config.View(), rec, false, CsrfToken(c)))
}

func (a *App) handleAdminSave(c echo.Context) error {
	if err := c.Request().ParseForm(); err != nil {
		return err
	}
	title := strings.TrimSpace(c.FormValue("title"))
	slug := strings.TrimSpace(c.FormValue("slug"))
	if slug == "" {
		slug = Slugify(title)
	}
	if title == "" || slug == "" {
		return redirectWithMsg(c, "Title is required.")
	}
	date := strings.TrimSpace(c.FormValue("date"))
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return redirectWithMsg(c, "Invalid date format. Use YYYY-MM-DD.")
	}
	readTime := 0
	if v := strings.TrimSpace(c.FormValue("read_time")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return redirectWithMsg(c, "Read time must be a whole number of minutes.")
		}
		readTime = n
	}
	rec := content.Record{
		ID:       strings.TrimSpace(c.FormValue("id")),
		Title:    title,
		Slug:     slug,
		Excerpt:  strings.TrimSpace(c.FormValue("excerpt")),
		Content:  c.FormValue("content"),
		Image:    strings.TrimSpace(c.FormValue("image")),
		Author:   strings.TrimSpace(c.FormValue("author")),
		Category: strings.TrimSpace(c.FormValue("category")),
		Date:     date,
		ReadTime: readTime,
		Featured: c.FormValue("featured") != "",
	}
	_, err := a.Store.Save(c.Request().Context(), &rec)
	switch {
	case errors.Is(err, content.ErrDuplicateSlug):
		return redirectWithMsg(c, "Another post already uses that slug.")
	case errors.Is(err, content.ErrSlugImmutable):
		return redirectWithMsg(c, "The slug of a published post cannot change.")
	case err != nil:
		return err
	}
	return redirectWithMsg(c, "Saved.")
}

func (a *App) handleAdminDelete(c echo.Context) error {
	if err := a.Store.Delete(c.Request().Context(), c.Param("slug")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	recs, err := a.Store.Select(c.Request().Context(), content.From(content.PostsTable).Order("created_at", false))
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminDashboard(a.Config.View(), recs, msg, CsrfToken(c)))
}

func redirectWithMsg(c echo.Context, msg string) error {
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(msg))
}
