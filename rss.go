package livepress

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/livepress/content"
	"github.com/eringen/livepress/views"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Author      string `xml:"author,omitempty"`
	Category    string `xml:"category,omitempty"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

// pubDate prefers the display date and falls back to the creation time.
func pubDate(r content.Record) string {
	if t, err := time.Parse("2006-01-02", r.Date); err == nil {
		return t.Format(time.RFC1123Z)
	}
	if !r.CreatedAt.IsZero() {
		return r.CreatedAt.UTC().Format(time.RFC1123Z)
	}
	return ""
}

func (a *App) renderRSS(c echo.Context, recs []content.Record) error {
	base := a.Config.URL
	items := make([]rssItem, 0, len(recs))
	for _, r := range recs {
		postURL := views.BuildURL(base, "blog", r.Slug)
		items = append(items, rssItem{
			Title:       r.Title,
			Link:        postURL,
			Description: r.Excerpt,
			Author:      r.Author,
			Category:    r.Category,
			PubDate:     pubDate(r),
			GUID:        postURL,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        base,
			Description: a.Config.Description,
			Items:       items,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(feed)
}
