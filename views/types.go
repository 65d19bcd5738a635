package views

import "github.com/eringen/livepress/content"

// SiteConfig holds the site-wide settings templates read.
type SiteConfig struct {
	Name        string // SITE_NAME  (default "Blog")
	URL         string // SITE_URL   (default "http://localhost:3000")
	Description string // SITE_DESCRIPTION
	Author      string // SITE_AUTHOR
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}

// Listing is what the content section of the home page shows.
type Listing struct {
	Featured *content.Record
	Items    []content.Record // already capped to the visible subset
	HasMore  bool
	Loading  bool
	Notice   string
}

// Empty reports whether the listing has nothing to render.
func (l Listing) Empty() bool {
	return l.Featured == nil && len(l.Items) == 0
}

// Image is an uploaded cover image.
type Image struct {
	Filename   string
	URL        string
	Width      int
	Height     int
	Size       int64
	UploadedAt string
}
