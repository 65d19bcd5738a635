package views

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/livepress/content"
)

// PlaceholderImage is shown when a record has no image of its own.
const PlaceholderImage = "https://images.unsplash.com/photo-1498050108023-c5249f4df085"

// BuildURL joins path segments onto a base URL, ensuring a trailing slash.
// It backs canonical links, JSON-LD, the feed and the sitemap.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// ImageOr returns the record image or the placeholder.
func ImageOr(r content.Record) string {
	if r.Image != "" {
		return r.Image
	}
	return PlaceholderImage
}

// AuthorOr returns the record author or "Anonymous".
func AuthorOr(r content.Record) string {
	if r.Author != "" {
		return r.Author
	}
	return "Anonymous"
}

// AvatarURL returns a generated avatar for an author name.
func AvatarURL(author string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + url.QueryEscape(author)
}

// Body renders a record body. HTML fragments are emitted as written by the
// admin; plain text is split on blank lines into escaped paragraphs, with
// single line breaks kept.
func Body(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "<") {
		return trimmed
	}
	var b strings.Builder
	for _, para := range strings.Split(strings.ReplaceAll(trimmed, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lines := strings.Split(para, "\n")
		for i := range lines {
			lines[i] = templ.EscapeString(lines[i])
		}
		b.WriteString("<p>")
		b.WriteString(strings.Join(lines, "<br>"))
		b.WriteString("</p>\n")
	}
	return b.String()
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      BuildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a record.
func BlogPostingJsonLD(cfg SiteConfig, r content.Record) string {
	postURL := BuildURL(cfg.URL, "blog", r.Slug)
	data := map[string]interface{}{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      r.Title,
		"description":   r.Excerpt,
		"datePublished": r.Date,
		"image":         ImageOr(r),
		"url":           postURL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
		"author": map[string]string{
			"@type": "Person",
			"name":  AuthorOr(r),
		},
	}
	if r.Category != "" {
		data["articleSection"] = r.Category
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
