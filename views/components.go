// Package views renders livepress pages as templ components.
//
// Components are written directly against templ's escaping helpers. Every
// page shares one layout, and the content section is also rendered on its
// own for the live socket.
package views

import (
	"net/url"

	"github.com/a-h/templ"

	"github.com/eringen/livepress/content"
)

func title(cfg SiteConfig, parts ...string) string {
	if len(parts) == 0 || parts[0] == "" {
		return cfg.Name
	}
	return parts[0] + " | " + cfg.Name
}

// Home renders the full landing page around a listing.
func Home(cfg SiteConfig, l Listing) templ.Component {
	return layout(page{
		Site: cfg,
		Meta: PageMeta{
			Title:       title(cfg),
			Description: cfg.Description,
			URL:         BuildURL(cfg.URL),
			OGType:      "website",
		},
		JSONLD: WebsiteJsonLD(cfg),
		Body: component(func(h *htmlWriter) {
			h.raw("<header class=\"hero\">\n<h1>")
			h.text(cfg.Name)
			h.raw("</h1>\n")
			if cfg.Description != "" {
				h.raw("<p>")
				h.text(cfg.Description)
				h.raw("</p>\n")
			}
			h.raw("</header>\n")
			contentSection(h, l)
		}),
		Script: liveScript,
	})
}

// ContentSection renders only the #content section. The live socket sends
// this fragment on every state change.
func ContentSection(l Listing) templ.Component {
	return component(func(h *htmlWriter) {
		contentSection(h, l)
	})
}

func contentSection(h *htmlWriter, l Listing) {
	h.raw("<main id=\"content\" class=\"container\">\n")
	defer h.raw("</main>\n")
	if l.Loading {
		h.raw(`<div class="spinner" aria-label="Loading"></div>` + "\n")
		return
	}
	if l.Notice != "" {
		h.raw(`<p class="notice" role="alert">`)
		h.text(l.Notice)
		h.raw("</p>\n")
	}
	if f := l.Featured; f != nil {
		h.raw("<section class=\"featured\">\n<h2>Featured Story</h2>\n<article class=\"featured-card\">\n")
		h.raw(`<img src="`)
		h.url(ImageOr(*f))
		h.raw(`"`)
		h.attr("alt", f.Title)
		h.raw(">\n<div class=\"featured-body\">\n")
		pill(h, f.Category)
		h.raw("<h3>")
		h.text(f.Title)
		h.raw("</h3>\n")
		excerpt(h, f.Excerpt)
		h.raw(`<p class="byline"><span>`)
		h.text(f.Author)
		h.raw("</span>")
		if f.Date != "" {
			h.raw(" &bull; <span>")
			h.text(f.Date)
			h.raw("</span>")
		}
		h.raw("</p>\n")
		h.raw(`<a class="button" href="`)
		h.url(f.Link())
		h.raw("\">Read More</a>\n</div>\n</article>\n</section>\n")
	}
	if len(l.Items) > 0 {
		h.raw("<section class=\"latest\">\n<div class=\"latest-header\">\n<h2>Latest Stories</h2>\n")
		if l.HasMore {
			h.raw(`<a class="button outline" href="/?all=1" data-view-all>View All</a>` + "\n")
		}
		h.raw("</div>\n<div class=\"grid\">\n")
		for _, r := range l.Items {
			card(h, r)
		}
		h.raw("</div>\n</section>\n")
	}
	if l.Empty() && l.Notice == "" {
		h.raw(`<p class="empty">No posts available.</p>` + "\n")
	}
}

func card(h *htmlWriter, r content.Record) {
	h.raw("<article class=\"card\">\n<a href=\"")
	h.url(r.Link())
	h.raw("\">\n<img src=\"")
	h.url(ImageOr(r))
	h.raw(`"`)
	h.attr("alt", r.Title)
	h.raw(" loading=\"lazy\">\n<div class=\"card-body\">\n")
	pill(h, r.Category)
	h.raw("<h3>")
	h.text(r.Title)
	h.raw("</h3>\n")
	excerpt(h, r.Excerpt)
	h.raw(`<p class="byline">`)
	if r.Author != "" {
		h.raw("<span>")
		h.text(r.Author)
		h.raw("</span>")
	}
	if r.Date != "" {
		h.raw(" &bull; <span>")
		h.text(r.Date)
		h.raw("</span>")
	}
	if r.ReadTime > 0 {
		h.raw(" &bull; <span>")
		h.int(r.ReadTime)
		h.raw(" min read</span>")
	}
	h.raw("</p>\n</div>\n</a>\n</article>\n")
}

func pill(h *htmlWriter, category string) {
	if category == "" {
		return
	}
	h.raw(`<span class="pill">`)
	h.text(category)
	h.raw("</span>\n")
}

func excerpt(h *htmlWriter, s string) {
	if s == "" {
		return
	}
	h.raw(`<p class="excerpt">`)
	h.text(s)
	h.raw("</p>\n")
}

// Post renders the detail page of a record.
func Post(cfg SiteConfig, r content.Record) templ.Component {
	return layout(page{
		Site: cfg,
		Meta: PageMeta{
			Title:       title(cfg, r.Title),
			Description: r.Excerpt,
			URL:         BuildURL(cfg.URL, "blog", r.Slug),
			OGType:      "article",
		},
		JSONLD: BlogPostingJsonLD(cfg, r),
		Body: component(func(h *htmlWriter) {
			h.raw("<div class=\"container post\">\n")
			h.raw(`<a class="back" href="/">&larr; Back to all posts</a>` + "\n<article>\n")
			pill(h, r.Category)
			h.raw("<h1>")
			h.text(r.Title)
			h.raw("</h1>\n<img class=\"cover\" src=\"")
			h.url(ImageOr(r))
			h.raw(`"`)
			h.attr("alt", r.Title)
			h.raw(" loading=\"lazy\">\n<div class=\"post-layout\">\n<div class=\"prose\">\n")
			if r.Content != "" {
				h.raw(Body(r.Content))
			} else {
				h.raw(`<p class="muted">No content available.</p>`)
			}
			h.raw("\n</div>\n<aside class=\"author-card\">\n")
			author := AuthorOr(r)
			h.raw(`<img src="`)
			h.url(AvatarURL(author))
			h.raw(`"`)
			h.attr("alt", author+"'s avatar")
			h.raw(" loading=\"lazy\">\n<p class=\"author\">")
			h.text(author)
			h.raw("</p>\n")
			if r.Date != "" {
				h.raw(`<p class="date">`)
				h.text(r.Date)
				h.raw("</p>\n")
			}
			if r.ReadTime > 0 {
				h.raw(`<p class="read-time">`)
				h.int(r.ReadTime)
				h.raw(" min read</p>\n")
			}
			h.raw("</aside>\n</div>\n</article>\n</div>\n")
		}),
	})
}

func NotFound(cfg SiteConfig) templ.Component {
	return layout(page{
		Site: cfg,
		Meta: PageMeta{Title: title(cfg, "Not found"), OGType: "website"},
		Body: templ.Raw(`<div class="container not-found">
<h1>Post not found</h1>
<p>The post you are looking for does not exist or was removed.</p>
<a class="button" href="/">Return Home</a>
</div>
`),
	})
}

func ServerError(cfg SiteConfig, msg string) templ.Component {
	if msg == "" {
		msg = "Please try again in a moment."
	}
	return layout(page{
		Site: cfg,
		Meta: PageMeta{Title: title(cfg, "Error"), OGType: "website"},
		Body: component(func(h *htmlWriter) {
			h.raw("<div class=\"container server-error\">\n<h1>Something went wrong</h1>\n<p>")
			h.text(msg)
			h.raw("</p>\n<a class=\"button\" href=\"/\">Return Home</a>\n</div>\n")
		}),
	})
}

// SearchResults renders the dropdown under the search box.
func SearchResults(query string, hits []content.SearchHit, failed bool) templ.Component {
	return component(func(h *htmlWriter) {
		switch {
		case failed:
			h.raw(`<p class="search-error" role="alert">Search is unavailable right now.</p>` + "\n")
		case len(hits) > 0:
			h.raw("<ul>\n")
			for _, hit := range hits {
				h.raw(`<li><a href="`)
				h.url("/blog/" + url.PathEscape(hit.Slug) + "/")
				h.raw(`"><strong>`)
				h.text(hit.Title)
				h.raw("</strong>")
				if hit.Excerpt != "" {
					h.raw("<span>")
					h.text(hit.Excerpt)
					h.raw("</span>")
				}
				h.raw("</a></li>\n")
			}
			h.raw("</ul>\n")
		default:
			h.raw(`<p class="search-empty">No posts match &ldquo;`)
			h.text(query)
			h.raw("&rdquo;.</p>\n")
		}
	})
}

func Login(cfg SiteConfig, showError bool, csrf string) templ.Component {
	return layout(page{
		Site: cfg,
		Meta: PageMeta{Title: title(cfg, "Sign in"), OGType: "website"},
		Body: component(func(h *htmlWriter) {
			h.raw("<div class=\"container login\">\n<h1>Sign in</h1>\n")
			if showError {
				h.raw(`<p class="notice" role="alert">Wrong password.</p>` + "\n")
			}
			h.raw(`<form method="post" action="/login/">` + "\n")
			csrfField(h, csrf)
			h.raw(`<label>Password <input type="password" name="password" required autofocus></label>` + "\n")
			h.raw("<button type=\"submit\" class=\"button\">Sign in</button>\n</form>\n</div>\n")
		}),
	})
}

func csrfField(h *htmlWriter, csrf string) {
	h.raw(`<input type="hidden" name="_csrf"`)
	h.attr("value", csrf)
	h.raw(">\n")
}
