package views

import (
	"net/url"

	"github.com/a-h/templ"

	"github.com/eringen/livepress/content"
)

func adminPage(cfg SiteConfig, name, csrf string, body func(h *htmlWriter)) templ.Component {
	return layout(page{
		Site:  cfg,
		Meta:  PageMeta{Title: title(cfg, name), OGType: "website"},
		Admin: true,
		Body: component(func(h *htmlWriter) {
			h.raw(`<div class="container admin">` + "\n")
			adminNav(h, csrf)
			body(h)
			h.raw("</div>\n")
		}),
		Script: adminScript,
	})
}

func adminNav(h *htmlWriter, csrf string) {
	h.raw(`<div class="admin-nav"`)
	h.attr("data-csrf", csrf)
	h.raw(">\n")
	h.raw(`<a class="button outline" href="/admin/">Dashboard</a>` + "\n")
	h.raw(`<a class="button outline" href="/admin/create/">New Post</a>` + "\n")
	h.raw(`<a class="button outline" href="/admin/images/">Images</a>` + "\n")
	h.raw(`<form method="post" action="/admin/logout/">` + "\n")
	csrfField(h, csrf)
	h.raw("<button type=\"submit\" class=\"button outline\">Sign Out</button>\n</form>\n</div>\n")
}

func deleteButton(h *htmlWriter, target string) {
	h.raw(`<button type="button" class="button outline" data-delete="`)
	h.url(target)
	h.raw("\">Delete</button>")
}

func AdminDashboard(cfg SiteConfig, records []content.Record, msg, csrf string) templ.Component {
	return adminPage(cfg, "Dashboard", csrf, func(h *htmlWriter) {
		if msg != "" {
			h.raw(`<p class="notice">`)
			h.text(msg)
			h.raw("</p>\n")
		}
		h.raw("<table class=\"admin-posts\">\n")
		h.raw("<thead><tr><th>Title</th><th>Category</th><th>Date</th><th>Featured</th><th></th></tr></thead>\n<tbody>\n")
		for _, r := range records {
			edit := "/admin/post/" + url.PathEscape(r.Slug) + "/"
			h.raw(`<tr><td><a href="`)
			h.url(edit)
			h.raw(`">`)
			h.text(r.Title)
			h.raw("</a></td><td>")
			h.text(r.Category)
			h.raw("</td><td>")
			h.text(r.Date)
			h.raw("</td><td>")
			if r.Featured {
				h.raw("&#9733;")
			}
			h.raw("</td><td>")
			deleteButton(h, edit)
			h.raw("</td></tr>\n")
		}
		if len(records) == 0 {
			h.raw("<tr><td colspan=\"5\">No posts yet.</td></tr>\n")
		}
		h.raw("</tbody>\n</table>\n")
	})
}

func AdminForm(cfg SiteConfig, r content.Record, isNew bool, csrf string) templ.Component {
	return adminPage(cfg, "Edit", csrf, func(h *htmlWriter) {
		if isNew {
			h.raw("<h1>New post</h1>\n")
		} else {
			h.raw("<h1>Edit post</h1>\n")
		}
		h.raw(`<form method="post" action="/admin/save/" class="admin-form">` + "\n")
		csrfField(h, csrf)
		h.raw(`<input type="hidden" name="id"`)
		h.attr("value", r.ID)
		h.raw(">\n")
		input(h, "Title", "title", r.Title, " required")
		slugExtra := ""
		if !isNew {
			slugExtra = " readonly"
		}
		input(h, "Slug", "slug", r.Slug, slugExtra)
		textarea(h, "Excerpt", "excerpt", r.Excerpt, 2)
		textarea(h, "Content", "content", r.Content, 16)
		input(h, "Image URL", "image", r.Image, "")
		input(h, "Author", "author", r.Author, "")
		input(h, "Category", "category", r.Category, "")
		input(h, "Date", "date", r.Date, ` placeholder="YYYY-MM-DD"`)
		h.raw(`<label>Read time (minutes) <input name="read_time" type="number" min="0" value="`)
		if r.ReadTime > 0 {
			h.int(r.ReadTime)
		}
		h.raw("\"></label>\n")
		h.raw(`<label><input type="checkbox" name="featured"`)
		if r.Featured {
			h.raw(" checked")
		}
		h.raw("> Featured</label>\n")
		h.raw("<button type=\"submit\" class=\"button\">Save</button>\n</form>\n")
	})
}

// input writes a labelled text input; extra is appended to the tag as is.
func input(h *htmlWriter, label, name, value, extra string) {
	h.raw("<label>" + label + " <input")
	h.attr("name", name)
	h.attr("value", value)
	h.raw(extra + "></label>\n")
}

func textarea(h *htmlWriter, label, name, value string, rows int) {
	h.raw("<label>" + label + " <textarea")
	h.attr("name", name)
	h.raw(` rows="`)
	h.int(rows)
	h.raw(`">`)
	h.text(value)
	h.raw("</textarea></label>\n")
}

func AdminImages(cfg SiteConfig, images []Image, csrf string) templ.Component {
	return adminPage(cfg, "Images", csrf, func(h *htmlWriter) {
		h.raw(`<form method="post" action="/admin/images/" enctype="multipart/form-data" class="admin-form">` + "\n")
		csrfField(h, csrf)
		h.raw(`<label>Cover image <input type="file" name="image" accept="image/*" required></label>` + "\n")
		h.raw("<button type=\"submit\" class=\"button\">Upload</button>\n</form>\n<ul class=\"images\">\n")
		for _, img := range images {
			h.raw(`<li><img src="`)
			h.url(img.URL)
			h.raw(`"`)
			h.attr("alt", img.Filename)
			h.raw(` width="160" loading="lazy"><code>`)
			h.text(img.URL)
			h.raw("</code><span>")
			h.int(img.Width)
			h.raw("&times;")
			h.int(img.Height)
			h.raw("</span>")
			deleteButton(h, "/admin/images/"+url.PathEscape(img.Filename)+"/")
			h.raw("</li>\n")
		}
		if len(images) == 0 {
			h.raw("<li>No images uploaded.</li>\n")
		}
		h.raw("</ul>\n")
	})
}
