// Package content is the read side of the blog: the record model, a small
// query builder compiled to SQLite, the SQLite-backed store with its
// change-notification hub, and the Fetcher and Resolver that the live views
// and HTTP handlers consume.
package content

import "time"

// PostsTable is the table every record lives in and the one views watch.
const PostsTable = "posts"

// Record is a single blog post. Optional text fields are empty when unset;
// ReadTime is 0 when unknown.
type Record struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Slug      string    `json:"slug" yaml:"slug"`
	Excerpt   string    `json:"excerpt,omitempty" yaml:"excerpt"`
	Content   string    `json:"content,omitempty" yaml:"content"`
	Image     string    `json:"image,omitempty" yaml:"image"`
	Author    string    `json:"author,omitempty" yaml:"author"`
	Category  string    `json:"category,omitempty" yaml:"category"`
	Date      string    `json:"date,omitempty" yaml:"date"`
	ReadTime  int       `json:"read_time,omitempty" yaml:"read_time"`
	Featured  bool      `json:"featured" yaml:"featured"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Link returns the public path of the record's detail page.
func (r Record) Link() string {
	return "/blog/" + r.Slug + "/"
}

// SearchHit is the projection returned by title search.
type SearchHit struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Excerpt string `json:"excerpt,omitempty"`
}

// View is one snapshot of the listing: the featured slot (nil when no record
// is featured) and every other record, newest first.
type View struct {
	Featured *Record
	Items    []Record
}

// Empty reports whether the view has nothing to show.
func (v View) Empty() bool {
	return v.Featured == nil && len(v.Items) == 0
}
