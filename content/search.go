package content

import (
	"context"
	"unicode/utf8"
)

const (
	// MinQueryLen is the shortest query that reaches the store.
	MinQueryLen = 3
	// MaxHits caps the number of search results.
	MaxHits = 5
)

// Resolver runs title searches against a Source.
type Resolver struct {
	src   Source
	table string
	limit int
}

// NewResolver creates a Resolver over the posts table of src.
func NewResolver(src Source) *Resolver {
	return &Resolver{src: src, table: PostsTable, limit: MaxHits}
}

// Search returns up to MaxHits records whose title contains query, ignoring
// case. Queries shorter than MinQueryLen runes return nothing without touching
// the store. On a store error the result is empty and the error is a
// *SearchFailure.
func (r *Resolver) Search(ctx context.Context, query string) ([]SearchHit, error) {
	if utf8.RuneCountInString(query) < MinQueryLen {
		return []SearchHit{}, nil
	}
	records, err := r.src.Select(ctx, From(r.table).
		Select("title", "slug", "excerpt").
		ILike("title", "%"+EscapeLike(query)+"%").
		Limit(r.limit))
	if err != nil {
		return []SearchHit{}, &SearchFailure{Query: query, Err: err}
	}
	if len(records) > r.limit {
		records = records[:r.limit]
	}
	hits := make([]SearchHit, 0, len(records))
	for _, rec := range records {
		hits = append(hits, SearchHit{Title: rec.Title, Slug: rec.Slug, Excerpt: rec.Excerpt})
	}
	return hits, nil
}
