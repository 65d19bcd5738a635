package content

import "context"

// Fetcher reads listing snapshots and single records from a Source.
type Fetcher struct {
	src   Source
	table string
}

// NewFetcher creates a Fetcher reading the posts table of src.
func NewFetcher(src Source) *Fetcher {
	return &Fetcher{src: src, table: PostsTable}
}

// LoadContentView returns the featured record and every other record, newest
// first. When several records are flagged as featured the most recently
// created one takes the slot and the rest stay in Items.
//
// The featured and list reads are separate queries; a write landing between
// them may be visible to only one of the two.
func (f *Fetcher) LoadContentView(ctx context.Context) (View, error) {
	var v View
	featured, ok, err := f.src.MaybeSingle(ctx, From(f.table).
		Eq("featured", true).
		Order("created_at", false).
		Limit(1))
	if err != nil {
		return View{}, &FetchFailure{Query: "featured", Err: err}
	}

	list := From(f.table).Order("created_at", false)
	if ok {
		v.Featured = &featured
		list = list.Neq("id", featured.ID)
	}
	items, err := f.src.Select(ctx, list)
	if err != nil {
		return View{}, &FetchFailure{Query: "list", Err: err}
	}
	v.Items = items
	return v, nil
}

// LoadRecord returns the record published under slug, or ErrNotFound.
func (f *Fetcher) LoadRecord(ctx context.Context, slug string) (Record, error) {
	r, ok, err := f.src.MaybeSingle(ctx, From(f.table).Eq("slug", slug))
	if err != nil {
		return Record{}, &FetchFailure{Query: "record", Err: err}
	}
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}
