package content

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

// flakySource wraps a Source and fails the selected calls.
type flakySource struct {
	Source
	failSelect bool
	failSingle bool
	selects    int
	singles    int
}

var errStoreDown = errors.New("store unavailable")

func (f *flakySource) Select(ctx context.Context, q Query) ([]Record, error) {
	f.selects++
	if f.failSelect {
		return nil, errStoreDown
	}
	return f.Source.Select(ctx, q)
}

func (f *flakySource) MaybeSingle(ctx context.Context, q Query) (Record, bool, error) {
	f.singles++
	if f.failSingle {
		return Record{}, false, errStoreDown
	}
	return f.Source.MaybeSingle(ctx, q)
}

func slugs(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Slug
	}
	return out
}

func TestLoadContentViewScenario(t *testing.T) {
	s := setupTestStore(t)
	seedScenario(t, s)

	v, err := NewFetcher(s).LoadContentView(context.Background())
	if err != nil {
		t.Fatalf("LoadContentView failed: %v", err)
	}
	if v.Featured == nil || v.Featured.Slug != "a" {
		t.Fatalf("Featured = %+v, want a", v.Featured)
	}
	want := []string{"b", "c", "d", "e", "f", "g", "h"}
	if got := slugs(v.Items); !reflect.DeepEqual(got, want) {
		t.Errorf("Items = %v, want %v", got, want)
	}
}

func TestLoadContentViewWithoutFeatured(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	for i, slug := range []string{"x", "y"} {
		rec := Record{Title: slug, Slug: slug, CreatedAt: baseTime.Add(-time.Duration(i) * time.Hour)}
		if _, err := s.Save(ctx, &rec); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	v, err := NewFetcher(s).LoadContentView(ctx)
	if err != nil {
		t.Fatalf("LoadContentView failed: %v", err)
	}
	if v.Featured != nil {
		t.Errorf("Featured = %+v, want nil", v.Featured)
	}
	if got := slugs(v.Items); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("Items = %v", got)
	}
}

func TestLoadContentViewEmptyStore(t *testing.T) {
	s := setupTestStore(t)
	v, err := NewFetcher(s).LoadContentView(context.Background())
	if err != nil {
		t.Fatalf("LoadContentView failed: %v", err)
	}
	if !v.Empty() {
		t.Errorf("expected empty view, got %+v", v)
	}
}

func TestLoadContentViewFeaturedTieBreak(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	older := Record{Title: "Older", Slug: "older", Featured: true, CreatedAt: baseTime.Add(-time.Hour)}
	newer := Record{Title: "Newer", Slug: "newer", Featured: true, CreatedAt: baseTime}
	plain := Record{Title: "Plain", Slug: "plain", CreatedAt: baseTime.Add(-30 * time.Minute)}
	for _, r := range []*Record{&older, &newer, &plain} {
		if _, err := s.Save(ctx, r); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	v, err := NewFetcher(s).LoadContentView(ctx)
	if err != nil {
		t.Fatalf("LoadContentView failed: %v", err)
	}
	if v.Featured == nil || v.Featured.Slug != "newer" {
		t.Fatalf("Featured = %+v, want newer", v.Featured)
	}
	if got := slugs(v.Items); !reflect.DeepEqual(got, []string{"plain", "older"}) {
		t.Errorf("Items = %v, want [plain older]", got)
	}
}

func TestLoadContentViewIsIdempotent(t *testing.T) {
	s := setupTestStore(t)
	seedScenario(t, s)
	f := NewFetcher(s)

	first, err := f.LoadContentView(context.Background())
	if err != nil {
		t.Fatalf("LoadContentView failed: %v", err)
	}
	second, err := f.LoadContentView(context.Background())
	if err != nil {
		t.Fatalf("LoadContentView failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated fetch differs:\n%+v\n%+v", first, second)
	}
}

func TestLoadContentViewFailures(t *testing.T) {
	tests := []struct {
		name      string
		src       *flakySource
		wantQuery string
	}{
		{name: "featured query", src: &flakySource{failSingle: true}, wantQuery: "featured"},
		{name: "list query", src: &flakySource{failSelect: true}, wantQuery: "list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupTestStore(t)
			seedScenario(t, s)
			tt.src.Source = s

			v, err := NewFetcher(tt.src).LoadContentView(context.Background())
			var ff *FetchFailure
			if !errors.As(err, &ff) {
				t.Fatalf("expected *FetchFailure, got %v", err)
			}
			if ff.Query != tt.wantQuery {
				t.Errorf("Query = %q, want %q", ff.Query, tt.wantQuery)
			}
			if !errors.Is(err, errStoreDown) {
				t.Errorf("FetchFailure should wrap the cause, got %v", err)
			}
			if !v.Empty() {
				t.Errorf("failed fetch should return an empty view, got %+v", v)
			}
		})
	}
}

func TestLoadRecord(t *testing.T) {
	s := setupTestStore(t)
	seedScenario(t, s)
	f := NewFetcher(s)

	r, err := f.LoadRecord(context.Background(), "c")
	if err != nil {
		t.Fatalf("LoadRecord failed: %v", err)
	}
	if r.Title != "Post c" {
		t.Errorf("Title = %q, want Post c", r.Title)
	}

	if _, err := f.LoadRecord(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadRecordFailure(t *testing.T) {
	s := setupTestStore(t)
	_, err := NewFetcher(&flakySource{Source: s, failSingle: true}).LoadRecord(context.Background(), "a")
	var ff *FetchFailure
	if !errors.As(err, &ff) {
		t.Fatalf("expected *FetchFailure, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("a store failure must not look like not found")
	}
}
