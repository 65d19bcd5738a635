package livepress

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eringen/livepress/content"
)

const seedYAML = `
posts:
  - title: Designing for Change
    excerpt: How live views stay fresh
    author: Sam
    category: Design
    date: "2024-01-15"
    read_time: 4
    featured: true
    created_at: 2024-01-15T12:00:00Z
  - title: Second Post
    slug: second
    created_at: 2024-01-14T12:00:00Z
`

func TestSeed(t *testing.T) {
	store, err := content.NewStore(filepath.Join(t.TempDir(), "seed.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	res, err := Seed(ctx, store, strings.NewReader(seedYAML))
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if res.Created != 2 || res.Skipped != 0 {
		t.Errorf("first seed = %+v", res)
	}

	view, err := content.NewFetcher(store).LoadContentView(ctx)
	if err != nil {
		t.Fatalf("LoadContentView failed: %v", err)
	}
	if view.Featured == nil || view.Featured.Slug != "designing-for-change" {
		t.Fatalf("featured = %+v", view.Featured)
	}
	if view.Featured.ReadTime != 4 || view.Featured.Category != "Design" {
		t.Errorf("featured fields not loaded: %+v", view.Featured)
	}
	if len(view.Items) != 1 || view.Items[0].Slug != "second" {
		t.Errorf("items = %+v", view.Items)
	}

	res, err = Seed(ctx, store, strings.NewReader(seedYAML))
	if err != nil {
		t.Fatalf("second Seed failed: %v", err)
	}
	if res.Created != 0 || res.Skipped != 2 {
		t.Errorf("second seed = %+v, want everything skipped", res)
	}
}

func TestSeedRejectsBadInput(t *testing.T) {
	store, err := content.NewStore(filepath.Join(t.TempDir(), "seed.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	for name, doc := range map[string]string{
		"unknown field": "posts:\n  - title: X\n    tags: [a]\n",
		"no title":      "posts:\n  - excerpt: nothing\n",
		"not yaml":      "posts: [",
	} {
		if _, err := Seed(context.Background(), store, strings.NewReader(doc)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}

	res, err := Seed(context.Background(), store, strings.NewReader(""))
	if err != nil || res.Created != 0 {
		t.Errorf("empty document = %+v, %v", res, err)
	}
}
