package livepress

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/eringen/livepress/content"
)

// SeedFile is the YAML layout accepted by Seed.
//
//	posts:
//	  - title: Hello
//	    slug: hello
//	    featured: true
type SeedFile struct {
	Posts []content.Record `yaml:"posts"`
}

// SeedResult counts what Seed did.
type SeedResult struct {
	Created int
	Skipped int
}

// Seed saves every post in the YAML document read from r. Posts whose slug
// already exists are skipped. Missing slugs are derived from the title.
func Seed(ctx context.Context, store *content.Store, r io.Reader) (SeedResult, error) {
	var res SeedResult
	var file SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		return res, fmt.Errorf("seed: decode: %w", err)
	}
	for i := range file.Posts {
		rec := file.Posts[i]
		if rec.Slug == "" {
			rec.Slug = Slugify(rec.Title)
		}
		if rec.Title == "" || rec.Slug == "" {
			return res, fmt.Errorf("seed: post %d has no title", i+1)
		}
		rec.ID = ""
		_, err := store.Save(ctx, &rec)
		switch {
		case errors.Is(err, content.ErrDuplicateSlug):
			res.Skipped++
		case err != nil:
			return res, fmt.Errorf("seed: %s: %w", rec.Slug, err)
		default:
			res.Created++
		}
	}
	return res, nil
}
