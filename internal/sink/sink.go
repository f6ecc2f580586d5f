// Package sink persists classified posts.
package sink

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/amishk599/postscout/internal/model"
)

// ErrPersist wraps every failure to write a batch. The batch is handed back
// unsaved and the store is left as it was.
var ErrPersist = errors.New("persist posts")

// Store is a sink whose persisted posts can be read back.
type Store interface {
	model.PostSink
	Load(ctx context.Context) ([]model.Post, error)
}

// Open returns the store of the given kind at path. Kind "sqlite" selects
// SQLiteSink; anything else writes CSV.
func Open(kind, path string, logger *slog.Logger) (Store, error) {
	if kind == "sqlite" {
		s, err := NewSQLiteSink(path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return NewCSVSink(path, logger), nil
}

// columns returns the union of existing and the keys used by records.
// Existing columns keep their order; base fields come next, then the
// classification fields, then anything else sorted.
func columns(existing []string, records []map[string]string) []string {
	seen := make(map[string]bool, len(existing))
	cols := make([]string, 0, len(existing)+len(model.BaseFields)+2)
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}

	for _, c := range existing {
		add(c)
	}
	for _, c := range model.BaseFields {
		add(c)
	}

	var extra []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				extra = append(extra, k)
			}
		}
	}
	for _, c := range []string{model.FieldHiringPost, model.FieldNamesClassification} {
		for _, k := range extra {
			if k == c {
				add(c)
			}
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		add(k)
	}
	return cols
}
