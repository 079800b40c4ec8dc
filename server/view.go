package server

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/deepnoodle-ai/docdb/store"
	"github.com/deepnoodle-ai/docdb/wire"
)

// view is the state a request reads and writes: either the store itself or
// a transaction layered over it.
type view interface {
	Get(ctx context.Context, uri string) (*store.Record, error)
	Put(ctx context.Context, rec *store.Record) error
	Delete(ctx context.Context, uri string) error
	List(ctx context.Context, prefix string) ([]*store.Record, error)
}

var (
	_ view = store.Store(nil)
	_ view = &txView{}
)

// txView reads through a transaction's pending writes to the store
type txView struct {
	tx    *Transaction
	store store.Store
	now   func() time.Time
}

func (v *txView) Get(ctx context.Context, uri string) (*store.Record, error) {
	if rec, ok := v.tx.lookup(uri); ok {
		if rec == nil {
			return nil, store.ErrNotFound
		}
		return rec, nil
	}
	return v.store.Get(ctx, uri)
}

func (v *txView) Put(ctx context.Context, rec *store.Record) error {
	if err := store.ValidateURI(rec.URI); err != nil {
		return err
	}
	var version int64
	previous, err := v.Get(ctx, rec.URI)
	switch {
	case err == nil:
		version = previous.Version
	case !errors.Is(err, store.ErrNotFound):
		return err
	}
	pending := rec.Copy()
	if pending.Metadata == nil {
		pending.Metadata = wire.NewMetadata()
	}
	// the store assigns the final version on commit
	pending.Version = version + 1
	pending.UpdatedAt = v.now().UTC()
	v.tx.record(rec.URI, pending)
	return nil
}

func (v *txView) Delete(ctx context.Context, uri string) error {
	if _, err := v.Get(ctx, uri); err != nil {
		return err
	}
	v.tx.record(uri, nil)
	return nil
}

func (v *txView) List(ctx context.Context, prefix string) ([]*store.Record, error) {
	committed, err := v.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []*store.Record
	for _, rec := range committed {
		seen[rec.URI] = true
		if pending, ok := v.tx.lookup(rec.URI); ok {
			if pending != nil {
				out = append(out, pending)
			}
			continue
		}
		out = append(out, rec)
	}
	for _, change := range v.tx.pending() {
		if change.Record == nil || seen[change.URI] || !strings.HasPrefix(change.URI, prefix) {
			continue
		}
		out = append(out, change.Record.Copy())
	}
	sortByURI(out)
	return out, nil
}

func sortByURI(records []*store.Record) {
	slices.SortFunc(records, func(a, b *store.Record) int {
		return strings.Compare(a.URI, b.URI)
	})
}
