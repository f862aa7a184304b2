// Package inmemory provides a map-backed storage driver for tests and for
// running without a database.
package inmemory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/vmentor/vmentor/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	mu          sync.RWMutex
	transcripts map[string]*storage.Transcript
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		transcripts: make(map[string]*storage.Transcript),
	}
}

func (d *Driver) Put(_ context.Context, t *storage.Transcript) error {
	if t == nil {
		return storage.ErrNilTranscript
	}

	cp := *t

	d.mu.Lock()
	defer d.mu.Unlock()

	d.transcripts[t.ID] = &cp
	return nil
}

func (d *Driver) Get(_ context.Context, id string) (*storage.Transcript, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, ok := d.transcripts[id]
	if !ok {
		return nil, storage.NotFoundError{ID: id}
	}

	cp := *t
	return &cp, nil
}

func (d *Driver) Delete(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.transcripts[id]; !ok {
		return storage.NotFoundError{ID: id}
	}

	delete(d.transcripts, id)
	return nil
}

func (d *Driver) List(_ context.Context, f storage.Filter) ([]*storage.Transcript, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	results := make([]*storage.Transcript, 0, len(d.transcripts))
	for _, t := range d.transcripts {
		if f.UserID != "" && t.UserID != f.UserID {
			continue
		}
		cp := *t
		results = append(results, &cp)
	}

	slices.SortFunc(results, func(a, b *storage.Transcript) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	if f.Limit > 0 && f.Limit < len(results) {
		results = results[:f.Limit]
	}

	return results, nil
}

// Close is a no-op for the in-memory store.
func (d *Driver) Close() error {
	return nil
}
