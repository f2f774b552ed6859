// Package directory holds the in-memory hospital index and its load sources.
package directory

import (
	"context"
	"sync/atomic"

	"hospital-assistant/internal/common/metrics"
	"hospital-assistant/internal/models"
)

// Source produces one generation of hospital records. Implementations skip
// malformed rows rather than failing the whole load.
type Source interface {
	Records(ctx context.Context) ([]*models.Hospital, error)
}

// Index is the immutable, in-memory hospital directory. Load installs a new
// generation atomically; readers racing a reload observe either the old or
// the new generation, never a mix.
type Index struct {
	gen atomic.Pointer[generation]
}

type generation struct {
	records []*models.Hospital
	byID    map[string]*models.Hospital
}

func NewIndex() *Index {
	idx := &Index{}
	idx.gen.Store(&generation{byID: map[string]*models.Hospital{}})
	return idx
}

// Load replaces the index with a new generation. An empty record set is a
// no-op so that a failed reload leaves the previous generation serving.
func (i *Index) Load(records []*models.Hospital) {
	if len(records) == 0 {
		return
	}

	byID := make(map[string]*models.Hospital, len(records))
	kept := make([]*models.Hospital, 0, len(records))
	for _, r := range records {
		if r == nil || r.ID == "" {
			continue
		}
		if _, dup := byID[r.ID]; dup {
			continue
		}
		byID[r.ID] = r
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		return
	}

	i.gen.Store(&generation{records: kept, byID: byID})
	metrics.DirectorySize.Set(float64(len(kept)))
}

// All returns the full record set of the current generation. Order is stable
// within one generation; no global ordering is promised.
func (i *Index) All() []*models.Hospital {
	return i.gen.Load().records
}

// ByID returns one record, or nil when absent.
func (i *Index) ByID(id string) *models.Hospital {
	return i.gen.Load().byID[id]
}

// Len returns the record count of the current generation.
func (i *Index) Len() int {
	return len(i.gen.Load().records)
}
