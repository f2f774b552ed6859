package directory

import (
	"sync"
	"testing"

	"hospital-assistant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []*models.Hospital {
	return []*models.Hospital{
		{ID: "1", Name: "Apollo Hospital", City: "Bangalore", Address: "Sarjapur Road"},
		{ID: "2", Name: "Fortis Hospital", City: "Mumbai", Address: "Mulund West"},
		{ID: "3", Name: "City Hospital", City: "Delhi", Address: "Karol Bagh"},
	}
}

func TestIndex_LoadAndLookup(t *testing.T) {
	idx := NewIndex()
	idx.Load(sampleRecords())

	assert.Equal(t, 3, idx.Len())
	require.NotNil(t, idx.ByID("2"))
	assert.Equal(t, "Fortis Hospital", idx.ByID("2").Name)
	assert.Nil(t, idx.ByID("99"))
	assert.Len(t, idx.All(), 3)
}

func TestIndex_EmptyIndexBehavesAsNotFound(t *testing.T) {
	idx := NewIndex()

	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.All())
	assert.Nil(t, idx.ByID("1"))
}

func TestIndex_EmptyLoadKeepsPreviousGeneration(t *testing.T) {
	idx := NewIndex()
	idx.Load(sampleRecords())

	idx.Load(nil)
	assert.Equal(t, 3, idx.Len())

	idx.Load([]*models.Hospital{})
	assert.Equal(t, 3, idx.Len())

	// Records without IDs are dropped; if nothing survives, the old
	// generation keeps serving.
	idx.Load([]*models.Hospital{{Name: "No ID Hospital"}})
	assert.Equal(t, 3, idx.Len())
}

func TestIndex_ReloadReplacesGeneration(t *testing.T) {
	idx := NewIndex()
	idx.Load(sampleRecords())

	idx.Load([]*models.Hospital{
		{ID: "10", Name: "Manipal Hospital", City: "Bangalore"},
	})

	assert.Equal(t, 1, idx.Len())
	assert.Nil(t, idx.ByID("1"))
	assert.NotNil(t, idx.ByID("10"))
}

func TestIndex_DuplicateIDsKeepFirst(t *testing.T) {
	idx := NewIndex()
	idx.Load([]*models.Hospital{
		{ID: "1", Name: "First"},
		{ID: "1", Name: "Second"},
	})

	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, "First", idx.ByID("1").Name)
}

func TestIndex_ConcurrentReadsDuringReload(t *testing.T) {
	idx := NewIndex()
	idx.Load(sampleRecords())

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				all := idx.All()
				// A generation is all-or-nothing: either the 3-record
				// set or the 1-record set, never a mix.
				if len(all) != 3 && len(all) != 1 {
					t.Errorf("observed torn generation of %d records", len(all))
					return
				}
			}
		}()
	}

	for i := 0; i < 100; i++ {
		idx.Load(sampleRecords())
		idx.Load([]*models.Hospital{{ID: "10", Name: "Manipal Hospital"}})
	}
	close(stop)
	wg.Wait()
}
