package tenantdb

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRegistryInsertGetRemove(t *testing.T) {
	r := NewRegistry()
	id := uuid.New()

	_, ok := r.Get(id)
	require.False(t, ok)

	first := &Conn{publicID: id}
	require.Nil(t, r.Insert(id, first))
	require.Equal(t, 1, r.Len())

	got, ok := r.Get(id)
	require.True(t, ok)
	require.Same(t, first, got)

	// Replacing returns the displaced connection so the caller can close it.
	second := &Conn{publicID: id}
	prev := r.Insert(id, second)
	require.Same(t, first, prev)
	require.Equal(t, 1, r.Len())

	removed, ok := r.Remove(id)
	require.True(t, ok)
	require.Same(t, second, removed)
	require.Equal(t, 0, r.Len())

	_, ok = r.Remove(id)
	require.False(t, ok)
}

func TestRegistryPublicIDs(t *testing.T) {
	r := NewRegistry()
	a, b := uuid.New(), uuid.New()
	r.Insert(a, &Conn{publicID: a})
	r.Insert(b, &Conn{publicID: b})

	ids := r.PublicIDs()
	require.Len(t, ids, 2)
	require.ElementsMatch(t, []uuid.UUID{a, b}, ids)
}

func TestRegistryCloseEmpties(t *testing.T) {
	r := NewRegistry()
	id := uuid.New()
	r.Insert(id, &Conn{publicID: id})

	r.Close()
	require.Equal(t, 0, r.Len())
	_, ok := r.Get(id)
	require.False(t, ok)
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	ids := make([]uuid.UUID, 32)
	for i := range ids {
		ids[i] = uuid.New()
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Insert(id, &Conn{publicID: id})
		}()
		go func() {
			defer wg.Done()
			r.Get(id)
		}()
	}
	wg.Wait()

	require.Equal(t, len(ids), r.Len())
}
