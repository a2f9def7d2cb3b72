package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/photopoet/internal/domain"
	"github.com/vbonduro/photopoet/internal/kv/memory"
)

const photoA = domain.PhotoReference("data:image/jpeg;base64,/9j/4AAQ")

func newTestStore(t *testing.T, opts ...Option) (*Store, *memory.Store) {
	t.Helper()
	backend := memory.New()
	return New(backend, slog.Default(), opts...), backend
}

// stepClock returns a clock that advances one second per call.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(time.Second)
		return t
	}
}

func TestLoadEmpty(t *testing.T) {
	store, backend := newTestStore(t)

	entries, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
	assert.Zero(t, backend.Puts(), "load must not write")
}

func TestAddThenLoad(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	before := time.Now()
	entry, err := store.Add(ctx, photoA, "Sunset whispers gold")
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Date.Before(before), "timestamp must not precede the call")

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, photoA, entries[0].Photo)
	assert.Equal(t, domain.PoemResult("Sunset whispers gold"), entries[0].Poem)
}

func TestAddPreservesInsertionOrder(t *testing.T) {
	// Dates run backwards so that insertion order differs from date order.
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	calls := 0
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return start.Add(-time.Duration(calls) * time.Hour)
	}
	store, _ := newTestStore(t, WithClock(clock))
	ctx := context.Background()

	for _, poem := range []domain.PoemResult{"first", "second", "third"} {
		_, err := store.Add(ctx, photoA, poem)
		require.NoError(t, err)
	}

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, domain.PoemResult("first"), entries[0].Poem)
	assert.Equal(t, domain.PoemResult("second"), entries[1].Poem)
	assert.Equal(t, domain.PoemResult("third"), entries[2].Poem)
}

func TestDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	keep, err := store.Add(ctx, photoA, "keep")
	require.NoError(t, err)
	drop, err := store.Add(ctx, photoA, "drop")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, drop.ID))

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, keep.ID, entries[0].ID)
}

func TestDeleteUnknownIsNoop(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, photoA, "only")
	require.NoError(t, err)
	before, err := store.Load(ctx)
	require.NoError(t, err)
	puts := backend.Puts()

	require.NoError(t, store.Delete(ctx, "no-such-id"))

	after, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, puts, backend.Puts(), "no-op delete must not write")
}

func TestDeleteTwiceIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	a, err := store.Add(ctx, photoA, "a")
	require.NoError(t, err)
	_, err = store.Add(ctx, photoA, "b")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, a.ID))
	once, err := store.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, a.ID))
	twice, err := store.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	for _, e := range twice {
		assert.NotEqual(t, a.ID, e.ID)
	}
}

func TestRoundTripAcrossStores(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()
	// Local time with sub-microsecond precision exercises serialization.
	start := time.Date(2026, 10, 19, 8, 30, 15, 123456789, time.Local)
	first := New(backend, slog.Default(), WithClock(stepClock(start)))

	const n = 5
	var added []domain.SavedPoemEntry
	for i := 0; i < n; i++ {
		e, err := first.Add(ctx, domain.PhotoReference(fmt.Sprintf("data:image/png;base64,%d", i)), domain.PoemResult(fmt.Sprintf("poem %d", i)))
		require.NoError(t, err)
		added = append(added, e)
	}

	second := New(backend, slog.Default())
	reloaded, err := second.Load(ctx)
	require.NoError(t, err)
	require.Len(t, reloaded, n)

	if diff := cmp.Diff(added, reloaded, cmpopts.EquateApproxTime(time.Microsecond)); diff != "" {
		t.Errorf("reloaded gallery mismatch (-want +got):\n%s", diff)
	}
}

func TestStoresSharingBackendSeeEachOthersWrites(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()
	server := New(backend, slog.Default())
	cli := New(backend, slog.Default())

	_, err := server.Add(ctx, photoA, "server one")
	require.NoError(t, err)

	x, err := cli.Add(ctx, photoA, "from cli")
	require.NoError(t, err)

	require.NoError(t, server.Delete(ctx, x.ID))
	entries, err := cli.Load(ctx)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, x.ID, e.ID, "deleted entry still stored")
	}

	_, err = server.Add(ctx, photoA, "server two")
	require.NoError(t, err)
	y, err := cli.Add(ctx, photoA, "cli again")
	require.NoError(t, err)

	entries, err = server.Load(ctx)
	require.NoError(t, err)
	var poems []domain.PoemResult
	for _, e := range entries {
		poems = append(poems, e.Poem)
	}
	assert.Equal(t, []domain.PoemResult{"server one", "server two", "cli again"}, poems)
	assert.Equal(t, y.ID, entries[2].ID)
}

func TestStorageLayout(t *testing.T) {
	store, backend := newTestStore(t,
		WithKey("custom"),
		WithClock(func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }),
		WithIDGenerator(func() string { return "id-1" }),
	)
	ctx := context.Background()

	_, err := store.Add(ctx, photoA, "verse")
	require.NoError(t, err)

	raw, err := backend.Get(ctx, "custom")
	require.NoError(t, err)

	var records []map[string]string
	require.NoError(t, json.Unmarshal(raw, &records))
	assert.Equal(t, []map[string]string{{
		"id":    "id-1",
		"photo": string(photoA),
		"poem":  "verse",
		"date":  "2026-03-04T05:06:07Z",
	}}, records)
}

func TestAddPersistFailureLeavesGalleryUnchanged(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()

	kept, err := store.Add(ctx, photoA, "kept")
	require.NoError(t, err)

	quota := errors.New("quota exceeded")
	backend.FailPuts(quota)

	_, err = store.Add(ctx, photoA, "lost")
	var perr *PersistError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "add", perr.Op)
	assert.ErrorIs(t, err, quota)

	// Later mutations must not resurrect the failed entry.
	backend.FailPuts(nil)
	_, err = store.Add(ctx, photoA, "next")
	require.NoError(t, err)

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, kept.ID, entries[0].ID)
	assert.Equal(t, domain.PoemResult("next"), entries[1].Poem)
}

func TestDeletePersistFailureLeavesGalleryUnchanged(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()

	e, err := store.Add(ctx, photoA, "stay")
	require.NoError(t, err)

	backend.FailPuts(errors.New("disk full"))
	err = store.Delete(ctx, e.ID)
	var perr *PersistError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "delete", perr.Op)

	backend.FailPuts(nil)
	_, err = store.Add(ctx, photoA, "other")
	require.NoError(t, err)

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, e.ID, entries[0].ID)
}

func TestLoadCorruptData(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, backend.Put(ctx, DefaultKey, []byte("{not json")))

	_, err := store.Load(ctx)
	assert.Error(t, err)

	_, err = store.Add(ctx, photoA, "x")
	assert.Error(t, err)
}

func TestLoadNull(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, backend.Put(ctx, DefaultKey, []byte("null")))

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	e, err := store.Add(ctx, photoA, "find me")
	require.NoError(t, err)

	got, ok, err := store.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.PoemResult("find me"), got.Poem)

	_, ok, err = store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadReturnsCopy(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, photoA, "original")
	require.NoError(t, err)

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	entries[0].Poem = "mutated"

	again, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.PoemResult("original"), again[0].Poem)
}

func TestRapidAddsHaveUniqueIDs(t *testing.T) {
	frozen := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store, _ := newTestStore(t, WithClock(func() time.Time { return frozen }))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Add(ctx, photoA, "same instant")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 20)

	seen := make(map[string]bool)
	for _, e := range entries {
		assert.False(t, seen[e.ID], "duplicate id %s", e.ID)
		seen[e.ID] = true
	}
}

func TestSaveAndDeleteScenario(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	entry, err := store.Add(ctx, photoA, "Sunset whispers gold")
	require.NoError(t, err)

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, photoA, entries[0].Photo)

	require.NoError(t, store.Delete(ctx, entry.ID))
	entries, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
