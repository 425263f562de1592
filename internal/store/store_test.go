package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast-ai/skycast/internal/records"
)

// storeFactories returns a fresh instance of every store implementation so
// the whole suite runs against both.
func storeFactories(t *testing.T) map[string]records.Store {
	t.Helper()

	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]records.Store{
		"sqlite": sqliteStore,
		"memory": NewMemoryStore(),
	}
}

func insertRecord(t *testing.T, s records.Store, city string, temp float64, desc string) *records.WeatherRecord {
	t.Helper()

	rec := &records.WeatherRecord{City: city, Temp: temp, Desc: desc}
	require.NoError(t, s.Insert(context.Background(), rec))
	require.NotZero(t, rec.ID)
	return rec
}

func TestStoreInsertAndGet(t *testing.T) {
	for name, s := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			rec := insertRecord(t, s, "Paris", 12.5, "light rain")
			assert.False(t, rec.CreatedAt.IsZero())

			got, err := s.Get(ctx, rec.ID)
			require.NoError(t, err)
			assert.Equal(t, "Paris", got.City)
			assert.Equal(t, 12.5, got.Temp)
			assert.Equal(t, "light rain", got.Desc)

			_, err = s.Get(ctx, rec.ID+100)
			assert.ErrorIs(t, err, records.ErrNotFound)
		})
	}
}

func TestStoreListOrdering(t *testing.T) {
	for name, s := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			insertRecord(t, s, "Paris", 12.5, "rain")
			insertRecord(t, s, "Oslo", -3.0, "snow")
			insertRecord(t, s, "Cairo", 30.0, "clear sky")

			byID, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, byID, 3)
			assert.Equal(t, "Paris", byID[0].City)
			assert.Equal(t, "Cairo", byID[2].City)

			byTemp, err := s.SortedByTemp(ctx)
			require.NoError(t, err)
			require.Len(t, byTemp, 3)
			assert.Equal(t, "Oslo", byTemp[0].City)
			assert.Equal(t, "Cairo", byTemp[2].City)
		})
	}
}

func TestStoreUpdateDesc(t *testing.T) {
	for name, s := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			rec := insertRecord(t, s, "Paris", 12.5, "rain")

			updated, err := s.UpdateDesc(ctx, rec.ID, "sunny")
			require.NoError(t, err)
			assert.Equal(t, "sunny", updated.Desc)
			assert.Equal(t, rec.ID, updated.ID)

			_, err = s.UpdateDesc(ctx, rec.ID+100, "sunny")
			assert.ErrorIs(t, err, records.ErrNotFound)
		})
	}
}

func TestStoreDelete(t *testing.T) {
	for name, s := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			rec := insertRecord(t, s, "Paris", 12.5, "rain")

			deleted, err := s.Delete(ctx, rec.ID)
			require.NoError(t, err)
			assert.True(t, deleted)

			deleted, err = s.Delete(ctx, rec.ID)
			require.NoError(t, err)
			assert.False(t, deleted)
		})
	}
}

func TestStoreDeleteMany(t *testing.T) {
	for name, s := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			a := insertRecord(t, s, "Paris", 12.5, "rain")
			b := insertRecord(t, s, "Oslo", -3.0, "snow")

			deleted, missing, err := s.DeleteMany(ctx, []int64{a.ID, 999, b.ID})
			require.NoError(t, err)
			assert.Equal(t, []int64{a.ID, b.ID}, deleted)
			assert.Equal(t, []int64{999}, missing)

			remaining, err := s.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, remaining)
		})
	}
}

func TestStoreDeleteManyEmpty(t *testing.T) {
	for name, s := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			deleted, missing, err := s.DeleteMany(context.Background(), nil)
			require.NoError(t, err)
			assert.Empty(t, deleted)
			assert.Empty(t, missing)
		})
	}
}
