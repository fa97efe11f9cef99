// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package biblio

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/specmark/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.BiblioStoreConfig{Path: filepath.Join(t.TempDir(), "biblio.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStoreRequiresPath(t *testing.T) {
	_, err := NewStore(types.BiblioStoreConfig{})
	assert.Error(t, err)
}

func TestStoreSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ex := sampleIndex(t).Export("https://spec.example/")
	n, err := s.Save(ctx, ex)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	loaded, err := s.Load(ctx, "https://spec.example/")
	require.NoError(t, err)
	assert.Equal(t, ex.Entries, loaded.Entries)
	assert.Equal(t, ex.ByID, loaded.ByID)
	assert.Equal(t, ex.ByAoid, loaded.ByAoid)

	_, err = s.Load(ctx, "https://missing.example/")
	assert.Error(t, err)
}

func TestStoreSaveReplaces(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ex := sampleIndex(t).Export("https://spec.example/")
	_, err := s.Save(ctx, ex)
	require.NoError(t, err)

	ex.Entries = ex.Entries[:1]
	_, err = s.Save(ctx, ex)
	require.NoError(t, err)

	sums, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, 1, sums[0].EntryCount)
	assert.False(t, sums[0].StoredAt.IsZero())

	loaded, err := s.Load(ctx, "https://spec.example/")
	require.NoError(t, err)
	assert.Len(t, loaded.Entries, 1)
}

func TestStoreSaveRequiresLocation(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Save(context.Background(), Export{})
	assert.Error(t, err)
}

func TestStoreLookup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.Save(ctx, sampleIndex(t).Export("https://spec.example/"))
	require.NoError(t, err)

	tests := []struct {
		name string
		opts LookupOptions
		want int
	}{
		{"by id", LookupOptions{ID: "sec-a"}, 1},
		{"by aoid", LookupOptions{Aoid: "Foo"}, 2},
		{"by aoid and namespace", LookupOptions{Aoid: "Foo", Namespace: "other"}, 0},
		{"query matches caption", LookupOptions{Query: "Abstract Methods"}, 1},
		{"query matches aoid", LookupOptions{Query: "Fo"}, 2},
		{"limit", LookupOptions{Namespace: "spec", MaxResults: 3}, 3},
		{"no filter", LookupOptions{}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Lookup(ctx, tt.opts)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestLookupOptionsIsEmpty(t *testing.T) {
	assert.True(t, LookupOptions{MaxResults: 5}.IsEmpty())
	assert.False(t, LookupOptions{Query: "x"}.IsEmpty())
}

func TestStoreIndexesAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.Save(ctx, sampleIndex(t).Export("https://b.example/"))
	require.NoError(t, err)

	other := New()
	require.NoError(t, other.Add(clauseEntry("sec-z", "4"), "other"))
	_, err = s.Save(ctx, other.Export("https://a.example/"))
	require.NoError(t, err)

	ixs, err := s.Indexes(ctx)
	require.NoError(t, err)
	require.Len(t, ixs, 2)
	assert.Equal(t, 1, ixs[0].Len(), "indexes are ordered by location")
	assert.Equal(t, 4, ixs[1].Len())
	for _, ix := range ixs {
		assert.True(t, ix.Frozen())
	}

	require.NoError(t, s.Delete(ctx, "https://a.example/"))
	assert.Error(t, s.Delete(ctx, "https://a.example/"))

	got, err := s.Lookup(ctx, LookupOptions{ID: "sec-z"})
	require.NoError(t, err)
	assert.Empty(t, got, "deleting a biblio removes its entries")
}
