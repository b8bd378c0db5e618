package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/MoviePicker/internal/domain"
)

func TestSQLite_SaveLoadReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "movies.db")
	s := NewSQLite(path)
	ctx := context.Background()

	first := domain.Records{
		{Title: "A", Rating: 8.5},
		{Title: "B", Rating: 8},
		{Title: "A", Rating: 8.5},
	}
	require.NoError(t, s.Save(ctx, first))
	out, err := s.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(first, out); diff != "" {
		t.Fatalf("读回不一致（-want +got）：\n%s", diff)
	}

	second := domain.Records{{Title: "C", Rating: 6.1}}
	require.NoError(t, s.Save(ctx, second))
	out, err = s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, second, out)
}

func TestSQLite_LoadMissingIsNotFound(t *testing.T) {
	s := NewSQLite(filepath.Join(t.TempDir(), "missing.db"))
	_, err := s.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, s.Path, s.Location())
}

func TestStores_ImplementInterface(t *testing.T) {
	var _ Store = NewCSV("x.csv")
	var _ Store = NewSQLite("x.db")
}
