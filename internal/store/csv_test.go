package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/MoviePicker/internal/domain"
)

func TestCSV_SaveWritesHeaderAndRatings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")
	s := NewCSV(path)

	err := s.Save(context.Background(), domain.Records{
		{Title: "A", Rating: 8.5},
		{Title: "B", Rating: 8},
	})
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "Title,Rating\nA,8.5\nB,8.0\n", string(b))
}

func TestCSV_RoundTripPreservesOrderAndQuoting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")
	s := NewCSV(path)
	in := domain.Records{
		{Title: "Dune: Part Two", Rating: 8.6},
		{Title: `Horror, "Comedy" & More`, Rating: 6.9},
		{Title: "Line\nBreak", Rating: 7.25},
		{Title: "Zero", Rating: 0},
		{Title: "Dune: Part Two", Rating: 8.6},
	}

	require.NoError(t, s.Save(context.Background(), in))
	out, err := s.Load(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round-trip 不一致（-want +got）：\n%s", diff)
	}
}

func TestCSV_SaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")
	s := NewCSV(path)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, domain.Records{{Title: "Old1", Rating: 1.5}, {Title: "Old2", Rating: 2.5}}))
	require.NoError(t, s.Save(ctx, domain.Records{{Title: "New", Rating: 9.1}}))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.Records{{Title: "New", Rating: 9.1}}, out)
}

func TestCSV_LoadMissingIsNotFound(t *testing.T) {
	s := NewCSV(filepath.Join(t.TempDir(), "nope.csv"))
	_, err := s.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCSV_LoadHeaderOnlyIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")
	require.NoError(t, os.WriteFile(path, []byte("Title,Rating\n"), 0o644))

	out, err := NewCSV(path).Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestCSV_LoadToleratesExtraColumnsAndOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")
	require.NoError(t, os.WriteFile(path, []byte("Rating,Year,Title\n7.5,2024,X\n"), 0o644))

	out, err := NewCSV(path).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.Records{{Title: "X", Rating: 7.5}}, out)
}

func TestCSV_LoadMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"missing rating": "Title,Score\nA,8.0\n",
		"missing title":  "Name,Rating\nA,8.0\n",
		"bad rating":     "Title,Rating\nA,eight\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "movies.csv")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			_, err := NewCSV(path).Load(context.Background())
			require.Error(t, err)
			require.False(t, errors.Is(err, ErrNotFound), "格式错误不应被当作不存在：%v", err)

			var fe *FormatError
			require.ErrorAs(t, err, &fe)
			require.Equal(t, path, fe.Path)
		})
	}
}

func TestCSV_LoadSkipsEmptyCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")
	require.NoError(t, os.WriteFile(path, []byte("Title,Rating\nA,8.0\n,7.5\nB,\n  ,  \n"), 0o644))

	log, hook := test.NewNullLogger()
	got, err := (&CSV{Path: path, Log: log}).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.Records{{Title: "A", Rating: 8.0}}, got)

	require.Len(t, hook.AllEntries(), 3)
	for i, e := range hook.AllEntries() {
		require.Equal(t, logrus.WarnLevel, e.Level)
		require.Equal(t, i+2, e.Data["row"])
	}
}

func TestCSV_SaveCanceledWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewCSV(path).Save(ctx, domain.Records{{Title: "A", Rating: 1.1}})
	require.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}
