package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin-ch-day/Nethira/internal/report"
	"github.com/kevin-ch-day/Nethira/internal/risk"
	"github.com/kevin-ch-day/Nethira/internal/scan"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "db", "nethira.db"),
		WithClock(func() time.Time {
			tick = tick.Add(time.Minute)
			return tick
		}))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func entry(pkg, version, hash string, suspicious ...string) report.Entry {
	r := scan.Empty(pkg)
	r.Suspicious = suspicious
	r.Permissions = suspicious
	e := report.NewEntry(r)
	e.Version = version
	e.ContentHash = hash
	return e
}

func TestLatestByPackage(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.SaveScan(ctx, entry("com.example.app", "1.0", "h1"), "R58M")
	require.NoError(t, err)
	_, err = s.SaveScan(ctx, entry("com.example.app", "1.1", "h2", "android.permission.CAMERA"), "R58M")
	require.NoError(t, err)
	_, err = s.SaveScan(ctx, entry("com.other", "3", "h3"), "local")
	require.NoError(t, err)

	got, err := s.LatestByPackage(ctx, "com.example.app")
	require.NoError(t, err)
	assert.Equal(t, "1.1", got.Version)
	assert.Equal(t, "h2", got.ContentHash)
	assert.Equal(t, "R58M", got.Source)
	assert.InDelta(t, 1.0, got.Score, 1e-9)
	assert.Equal(t, risk.Low, got.Level)
	assert.Equal(t, []string{"android.permission.CAMERA"}, got.Entry.Suspicious)
	assert.Equal(t, "com.example.app", got.Entry.Package)
}

func TestLatestByPackageMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.LatestByPackage(context.Background(), "com.absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByHash(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for _, e := range []report.Entry{
		entry("com.a", "1", "same"),
		entry("com.b", "1", "other"),
		entry("com.a.clone", "1", "same"),
	} {
		_, err := s.SaveScan(ctx, e, "local")
		require.NoError(t, err)
	}

	got, err := s.ListByHash(ctx, "same")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "com.a", got[0].Package)
	assert.Equal(t, "com.a.clone", got[1].Package)
	assert.True(t, got[0].ScannedAt.Before(got[1].ScannedAt))

	none, err := s.ListByHash(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nethira.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = s.SaveScan(ctx, entry("com.example", "2", "h"), "local")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.LatestByPackage(ctx, "com.example")
	require.NoError(t, err)
	assert.Equal(t, "2", got.Version)
}
