package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleksKim19/testvideospkbot/internal/catalog"
	"github.com/AleksKim19/testvideospkbot/internal/models"
)

func newTestReconciler(t *testing.T, dir string, keepOnMissing bool) (*Reconciler, *catalog.Store) {
	t.Helper()
	store := catalog.NewStore()
	rec := NewReconciler(store, NewMediaScanner(dir, nil), ReconcilerOptions{
		URLPrefix:        "/videos",
		KeepOnMissingDir: keepOnMissing,
	}, zerolog.Nop())
	return rec, store
}

func TestReconciler_LoadCreatesRecords(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "clip1.mp4"))

	rec, store := newTestReconciler(t, dir, false)
	res, err := rec.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Added: 1, Total: 1}, res)

	got := store.List("")
	require.Len(t, got, 1)
	assert.Equal(t, models.Video{
		ID:         1,
		Title:      "clip1",
		URL:        "/videos/clip1.mp4",
		City:       models.CityUnspecified,
		UploadedBy: models.UploadedByManual,
	}, got[0])
}

func TestReconciler_LoadNeverRemoves(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.mp4"))

	rec, store := newTestReconciler(t, dir, false)
	_, err := rec.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "a.mp4")))
	res, err := rec.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Removed)
	assert.Equal(t, 1, store.Len())
}

func TestReconciler_RefreshIdempotent(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.mp4"))
	touch(t, filepath.Join(dir, "b.avi"))

	rec, store := newTestReconciler(t, dir, false)
	_, err := rec.Refresh(context.Background())
	require.NoError(t, err)
	first := store.List("")

	res, err := rec.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Total: 2}, res)
	assert.Equal(t, first, store.List(""))
}

func TestReconciler_RefreshKeepsIDsOfSurvivors(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.mp4"))
	touch(t, filepath.Join(dir, "b.mp4"))

	rec, store := newTestReconciler(t, dir, false)
	_, err := rec.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "a.mp4")))
	touch(t, filepath.Join(dir, "c.mov"))

	res, err := rec.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Added: 1, Removed: 1, Total: 2}, res)

	got := store.List("")
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Title)
	assert.Equal(t, 2, got[0].ID)
	assert.Equal(t, "c", got[1].Title)
	assert.Equal(t, 3, got[1].ID)

	_, err = store.Get(1)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestReconciler_ReappearedFileGetsNewID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.mp4")
	touch(t, path)

	rec, store := newTestReconciler(t, dir, false)
	_, err := rec.Refresh(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	_, err = rec.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())

	touch(t, path)
	_, err = rec.Refresh(context.Background())
	require.NoError(t, err)

	got := store.List("")
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ID)
}

func TestReconciler_MissingDirEmptiesCatalog(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.mp4"))

	rec, store := newTestReconciler(t, dir, false)
	_, err := rec.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(dir))
	res, err := rec.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, res.DirMissing)
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, 0, store.Len())
}

func TestReconciler_MissingDirFreshStore(t *testing.T) {
	rec, store := newTestReconciler(t, filepath.Join(t.TempDir(), "absent"), false)

	res, err := rec.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, res.DirMissing)
	assert.Empty(t, store.List(""))
}

func TestReconciler_MissingDirKeepsCatalogWhenConfigured(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.mp4"))

	rec, store := newTestReconciler(t, dir, true)
	_, err := rec.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(dir))
	res, err := rec.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, res.DirMissing)
	assert.Equal(t, 0, res.Removed)
	assert.Equal(t, 1, store.Len())
}

func TestReconciler_ScanErrorKeepsCatalog(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.mp4"))

	rec, store := newTestReconciler(t, dir, false)
	_, err := rec.Load(context.Background())
	require.NoError(t, err)

	// replace the directory with a regular file so ReadDir fails
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0o644))

	res, err := rec.Refresh(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, catalog.ErrNotFound))
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, store.Len())
}

func TestReconciler_EndToEndScenario(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "clip1.mp4"))

	rec, store := newTestReconciler(t, dir, false)
	_, err := rec.Load(context.Background())
	require.NoError(t, err)

	got := store.List("")
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, "clip1", got[0].Title)
	assert.Equal(t, models.CityUnspecified, got[0].City)

	require.NoError(t, os.Remove(filepath.Join(dir, "clip1.mp4")))
	touch(t, filepath.Join(dir, "clip2.mov"))

	res, err := rec.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	got = store.List("")
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ID)
	assert.Equal(t, "clip2", got[0].Title)
	assert.Equal(t, "/videos/clip2.mov", got[0].URL)
}

func TestDerivePathAndTitle(t *testing.T) {
	assert.Equal(t, "/videos/a b.mp4", DerivePath("/videos", "a b.mp4"))
	assert.Equal(t, "/media/x.mov", DerivePath("media/", "x.mov"))
	assert.Equal(t, "my.holiday", TitleFromFile("my.holiday.mp4"))
	assert.Equal(t, "noext", TitleFromFile("noext"))
}
