package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleksKim19/testvideospkbot/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		ServiceName:     "videobot",
		Environment:     "test",
		HTTPPort:        0, // any free port
		ShutdownTimeout: time.Second,
		VideosDir:       filepath.Join(t.TempDir(), "videos"),
		VideosURLPrefix: "/videos",
		VideoExtensions: []string{".mp4", ".avi", ".mov"},
		RefreshInterval: 20 * time.Millisecond,
		CreateVideosDir: true,
	}
}

func TestNewApplication_CreatesVideosDir(t *testing.T) {
	cfg := testConfig(t)

	_, err := NewApplication(cfg, zerolog.Nop())
	require.NoError(t, err)

	info, err := os.Stat(cfg.VideosDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestApplication_LoadThenServe(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.VideosDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.VideosDir, "clip1.mp4"), []byte("x"), 0o644))

	a, err := NewApplication(cfg, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, a.Load(context.Background()))
	require.Equal(t, 1, a.Store().Len())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Start(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(cfg.VideosDir, "clip2.mov"), []byte("x"), 0o644))
	require.Eventually(t, func() bool { return a.Store().Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("application did not stop")
	}
}
