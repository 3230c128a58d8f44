package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksentiment/internal/config"
	"stocksentiment/pkg/sentiment"
)

func TestDirExists(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, dirExists(dir))

	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	assert.False(t, dirExists(file))
	assert.False(t, dirExists(filepath.Join(dir, "missing")))
}

func TestResolveWebDir(t *testing.T) {
	tmp := t.TempDir()
	staticDir := filepath.Join(tmp, "static")
	require.NoError(t, os.MkdirAll(staticDir, 0o755))

	assert.Equal(t, staticDir, resolveWebDir(staticDir))
	assert.Empty(t, resolveWebDir(filepath.Join(tmp, "missing")))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmp))
	defer func() { _ = os.Chdir(cwd) }()

	assert.Equal(t, "static", resolveWebDir(""))

	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "web", "dist"), 0o755))
	assert.Equal(t, "web/dist", resolveWebDir(""))
}

func TestWatchParentExits(t *testing.T) {
	origGetppid, origSleep, origExit := getppid, sleep, exit
	defer func() {
		getppid, sleep, exit = origGetppid, origSleep, origExit
	}()

	getppid = func() int { return 1 }
	sleep = func(time.Duration) {}

	done := make(chan int, 1)
	exit = func(code int) {
		done <- code
		runtime.Goexit()
	}

	go watchParent(slog.New(slog.NewTextHandler(io.Discard, nil)))

	select {
	case code := <-done:
		assert.Zero(t, code)
	case <-time.After(time.Second):
		t.Fatal("watchParent did not exit")
	}
}

func TestApplyConfiguredModel(t *testing.T) {
	core, err := sentiment.Open(filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	defer core.Close()

	require.NoError(t, applyConfiguredModel(core, config.UserConfig{}))
	got, err := core.GetModelSettings()
	require.NoError(t, err)
	assert.Equal(t, sentiment.DefaultModelSettings(), got)

	require.NoError(t, applyConfiguredModel(core, config.UserConfig{Provider: "anthropic"}))
	got, err = core.GetModelSettings()
	require.NoError(t, err)
	assert.Equal(t, sentiment.ProviderAnthropic, got.Provider)

	assert.Error(t, applyConfiguredModel(core, config.UserConfig{Provider: "cohere"}))
}

func TestRunServesAndShutsDown(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("STOCK_SENTIMENT_DB_PATH", "")
	t.Setenv("STOCK_SENTIMENT_DATA_DIR", "")
	defer config.SetRuntimeDataDir("")
	origPort := config.GetRuntimePort()
	defer config.SetRuntimePort(origPort)

	prev := slog.Default()
	defer slog.SetDefault(prev)

	dataDir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, []string{"--data-dir", dataDir, "--port", "0", "--log-level", "warn"}, ready)
	}()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("run returned early: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr + "/api/health")
	require.NoError(t, err)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	_ = resp.Body.Close()
	assert.Equal(t, "ok", body["status"])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("run did not return after cancel")
	}
	assert.FileExists(t, filepath.Join(dataDir, "sentiment.db"))
	assert.DirExists(t, filepath.Join(dataDir, "logs"))
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	err := run(context.Background(), []string{"--nope"}, nil)
	assert.Error(t, err)
}
