package manager

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dockermirror/internal/config"
	"dockermirror/internal/notify"
	"dockermirror/internal/types"
	"dockermirror/internal/types/options"
)

func TestRunMirrorsInOrder(t *testing.T) {
	rt := newFakeRuntime()
	m := newTestManager(t, nil, rt)

	summary, err := m.Run(context.Background(), entries(
		"nginx:latest",
		"library/nginx:1.25",
		"--platform linux/arm64 redis:7",
	), options.NewRunOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Mirrored)
	assert.Equal(t, []string{"nginx"}, summary.Collisions)
	assert.NotEmpty(t, summary.RunID)

	assert.Equal(t, []string{
		"login registry.example.com robot",
		"pull nginx:latest",
		"tag nginx:latest registry.example.com/mirror/nginx:latest",
		"push registry.example.com/mirror/nginx:latest",
		"rmi nginx:latest",
		"rmi registry.example.com/mirror/nginx:latest",
		"pull library/nginx:1.25",
		"tag library/nginx:1.25 registry.example.com/mirror/library_nginx:1.25",
		"push registry.example.com/mirror/library_nginx:1.25",
		"rmi library/nginx:1.25",
		"rmi registry.example.com/mirror/library_nginx:1.25",
		"pull redis:7 linux/arm64",
		"tag redis:7 registry.example.com/mirror/linux_arm64_redis:7",
		"push registry.example.com/mirror/linux_arm64_redis:7",
		"rmi redis:7",
		"rmi registry.example.com/mirror/linux_arm64_redis:7",
	}, rt.calls)
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	rt := newFakeRuntime()
	rt.failOn["push registry.example.com/mirror/b:1"] = errors.New("denied")
	m := newTestManager(t, nil, rt)

	summary, err := m.Run(context.Background(), entries("a:1", "b:1", "c:1"), options.NewRunOptions())
	require.Error(t, err)

	assert.True(t, types.IsErrorType(err, types.ErrTypeTransfer))
	var mErr *types.MirrorError
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, types.StepPush, mErr.Step)
	assert.Equal(t, 2, mErr.Entry.Line)

	assert.Equal(t, 1, summary.Mirrored)
	assert.Empty(t, rt.called("pull c:1"), "entry after the failure must not be attempted")
	assert.Empty(t, rt.called("rmi b:1"), "failed entry is not cleaned up")
}

func TestRunPullFailure(t *testing.T) {
	rt := newFakeRuntime()
	rt.failOn["pull a:1"] = errors.New("not found")
	m := newTestManager(t, nil, rt)

	_, err := m.Run(context.Background(), entries("a:1", "b:1"), options.NewRunOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pull of a:1 failed (line 1)")
	assert.Empty(t, rt.called("tag"))
	assert.Empty(t, rt.called("pull b:1"))
}

func TestRunIgnoresCleanupFailures(t *testing.T) {
	rt := newFakeRuntime()
	rt.failOn["rmi a:1"] = errors.New("image is in use")
	rt.failOn["rmi registry.example.com/mirror/b:1"] = errors.New("no such image")
	m := newTestManager(t, nil, rt)

	summary, err := m.Run(context.Background(), entries("a:1", "b:1"), options.NewRunOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Mirrored)
	assert.Len(t, rt.called("rmi"), 4)
}

func TestRunKeepImages(t *testing.T) {
	rt := newFakeRuntime()
	m := newTestManager(t, nil, rt)

	_, err := m.Run(context.Background(), entries("a:1"), options.NewRunOptions(options.WithRunCleanup(false)))
	require.NoError(t, err)
	assert.Empty(t, rt.called("rmi"))
}

func TestRunLoginFailure(t *testing.T) {
	rt := newFakeRuntime()
	rt.failOn["login registry.example.com robot"] = errors.New("unauthorized")
	m := newTestManager(t, nil, rt)

	summary, err := m.Run(context.Background(), entries("a:1"), options.NewRunOptions())
	require.Error(t, err)
	assert.True(t, types.IsErrorType(err, types.ErrTypeAuthentication))
	assert.NotContains(t, err.Error(), "s3cret")
	assert.Equal(t, 0, summary.Mirrored)
	assert.Empty(t, rt.called("pull"))
}

func TestRunCancelled(t *testing.T) {
	rt := newFakeRuntime()
	m := newTestManager(t, nil, rt)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Run(ctx, entries("a:1"), options.NewRunOptions())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rt.called("pull"))
}

func TestRunEmptyList(t *testing.T) {
	rt := newFakeRuntime()
	m := newTestManager(t, nil, rt)

	summary, err := m.Run(context.Background(), nil, options.NewRunOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, []string{"login registry.example.com robot"}, rt.calls)
}

func TestRunFileMissing(t *testing.T) {
	rt := newFakeRuntime()
	m := newTestManager(t, nil, rt)

	_, err := m.RunFile(context.Background(), filepath.Join(t.TempDir(), "images.txt"), options.NewRunOptions())
	require.Error(t, err)
	assert.True(t, types.IsErrorType(err, types.ErrTypeConfiguration))
	assert.Empty(t, rt.calls)
}

func TestRunRecordsHistory(t *testing.T) {
	cfg := config.NewConfig()
	cfg.DbPath = filepath.Join(t.TempDir(), "history.db")

	rt := newFakeRuntime()
	rt.failOn["tag b:1 registry.example.com/mirror/b:1"] = errors.New("boom")
	m := newTestManager(t, cfg, rt)

	summary, err := m.Run(context.Background(), entries("a:1", "b:1", "c:1"), options.NewRunOptions())
	require.Error(t, err)

	history, err := m.db.GetHistory(options.HistoryOptions{RunID: summary.RunID})
	require.NoError(t, err)
	require.Len(t, history, 2)

	byLine := map[int]types.HistoryEntry{}
	for _, h := range history {
		byLine[h.Line] = h
	}
	assert.Equal(t, types.StatusMirrored, byLine[1].Status)
	assert.Equal(t, "registry.example.com/mirror/a:1", byLine[1].Destination)
	assert.Equal(t, types.StatusFailed, byLine[2].Status)
	assert.Contains(t, byLine[2].Message, "tag of b:1")
}

func TestCloseClosesRuntime(t *testing.T) {
	rt := newFakeRuntime()
	cfg := config.NewConfig()
	cfg.Logger = testLogger()

	m, err := newMirrorManager(cfg, testSettings(), rt, cfg.Logger)
	require.NoError(t, err)
	require.NoError(t, m.Close())
	assert.True(t, rt.closed)
}

func TestRunNotifications(t *testing.T) {
	var mu sync.Mutex
	var titles []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg notify.Message
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		mu.Lock()
		titles = append(titles, msg.Title)
		mu.Unlock()
	}))
	defer srv.Close()

	cfg := config.NewConfig()
	cfg.AppriseURL = srv.URL
	rt := newFakeRuntime()
	rt.failOn["pull b:1"] = errors.New("manifest unknown")
	m := newTestManager(t, cfg, rt)

	withNotify := options.NewRunOptions(options.WithRunNotify(true))

	_, err := m.Run(context.Background(), entries("a:1"), withNotify)
	require.NoError(t, err)
	_, err = m.Run(context.Background(), entries("b:1"), withNotify)
	require.Error(t, err)
	_, err = m.Run(context.Background(), entries("a:1"), options.NewRunOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Run(ctx, entries("a:1"), withNotify)
	require.ErrorIs(t, err, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Image Mirror Completed", "Image Mirror Failed"}, titles)
}
