package manager

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"dockermirror/internal/config"
)

// fakeRuntime enregistre les appels et échoue sur l'opération demandée
type fakeRuntime struct {
	mu     sync.Mutex
	calls  []string
	failOn map[string]error // clé: "push r/ns/nginx:1.25"
	closed bool
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{failOn: make(map[string]error)}
}

func (f *fakeRuntime) do(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.failOn[call]
}

func (f *fakeRuntime) Login(ctx context.Context, registry, username, password string) error {
	return f.do("login " + registry + " " + username)
}

func (f *fakeRuntime) Pull(ctx context.Context, ref, platform string) error {
	if platform != "" {
		return f.do("pull " + ref + " " + platform)
	}
	return f.do("pull " + ref)
}

func (f *fakeRuntime) Tag(ctx context.Context, source, target string) error {
	return f.do("tag " + source + " " + target)
}

func (f *fakeRuntime) Push(ctx context.Context, ref string) error {
	return f.do("push " + ref)
}

func (f *fakeRuntime) Remove(ctx context.Context, ref string) error {
	return f.do("rmi " + ref)
}

func (f *fakeRuntime) Close() error {
	f.closed = true
	return nil
}

func (f *fakeRuntime) called(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeRuntime) String() string {
	return fmt.Sprintf("%v", f.calls)
}

var testTarget = config.Target{Registry: "registry.example.com", Namespace: "mirror"}

func testSettings() config.Settings {
	return config.Settings{
		Target:      testTarget,
		Credentials: config.Credentials{Username: "robot", Password: "s3cret"},
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestManager(t *testing.T, cfg *config.Config, rt *fakeRuntime) *MirrorManager {
	t.Helper()
	if cfg == nil {
		cfg = config.NewConfig()
	}
	cfg.Logger = testLogger()

	m, err := newMirrorManager(cfg, testSettings(), rt, cfg.Logger)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}
