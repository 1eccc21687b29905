package gameserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeServer writes an executable shell script standing in for the game
// server binary.
func writeServer(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gomoku-httpd")
	script := "#!/bin/sh\n" + body
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func testLifecycle(t *testing.T, serverPath string, opts ...LifecycleOption) *Lifecycle {
	t.Helper()
	opts = append([]LifecycleOption{WithStartupGrace(100 * time.Millisecond)}, opts...)
	l, err := NewLifecycle(serverPath, 18999, zerolog.Nop(), opts...)
	require.NoError(t, err)
	return l
}

func TestLifecycleStartStop(t *testing.T) {
	server := writeServer(t, `
echo "listening on port $2"
trap 'exit 0' TERM INT
while :; do sleep 0.05; done
`)

	l := testLifecycle(t, server)
	assert.Equal(t, "http://localhost:18999", l.BaseURL())

	p, err := l.Start(context.Background())
	require.NoError(t, err)
	assert.True(t, p.Alive())
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, []string{"-b", "18999"}, p.Args)

	require.NoError(t, l.Stop(p))
	assert.False(t, p.Alive())

	select {
	case <-p.Done():
	default:
		t.Fatal("done channel should be closed after stop")
	}
}

func TestLifecycleStopTwiceFails(t *testing.T) {
	server := writeServer(t, `
trap 'exit 0' TERM INT
while :; do sleep 0.05; done
`)

	l := testLifecycle(t, server)
	p, err := l.Start(context.Background())
	require.NoError(t, err)

	require.NoError(t, l.Stop(p))
	assert.ErrorIs(t, l.Stop(p), ErrStopped)
}

func TestLifecycleStartupFailure(t *testing.T) {
	server := writeServer(t, `
echo "bind: address already in use" >&2
exit 1
`)

	l := testLifecycle(t, server)
	p, err := l.Start(context.Background())
	require.Error(t, err)
	assert.Nil(t, p)
	assert.Contains(t, err.Error(), "exited during startup")
	assert.Contains(t, err.Error(), "bind: address already in use")
}

func TestLifecycleStopEscalatesToKill(t *testing.T) {
	server := writeServer(t, `
trap '' TERM
while :; do sleep 0.05; done
`)

	l := testLifecycle(t, server, WithKillAfter(100*time.Millisecond))
	p, err := l.Start(context.Background())
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, l.Stop(p))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.False(t, p.Alive())
}

func TestLifecycleStartCanceled(t *testing.T) {
	server := writeServer(t, `
trap 'exit 0' TERM INT
while :; do sleep 0.05; done
`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := testLifecycle(t, server, WithStartupGrace(10*time.Second))
	p, err := l.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, p)
}

func TestNewLifecycleMissingBinary(t *testing.T) {
	_, err := NewLifecycle(filepath.Join(t.TempDir(), "no-such-httpd"), 8999, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server binary not found")
}

func TestNewLifecycleInvalidPort(t *testing.T) {
	server := writeServer(t, "exit 0\n")

	_, err := NewLifecycle(server, 0, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
}

func TestLifecycleStartupFailureExitCode(t *testing.T) {
	server := writeServer(t, "exit 3\n")

	l := testLifecycle(t, server)
	p, err := l.Start(context.Background())
	require.Error(t, err)
	assert.Nil(t, p)
	assert.Contains(t, err.Error(), "exit status 3")
}
