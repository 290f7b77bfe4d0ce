package app

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := lis.Addr().(*net.TCPAddr).Port
	require.NoError(t, lis.Close())
	return port
}

func TestApp_RunAndShutdown(t *testing.T) {
	port := freePort(t)
	t.Setenv("CONFIG_PATH", t.TempDir())
	t.Setenv("APP_ENV", "test")
	t.Setenv("DATABASE_URL", "sqlite:///"+filepath.Join(t.TempDir(), "userboard.db"))
	t.Setenv("API_HOST", "127.0.0.1")
	t.Setenv("API_PORT", strconv.Itoa(port))
	t.Setenv("LOG_OUTPUT_PATH", "stderr")
	t.Setenv("LOG_LEVEL", "error")

	a, err := New(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	url := "http://127.0.0.1:" + strconv.Itoa(port) + "/"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("application did not shut down")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Setenv("CONFIG_PATH", t.TempDir())
	t.Setenv("APP_ENV", "test")
	t.Setenv("LOG_OUTPUT_PATH", "stderr")
	t.Setenv("DB_DRIVER", "mysql")

	_, err := New(context.Background())
	assert.ErrorContains(t, err, "config validation failed")
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, ".", getConfigPath())

	t.Setenv("CONFIG_PATH", "/etc/userboard")
	assert.Equal(t, "/etc/userboard", getConfigPath())
}
