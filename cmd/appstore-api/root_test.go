package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/appstore-api/internal/app"
)

func TestVersionSkipsAppInit(t *testing.T) {
	orig := newApp
	t.Cleanup(func() { newApp = orig })
	newApp = func(context.Context, string) (*app.App, error) {
		t.Fatal("version must not build the application")
		return nil, nil
	}

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "appstore-api dev")
}

func TestRootReportsInitFailure(t *testing.T) {
	orig := newApp
	t.Cleanup(func() { newApp = orig })
	var gotPath string
	newApp = func(_ context.Context, path string) (*app.App, error) {
		gotPath = path
		return nil, errors.New("cache.redis_addr is required")
	}

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"serve", "--config", "missing.yaml"})
	err := cmd.Execute()
	require.ErrorContains(t, err, "failed to initialize application services")
	require.Equal(t, "missing.yaml", gotPath)
}

func TestResolveAppWithoutInit(t *testing.T) {
	t.Parallel()

	_, err := resolveApp(context.Background())
	require.Error(t, err)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, time.Second, zap.NewNop()) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestServeReportsListenError(t *testing.T) {
	t.Parallel()

	srv := &http.Server{Addr: "127.0.0.1:-1", ReadHeaderTimeout: time.Second}
	err := serve(context.Background(), srv, time.Second, zap.NewNop())
	require.ErrorContains(t, err, "http server")
}
