package xrun

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xcorr/pkg/observability/xlog"
)

func discard(t *testing.T) xlog.Logger {
	t.Helper()
	l, _, err := xlog.New().SetOutput(io.Discard).SetLevel(xlog.LevelDebug).Build()
	require.NoError(t, err)
	return l
}

func TestGroup_Empty(t *testing.T) {
	g, _ := NewGroup(context.Background())
	assert.NoError(t, g.Wait())
}

func TestGroup_ServiceErrorCancelsOthers(t *testing.T) {
	trigger := errors.New("trigger")
	var stopped atomic.Bool

	g, ctx := NewGroup(context.Background(), WithName("test"), WithLogger(discard(t)))
	g.GoWithName("waiter", func(ctx context.Context) error {
		<-ctx.Done()
		stopped.Store(true)
		return ctx.Err()
	})
	g.GoWithName("failer", func(context.Context) error { return trigger })

	assert.ErrorIs(t, g.Wait(), trigger)
	assert.True(t, stopped.Load())
	assert.Error(t, ctx.Err())
}

func TestGroup_NilFunc(t *testing.T) {
	g, _ := NewGroup(context.Background(), nil)
	g.Go(nil)
	assert.ErrorIs(t, g.Wait(), ErrNilFunc)
}

func TestGroup_CancelCause(t *testing.T) {
	cause := errors.New("shutdown requested")
	g, _ := NewGroup(context.Background())
	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	g.Cancel(cause)
	assert.ErrorIs(t, g.Wait(), cause)
}

func TestGroup_ParentCancelIsNotAnError(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	g, _ := NewGroup(parent)
	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	cancel()
	assert.NoError(t, g.Wait())
}

func TestRun_Signal(t *testing.T) {
	sigCh := make(chan os.Signal, 1)
	ctx := withTestSigChan(context.Background(), sigCh)
	sigCh <- syscall.SIGTERM

	err := RunWithOptions(ctx, []Option{WithLogger(discard(t))}, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.ErrorIs(t, err, ErrSignal)
	var sigErr *SignalError
	require.ErrorAs(t, err, &sigErr)
	assert.Equal(t, syscall.SIGTERM, sigErr.Signal)
	assert.Equal(t, "received signal terminated", sigErr.Error())
}

func TestRun_WithoutSignalHandler(t *testing.T) {
	err := RunWithOptions(context.Background(), []Option{WithoutSignalHandler()},
		func(context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestDefaultSignals(t *testing.T) {
	s := DefaultSignals()
	assert.Len(t, s, 4)
	s[0] = nil
	assert.NotNil(t, DefaultSignals()[0])
}

// =============================================================================
// HTTPServer
// =============================================================================

func TestHTTPServer_ShutdownOnCancel(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &http.Server{
		Handler:           http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }),
		ReadHeaderTimeout: time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunWithOptions(ctx, []Option{WithoutSignalHandler()}, HTTPServer(OnListener(srv, lis), time.Second))
	}()

	client := &http.Client{Timeout: time.Second, Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + lis.Addr().String() + "/")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()
	assert.NoError(t, <-done)
}

func TestHTTPServer_ListenError(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, lis.Close())

	srv := &http.Server{ReadHeaderTimeout: time.Second}
	err = HTTPServer(OnListener(srv, lis), time.Second)(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, http.ErrServerClosed)
}

func TestHTTPServer_Nil(t *testing.T) {
	assert.ErrorIs(t, HTTPServer(nil, 0)(context.Background()), ErrNilServer)
}
