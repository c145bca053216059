package api

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/VaultBox/internal/model"
	"github.com/dharsanguruparan/VaultBox/internal/storage"
)

// slowFiles delays listing so a request is still in flight when shutdown starts.
type slowFiles struct {
	*storage.MemoryStore
	delay    time.Duration
	entered  chan struct{}
	finished atomic.Bool
}

func (f *slowFiles) GetFilesByUserID(ctx context.Context, userID string) ([]model.FileItem, error) {
	close(f.entered)
	time.Sleep(f.delay)
	files, err := f.MemoryStore.GetFilesByUserID(ctx, userID)
	f.finished.Store(true)
	return files, err
}

func TestRunDrainsInFlightRequests(t *testing.T) {
	ts := newTestServer(t, nil)
	files := &slowFiles{MemoryStore: ts.store, delay: 300 * time.Millisecond, entered: make(chan struct{})}
	ts.srv.files = files
	ts.srv.handler = ts.srv.routes()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- ts.srv.serve(ctx, ln) }()

	status := make(chan int, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/api/files?userId=u1")
		if err != nil {
			status <- 0
			return
		}
		resp.Body.Close()
		status <- resp.StatusCode
	}()

	select {
	case <-files.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the repository")
	}
	cancel()

	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
	assert.True(t, files.finished.Load(), "serve returned while a request was still running")
	assert.Equal(t, http.StatusOK, <-status)
}

func TestRunReportsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	ts := newTestServer(t, map[string]string{"VAULTBOX_ADDRESS": ln.Addr().String()})
	err = ts.srv.Run(context.Background())
	assert.Error(t, err)
}
