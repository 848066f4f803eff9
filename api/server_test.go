package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admetric/admetric/internal/history"
	"github.com/admetric/admetric/internal/log"
	"github.com/admetric/admetric/internal/router"
	"github.com/admetric/admetric/internal/session"
	"github.com/admetric/admetric/internal/toolhub"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	hub, err := toolhub.New(&stubWarehouse{written: true}, log.NewNop())
	require.NoError(t, err)

	rt := &mockRouter{result: router.Result{Branch: router.BranchGeneric, Answer: "hi there"}}
	store := session.NewMemoryStore(time.Minute, log.NewNop())

	return NewServer(rt, store, session.NewLocks(), history.NewBuffer(10), hub, nil, log.NewNop())
}

func TestServer_RoutesAreWired(t *testing.T) {
	t.Parallel()

	handler := newTestServer(t).Handler()

	t.Run("chat", func(t *testing.T) {
		body, _ := json.Marshal(ChatRequest{Message: "hello"})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body)))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("tools manifest", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tools", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("health", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown path", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestServer_RunShutsDownOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, "127.0.0.1:0")
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
