package autosave

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/inversure/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	m.Run()
}

func newTestController(t *testing.T, url string, build PayloadFunc) *Controller {
	t.Helper()
	c, err := NewController(Config{SaveURL: url, Debounce: 20 * time.Millisecond}, build)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNewControllerRequiresSaveURL(t *testing.T) {
	t.Parallel()
	_, err := NewController(Config{}, func() (interface{}, error) { return nil, nil })
	assert.Error(t, err)
}

func TestFlushPostsWrappedPayload(t *testing.T) {
	t.Parallel()

	var gotCSRF string
	var body atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCSRF = r.Header.Get("X-CSRFToken")
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		body.Store(string(buf))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewController(Config{
		SaveURL:   srv.URL,
		CSRFToken: func() string { return "tok123" },
	}, func() (interface{}, error) {
		return map[string]string{"nombre": "Piso Centro"}, nil
	})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, "tok123", gotCSRF)
	assert.Contains(t, body.Load().(string), `"payload"`)
	assert.Contains(t, body.Load().(string), "Piso Centro")
}

func TestUnchangedPayloadIsNotResent(t *testing.T) {
	t.Parallel()

	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestController(t, srv.URL, func() (interface{}, error) {
		return map[string]string{"nombre": "sin cambios"}, nil
	})

	require.NoError(t, c.Flush(context.Background()))
	require.NoError(t, c.Flush(context.Background()))
	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestFailedSaveIsRetriedWithSamePayload(t *testing.T) {
	t.Parallel()

	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestController(t, srv.URL, func() (interface{}, error) {
		return map[string]string{"nombre": "reintento"}, nil
	})

	assert.Error(t, c.Flush(context.Background()))
	// The failure must not poison the skip signature.
	assert.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestSavesCoalesceWhileInFlight(t *testing.T) {
	t.Parallel()

	var requests int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			<-release
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var version int32
	c := newTestController(t, srv.URL, func() (interface{}, error) {
		return map[string]int32{"version": atomic.AddInt32(&version, 1)}, nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Flush(context.Background())
	}()

	// Wait until the first request is blocked inside the server.
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&requests) == 1
	}, time.Second, 5*time.Millisecond)

	// Three more saves while one is in flight collapse into a single
	// follow-up request.
	for i := 0; i < 3; i++ {
		require.NoError(t, c.save(context.Background()))
	}
	close(release)
	wg.Wait()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&requests) == 2
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestScheduleDebounces(t *testing.T) {
	t.Parallel()

	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var version int32
	c := newTestController(t, srv.URL, func() (interface{}, error) {
		return map[string]int32{"version": atomic.AddInt32(&version, 1)}, nil
	})

	// A burst of schedules inside the debounce window fires one save.
	for i := 0; i < 5; i++ {
		c.Schedule()
		time.Sleep(2 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&requests) == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestCancelDropsPendingSave(t *testing.T) {
	t.Parallel()

	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestController(t, srv.URL, func() (interface{}, error) {
		return map[string]string{"nombre": "descartado"}, nil
	})

	c.Schedule()
	c.Cancel()
	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&requests))
}
