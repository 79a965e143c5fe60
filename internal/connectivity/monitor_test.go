package connectivity

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
)

func TestMonitor_SetAndOnline(t *testing.T) {
	m := NewMonitor(false)
	assert.False(t, m.Online())

	assert.True(t, m.Set(true))
	assert.True(t, m.Online())

	assert.False(t, m.Set(true), "repeated status is not a transition")
}

func TestMonitor_EverySubscriberSeesEveryTransition(t *testing.T) {
	m := NewMonitor(false)

	var a, b []bool
	unsubA := m.Subscribe(func(online bool) { a = append(a, online) })
	defer unsubA()
	unsubB := m.Subscribe(func(online bool) { b = append(b, online) })
	defer unsubB()

	m.Set(true)
	m.Set(true)
	m.Set(false)
	m.Set(false)
	m.Set(true)

	expected := []bool{true, false, true}
	assert.Equal(t, expected, a)
	assert.Equal(t, expected, b)
}

func TestMonitor_Unsubscribe(t *testing.T) {
	m := NewMonitor(false)

	calls := 0
	unsubscribe := m.Subscribe(func(bool) { calls++ })
	assert.Equal(t, 1, m.Subscribers())

	m.Set(true)
	unsubscribe()
	unsubscribe()
	m.Set(false)

	assert.Equal(t, 1, calls)
	assert.Zero(t, m.Subscribers())
}

func TestMonitor_ConcurrentSet(t *testing.T) {
	m := NewMonitor(false)

	var transitions atomic.Int64
	var last atomic.Bool
	m.Subscribe(func(online bool) {
		transitions.Add(1)
		last.Store(online)
	})

	var wg sync.WaitGroup
	var reported atomic.Int64
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(online bool) {
			defer wg.Done()
			if m.Set(online) {
				reported.Add(1)
			}
		}(i%2 == 0)
	}
	wg.Wait()

	assert.Equal(t, reported.Load(), transitions.Load())
	assert.Equal(t, m.Online(), last.Load())
}

func TestHTTPProbe(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodHead, r.Method)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		assert.True(t, HTTPProbe(srv.URL, time.Second)(context.Background()))
	})

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		assert.False(t, HTTPProbe(srv.URL, time.Second)(context.Background()))
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		assert.False(t, HTTPProbe(url, time.Second)(context.Background()))
	})
}

func TestMonitor_Watch(t *testing.T) {
	m := NewMonitor(false)

	var online atomic.Bool
	online.Store(true)
	changed := make(chan bool, 4)
	m.Subscribe(func(o bool) { changed <- o })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- m.Watch(ctx, 10*time.Millisecond, func(context.Context) bool { return online.Load() })
	}()

	select {
	case o := <-changed:
		assert.True(t, o)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not report online")
	}

	online.Store(false)
	select {
	case o := <-changed:
		assert.False(t, o)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not report offline")
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestMonitor_WatchRejectsBadInterval(t *testing.T) {
	err := NewMonitor(false).Watch(context.Background(), 0, func(context.Context) bool { return true })
	assert.Error(t, err)
}
