package main

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForServer(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		// unhealthy until the third probe
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, waitForServer(srv.URL+"/health", 5, time.Millisecond))
	assert.Equal(t, int32(3), calls.Load())
}

func TestWaitForServerGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := waitForServer(srv.URL+"/health", 2, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 attempts")
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"server"},
		{"db", "migrate"},
		{"db", "down"},
		{"db", "status"},
		{"organization", "create"},
		{"configuration", "show"},
		{"jobs", "run-once"},
		{"secret", "generate"},
		{"wait"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	for _, flag := range []string{"port", "bind-address", "no-migrate", "no-worker", "watch-config"} {
		assert.NotNil(t, serverCmd.Flags().Lookup(flag), flag)
	}
}
