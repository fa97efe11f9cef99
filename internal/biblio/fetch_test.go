// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package biblio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func shortBackoff(t *testing.T) {
	t.Helper()
	prev := FetchBaseDelay
	FetchBaseDelay = time.Millisecond
	t.Cleanup(func() { FetchBaseDelay = prev })
}

func TestLoadRetriesOnRateLimit(t *testing.T) {
	shortBackoff(t)
	ex := sampleIndex(t).Export("https://spec.example/")
	body, err := yaml.Marshal(ex)
	require.NoError(t, err)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.Header().Set("Content-Type", "application/yaml")
			w.Write(body)
		}
	}))
	defer srv.Close()

	got, err := Load(context.Background(), srv.Client(), srv.URL+"/biblio.yaml")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, ex.Location, got.Location)
	assert.Equal(t, ex.ByID, got.ByID)
	assert.Len(t, got.Entries, len(ex.Entries))
}

func TestLoadJSONByContentType(t *testing.T) {
	ex := sampleIndex(t).Export("https://spec.example/")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ex)
	}))
	defer srv.Close()

	got, err := Load(context.Background(), srv.Client(), srv.URL+"/biblio")
	require.NoError(t, err)
	_, err = FromExport(got)
	require.NoError(t, err)
	assert.Equal(t, ex.ByAoid, got.ByAoid)
}

func TestLoadGivesUpAfterRetries(t *testing.T) {
	shortBackoff(t)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), srv.Client(), srv.URL+"/biblio.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Equal(t, int32(fetchMaxRetries+1), calls.Load())
}

func TestLoadNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := Load(context.Background(), srv.Client(), srv.URL+"/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestLoadCancelledDuringBackoff(t *testing.T) {
	prev := FetchBaseDelay
	FetchBaseDelay = time.Hour
	t.Cleanup(func() { FetchBaseDelay = prev })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := Load(ctx, srv.Client(), srv.URL+"/biblio.yaml")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoadLocalPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "biblio.yaml")
	ex := sampleIndex(t).Export("https://spec.example/")
	require.NoError(t, WriteFile(path, ex))

	got, err := Load(context.Background(), nil, path)
	require.NoError(t, err)
	assert.Equal(t, ex.ByID, got.ByID)
}
