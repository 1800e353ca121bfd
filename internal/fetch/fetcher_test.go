package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pipeerr "github.com/secondlife/create/internal/errors"
	"github.com/secondlife/create/internal/retry"
)

func fastPolicy() retry.Policy {
	return retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 2)
}

func TestFetch_WritesExactBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("llsd-lsl-syntax-version: 2\nconstants: {}\n"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "data", "lsl_definitions.yaml")
	f := New(time.Second, fastPolicy())
	require.NoError(t, f.Fetch(context.Background(), srv.URL, dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "llsd-lsl-syntax-version: 2\nconstants: {}\n", string(got))
}

func TestFetch_NotFoundLeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "lsl_definitions.yaml")
	f := New(time.Second, fastPolicy())
	err := f.Fetch(context.Background(), srv.URL, dest)
	require.Error(t, err)
	assert.True(t, pipeerr.IsCategory(err, pipeerr.CategoryFetch))
	assert.False(t, pipeerr.IsRetryable(err)) // 4xx is permanent

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetch_RetriesTransientServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("constants: {}\n"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "lsl_definitions.yaml")
	f := New(time.Second, fastPolicy())
	require.NoError(t, f.Fetch(context.Background(), srv.URL, dest))
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetch_RetriesExhausted(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := New(time.Second, fastPolicy())
	err := f.Fetch(context.Background(), srv.URL, filepath.Join(t.TempDir(), "defs.yaml"))
	require.Error(t, err)
	assert.Equal(t, int32(3), hits.Load()) // initial attempt + 2 retries
}

func TestEnsureLocal_NoopWhenFileExists(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("fresh\n"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "lsl_definitions.yaml")
	require.NoError(t, os.WriteFile(dest, []byte("existing\n"), 0o644))

	f := New(time.Second, fastPolicy())
	fetched, err := f.EnsureLocal(context.Background(), srv.URL, dest)
	require.NoError(t, err)
	assert.False(t, fetched)
	assert.Zero(t, hits.Load()) // no network call

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "existing\n", string(got)) // file untouched
}

func TestEnsureLocal_FetchesWhenAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("fresh\n"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "lsl_definitions.yaml")
	f := New(time.Second, fastPolicy())
	fetched, err := f.EnsureLocal(context.Background(), srv.URL, dest)
	require.NoError(t, err)
	assert.True(t, fetched)
}

func TestSplitGitSource(t *testing.T) {
	repo, path := splitGitSource("https://github.com/secondlife/lsl-definitions.git#defs/lsl_definitions.yaml")
	assert.Equal(t, "https://github.com/secondlife/lsl-definitions.git", repo)
	assert.Equal(t, "defs/lsl_definitions.yaml", path)

	repo, path = splitGitSource("https://github.com/secondlife/lsl-definitions.git")
	assert.Equal(t, "https://github.com/secondlife/lsl-definitions.git", repo)
	assert.Equal(t, defaultRepoPath, path)
}

func TestIsGitSource(t *testing.T) {
	assert.True(t, isGitSource("https://example.com/repo.git"))
	assert.True(t, isGitSource("https://example.com/repo.git#a/b.yaml"))
	assert.False(t, isGitSource("https://example.com/raw/lsl_definitions.yaml"))
}
