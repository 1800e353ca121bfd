// Package fetch retrieves the upstream definitions document and persists it
// locally. Supports plain HTTP(S) sources and git repositories (shallow
// clone, copy one file out). Writes are atomic: a failed fetch never leaves a
// partial file at the destination.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	pipeerr "github.com/secondlife/create/internal/errors"
	"github.com/secondlife/create/internal/logfields"
	"github.com/secondlife/create/internal/retry"
)

// DefaultURL is the well-known upstream location of the definitions document.
const DefaultURL = "https://raw.githubusercontent.com/secondlife/lsl-definitions/main/lsl_definitions.yaml"

// DefaultTimeout bounds a single fetch attempt.
const DefaultTimeout = 30 * time.Second

// Fetcher downloads the definitions document.
type Fetcher struct {
	client *http.Client
	policy retry.Policy
}

// New returns a Fetcher with the given attempt timeout and retry policy.
// Zero timeout falls back to DefaultTimeout.
func New(timeout time.Duration, policy retry.Policy) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		policy: policy,
	}
}

// EnsureLocal fetches url into dest unless dest already exists. The existing
// file is left untouched and no network call is made. Returns whether a fetch
// actually happened.
func (f *Fetcher) EnsureLocal(ctx context.Context, url, dest string) (bool, error) {
	if _, err := os.Stat(dest); err == nil {
		slog.Debug("Definitions file present, skipping fetch", logfields.Path(dest))
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, pipeerr.Wrap(err, pipeerr.CategoryFileSystem, pipeerr.SeverityFatal, "stat definitions file").
			WithContext("path", dest)
	}
	if err := f.Fetch(ctx, url, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Fetch retrieves url and writes the content to dest, creating parent
// directories as needed. URLs naming a git repository (`...repo.git` or
// `...repo.git#path/in/repo`) are cloned shallowly instead of fetched over
// plain HTTP.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) error {
	if url == "" {
		url = DefaultURL
	}
	slog.Info("Fetching definitions", logfields.URL(url), logfields.Path(dest))

	var (
		data []byte
		err  error
	)
	if isGitSource(url) {
		data, err = f.fetchGit(ctx, url)
	} else {
		data, err = f.fetchHTTP(ctx, url)
	}
	if err != nil {
		return err
	}
	return writeAtomic(dest, data)
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		data, err := f.getOnce(ctx, url)
		if err == nil {
			return data, nil
		}
		if !pipeerr.IsRetryable(err) || attempt >= f.policy.MaxRetries {
			return nil, err
		}
		delay := f.policy.Delay(attempt + 1)
		slog.Warn("Fetch attempt failed, retrying",
			logfields.URL(url), logfields.Error(err), slog.Duration("delay", delay))
		select {
		case <-ctx.Done():
			return nil, pipeerr.Wrap(ctx.Err(), pipeerr.CategoryFetch, pipeerr.SeverityFatal, "fetch canceled")
		case <-time.After(delay):
		}
	}
}

func (f *Fetcher) getOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pipeerr.Wrap(err, pipeerr.CategoryFetch, pipeerr.SeverityFatal, "build request")
	}
	resp, err := f.client.Do(req)
	if err != nil {
		// Transport-level failures (timeouts, resets, DNS) are worth retrying.
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, pipeerr.WrapRetryable(err, pipeerr.CategoryFetch, pipeerr.SeverityError, "read response body")
		}
		return data, nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, pipeerr.Retryable(pipeerr.CategoryFetch, pipeerr.SeverityError,
			fmt.Sprintf("server returned status %d", resp.StatusCode)).
			WithContext("status", resp.StatusCode)
	default:
		return nil, pipeerr.New(pipeerr.CategoryFetch, pipeerr.SeverityFatal,
			fmt.Sprintf("unexpected status %d", resp.StatusCode)).
			WithContext("status", resp.StatusCode)
	}
}

func classifyTransport(err error) error {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return pipeerr.WrapRetryable(err, pipeerr.CategoryFetch, pipeerr.SeverityError, "request timed out")
	}
	return pipeerr.WrapRetryable(err, pipeerr.CategoryFetch, pipeerr.SeverityError, "request failed")
}

// writeAtomic writes data to dest via a temp file + rename so a failure never
// leaves a partial file that could be mistaken for a complete fetch.
func writeAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pipeerr.Wrap(err, pipeerr.CategoryFileSystem, pipeerr.SeverityFatal, "create definitions directory").
			WithContext("path", dir)
	}
	tmp, err := os.CreateTemp(dir, ".defs-*")
	if err != nil {
		return pipeerr.Wrap(err, pipeerr.CategoryFileSystem, pipeerr.SeverityFatal, "create temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return pipeerr.Wrap(err, pipeerr.CategoryFileSystem, pipeerr.SeverityFatal, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return pipeerr.Wrap(err, pipeerr.CategoryFileSystem, pipeerr.SeverityFatal, "close temp file")
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return pipeerr.Wrap(err, pipeerr.CategoryFileSystem, pipeerr.SeverityFatal, "move definitions into place").
			WithContext("path", dest)
	}
	return nil
}

func isGitSource(url string) bool {
	base, _, _ := strings.Cut(url, "#")
	return strings.HasSuffix(base, ".git")
}
