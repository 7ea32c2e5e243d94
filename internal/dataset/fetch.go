// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/revenuescope/revenuescope/internal/logging"
)

// Fetcher downloads the packaged dataset archive from remote storage. Calls
// are wrapped in a circuit breaker so a flapping upstream fails fast instead
// of stalling startup retries.
type Fetcher struct {
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[string]
	timeout time.Duration
}

// NewFetcher creates a dataset fetcher with the given per-download timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "dataset-fetch",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Dataset fetch circuit state changed")
		},
	})

	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		cb:      cb,
		timeout: timeout,
	}
}

// Fetch downloads url to dest unless dest already exists. The download goes
// to a temp file first and is renamed into place so a partial download never
// masquerades as a complete archive.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		logging.Debug().Str("path", dest).Msg("Dataset archive already present, skipping fetch")
		return nil
	}
	if url == "" {
		return fmt.Errorf("dataset archive %s is absent and no fetch URL is configured", dest)
	}

	start := time.Now()
	_, err := f.cb.Execute(func() (string, error) {
		return dest, f.download(ctx, url, dest)
	})
	if err != nil {
		return fmt.Errorf("failed to fetch dataset from %s: %w", url, err)
	}

	logging.Info().
		Str("url", url).
		Str("dest", dest).
		Dur("elapsed", time.Since(start)).
		Msg("Dataset archive downloaded")
	return nil
}

func (f *Fetcher) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return fmt.Errorf("failed to create dataset dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".fetch-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("download interrupted: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush download: %w", err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to move download into place: %w", err)
	}
	return nil
}
