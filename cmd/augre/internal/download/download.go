// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package download streams remote files to disk with a progress bar.
package download

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/go-units"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"

	"github.com/AleutianAI/augre/cmd/augre/internal/util"
	"github.com/AleutianAI/augre/pkg/logging"
)

// partSuffix marks an incomplete download next to its destination.
const partSuffix = ".part"

// Fetcher downloads url to dest.
//
// Implementations must leave dest untouched on failure: either the whole
// body is at dest, or dest does not exist (or keeps its previous content).
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// HTTPFetcher implements Fetcher over HTTP(S).
type HTTPFetcher struct {
	client   *http.Client
	logger   *logging.Logger
	progress io.Writer
}

// NewHTTPFetcher creates a fetcher.
//
// # Inputs
//
//   - logger: Receives start and completion records.
//   - progress: Where the progress bar is drawn. nil disables the bar.
//
// # Outputs
//
//   - *HTTPFetcher: Without an overall timeout, so large artifacts can
//     finish. Connecting and waiting for headers are bounded.
func NewHTTPFetcher(logger *logging.Logger, progress io.Writer) *HTTPFetcher {
	if logger == nil {
		logger = logging.Discard()
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: util.DownloadDialTimeout}).DialContext,
		TLSHandshakeTimeout:   util.DownloadDialTimeout,
		ResponseHeaderTimeout: util.DownloadHeaderTimeout,
		IdleConnTimeout:       util.DownloadHeaderTimeout,
	}
	return &HTTPFetcher{
		client:   &http.Client{Transport: transport},
		logger:   logger,
		progress: progress,
	}
}

// Fetch streams url into dest via a sibling .part file that is renamed on
// success and removed on failure. The parent directory is created.
func (f *HTTPFetcher) Fetch(ctx context.Context, url, dest string) (err error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", url, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("downloading %s: unexpected status %s", url, resp.Status)
	}

	tmp := dest + partSuffix
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(tmp)
		}
	}()

	f.logger.Info("download started", "url", url, "dest", dest,
		"size", sizeLabel(resp.ContentLength))
	started := time.Now()

	written, err := f.copy(ctx, out, resp.Body, resp.ContentLength, filepath.Base(dest))
	if err != nil {
		return fmt.Errorf("downloading %s: %w", url, err)
	}
	if resp.ContentLength > 0 && written != resp.ContentLength {
		return fmt.Errorf("downloading %s: got %d of %d bytes", url, written, resp.ContentLength)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err = os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("moving download into place: %w", err)
	}

	f.logger.Info("download finished", "dest", dest,
		"size", units.HumanSize(float64(written)),
		"duration", time.Since(started).Round(time.Millisecond).String())
	return nil
}

// copy writes body to w, drawing a bar when a progress writer is set.
func (f *HTTPFetcher) copy(ctx context.Context, w io.Writer, body io.Reader, total int64, label string) (int64, error) {
	if f.progress == nil {
		return io.Copy(w, body)
	}

	p := mpb.NewWithContext(ctx,
		mpb.WithOutput(f.progress),
		mpb.WithWidth(60),
		mpb.WithRefreshRate(180*time.Millisecond),
	)
	barTotal := total
	if barTotal < 0 {
		barTotal = 0
	}
	bar := p.AddBar(barTotal,
		mpb.PrependDecorators(
			decor.Name(label, decor.WC{W: len(label) + 1, C: decor.DidentRight}),
			decor.CountersKibiByte("% .2f / % .2f"),
		),
		mpb.AppendDecorators(
			decor.EwmaETA(decor.ET_STYLE_GO, 90),
			decor.Name(" ] "),
			decor.EwmaSpeed(decor.UnitKiB, "% .2f", 60),
		),
	)

	reader := bar.ProxyReader(body)
	written, err := io.Copy(w, reader)
	reader.Close()

	if err != nil {
		bar.Abort(false)
	} else if total <= 0 {
		bar.SetTotal(written, true)
	}
	p.Wait()
	return written, err
}

func sizeLabel(n int64) string {
	if n < 0 {
		return "unknown"
	}
	return units.HumanSize(float64(n))
}

var _ Fetcher = (*HTTPFetcher)(nil)
