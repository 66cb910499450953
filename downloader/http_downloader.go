package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"golang.org/x/net/html/charset"

	"update-fetcher/logging"
)

// DefaultChunkSize is the read size used while streaming a response body
const DefaultChunkSize = 1024

// Options configures an HTTPDownloader
type Options struct {
	// Timeout bounds connecting and waiting for response headers. The body
	// itself is streamed without a total deadline.
	Timeout time.Duration
	// RewriteLinks enables relative-link rewriting for markup artifacts with a BaseURL
	RewriteLinks bool
	ChunkSize    int
	// ProgressOutput receives the console progress bar. Nil disables it.
	ProgressOutput io.Writer
	Client         *http.Client
}

// HTTPDownloader implements ArtifactDownloader over HTTP
type HTTPDownloader struct {
	fs             afero.Fs
	client         *http.Client
	rewriteLinks   bool
	chunkSize      int
	progressOutput io.Writer
	logger         logging.Logger

	// progress bars share one terminal
	barMu sync.Mutex
}

// NewHTTPDownloader creates a downloader writing into fs
func NewHTTPDownloader(fs afero.Fs, opts Options, logger logging.Logger) *HTTPDownloader {
	client := opts.Client
	if client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.DialContext = (&net.Dialer{Timeout: opts.Timeout, KeepAlive: 30 * time.Second}).DialContext
		transport.TLSHandshakeTimeout = opts.Timeout
		transport.ResponseHeaderTimeout = opts.Timeout
		client = &http.Client{Transport: transport}
	}
	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	return &HTTPDownloader{
		fs:             fs,
		client:         client,
		rewriteLinks:   opts.RewriteLinks,
		chunkSize:      chunk,
		progressOutput: opts.ProgressOutput,
		logger:         logger,
	}
}

// Download implements the ArtifactDownloader interface
func (d *HTTPDownloader) Download(ctx context.Context, artifact Artifact, destDir string, callbacks ProgressCallbacks) (*DownloadResult, error) {
	start := time.Now()
	path := filepath.Join(destDir, artifact.FileName)
	phase := PhaseConnecting
	setPhase := func(p Phase) {
		if callbacks.OnPhaseChange != nil && p != phase {
			callbacks.OnPhaseChange(phase, p)
		}
		phase = p
	}
	fail := func(errorType ErrorType, message string, cause error) error {
		setPhase(PhaseError)
		err := NewDownloadErrorWithCause(errorType, message, cause).
			WithContext("artifact", artifact.Name).
			WithContext("path", path)
		d.logger.Errorw("error downloading file",
			"artifact", artifact.Name,
			"path", path,
			"url", artifact.URL,
			"error", err,
		)
		if callbacks.OnError != nil {
			callbacks.OnError(err)
		}
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artifact.URL, nil)
	if err != nil {
		return nil, fail(ErrorInvalidURL, "failed to build request", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fail(classifyTransportError(ctx, err), "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fail(ErrorNetworkFailure, "unexpected response status", errors.New(resp.Status))
	}

	setPhase(PhaseDownloading)
	total := resp.ContentLength
	if total < 0 {
		total = 0
	}
	bar := d.newBar(artifact.Name, total)
	body := NewProgressReader(resp.Body, total, func(read, total int64) {
		if callbacks.OnProgress != nil {
			callbacks.OnProgress(PhaseDownloading, Progress{
				BytesProcessed: read,
				TotalBytes:     total,
				Percentage:     Percentage(read, total),
			})
		}
	})

	rewrite := d.rewriteLinks && artifact.BaseURL != "" && IsMarkup(artifact.FileName)

	result := &DownloadResult{Artifact: artifact.Name, FilePath: path}
	if rewrite {
		var buf bytes.Buffer
		if _, err := d.copyChunks(&buf, body, bar); err != nil {
			d.finishBar(bar)
			return nil, fail(classifyTransportError(ctx, err), "failed to read response body", err)
		}
		d.finishBar(bar)

		setPhase(PhaseRewriting)
		doc, stats, err := d.rewrite(buf.Bytes(), resp.Header.Get("Content-Type"), artifact.BaseURL)
		if err != nil {
			// The raw page is still worth keeping.
			d.logger.Warnw("failed to rewrite links, saving page unchanged",
				"artifact", artifact.Name,
				"path", path,
				"error", err,
			)
			doc = buf.Bytes()
		} else {
			result.Rewritten = true
			for _, link := range stats.Skipped {
				d.logger.Debugw("left unparseable link unchanged", "artifact", artifact.Name, "link", link)
			}
			d.logger.Infow("rewrote relative links", "artifact", artifact.Name, "links", stats.Rewritten)
		}
		if err := afero.WriteFile(d.fs, path, doc, 0o644); err != nil {
			return nil, fail(ErrorFileSystemError, "failed to write file", err)
		}
		result.FileSize = int64(len(doc))
	} else {
		f, err := d.fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			d.finishBar(bar)
			return nil, fail(ErrorFileSystemError, "failed to create file", err)
		}
		written, err := d.copyChunks(f, body, bar)
		d.finishBar(bar)
		closeErr := f.Close()
		if err != nil {
			_ = d.fs.Remove(path)
			var werr *writeError
			if errors.As(err, &werr) {
				return nil, fail(ErrorFileSystemError, "failed to write file", werr.err)
			}
			return nil, fail(classifyTransportError(ctx, err), "failed to read response body", err)
		}
		if closeErr != nil {
			return nil, fail(ErrorFileSystemError, "failed to close file", closeErr)
		}
		result.FileSize = written
	}

	result.Duration = time.Since(start)
	setPhase(PhaseComplete)
	if callbacks.OnComplete != nil {
		callbacks.OnComplete(result)
	}
	return result, nil
}

// writeError marks a failure on the destination side of copyChunks
type writeError struct{ err error }

func (e *writeError) Error() string { return e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

// copyChunks moves src to dst in chunkSize reads, advancing bar as it goes
func (d *HTTPDownloader) copyChunks(dst io.Writer, src io.Reader, bar *progressbar.ProgressBar) (int64, error) {
	buf := make([]byte, d.chunkSize)
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, &writeError{err: err}
			}
			written += int64(n)
			if bar != nil {
				d.barMu.Lock()
				_ = bar.Add(n)
				d.barMu.Unlock()
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

func (d *HTTPDownloader) rewrite(raw []byte, contentType, base string) ([]byte, RewriteStats, error) {
	utf8Reader, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return nil, RewriteStats{}, fmt.Errorf("decode charset: %w", err)
	}
	decoded, err := io.ReadAll(utf8Reader)
	if err != nil {
		return nil, RewriteStats{}, fmt.Errorf("decode charset: %w", err)
	}
	return RewriteRelativeLinks(decoded, base)
}

// newBar returns a console progress bar, or a spinner when total is unknown
func (d *HTTPDownloader) newBar(name string, total int64) *progressbar.ProgressBar {
	if d.progressOutput == nil {
		return nil
	}
	max := total
	if max <= 0 {
		max = -1
	}
	return progressbar.NewOptions64(max,
		progressbar.OptionSetWriter(d.progressOutput),
		progressbar.OptionSetDescription(name),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowCount(),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(d.progressOutput)
		}),
	)
}

func (d *HTTPDownloader) finishBar(bar *progressbar.ProgressBar) {
	if bar == nil {
		return
	}
	d.barMu.Lock()
	defer d.barMu.Unlock()
	_ = bar.Finish()
}

func classifyTransportError(ctx context.Context, err error) ErrorType {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ErrorCancelled
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	return ErrorNetworkFailure
}
