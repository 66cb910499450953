// Package fetcher reads the currently published version label from the
// remote update descriptor.
package fetcher

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/html/charset"

	"update-fetcher/logging"
)

var (
	// ErrFetchFailed is returned once every attempt against the descriptor failed
	ErrFetchFailed = errors.New("failed to fetch latest version from descriptor")
	// ErrVersionMissing is returned when the descriptor has no usable version element
	ErrVersionMissing = errors.New("descriptor has no version element")
)

// Options configures a Fetcher
type Options struct {
	URL         string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
	Client      *http.Client
}

// Fetcher queries the descriptor endpoint with bounded retry
type Fetcher struct {
	url         string
	client      *http.Client
	maxAttempts int
	retryDelay  time.Duration
	logger      logging.Logger
}

// New creates a Fetcher. A nil Client gets a fresh one with the configured timeout.
func New(opts Options, logger logging.Logger) *Fetcher {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	attempts := opts.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Fetcher{
		url:         opts.URL,
		client:      client,
		maxAttempts: attempts,
		retryDelay:  opts.RetryDelay,
		logger:      logger,
	}
}

// Latest returns the version label published by the descriptor.
// Failures are logged here; callers only need to check the error.
func (f *Fetcher) Latest(ctx context.Context) (string, error) {
	var (
		attempt int
		latest  string
	)

	operation := func() error {
		attempt++
		body, err := f.get(ctx)
		if err != nil {
			f.logger.Warnw("error fetching version from descriptor, retrying",
				"url", f.url,
				"attempt", attempt,
				"max_attempts", f.maxAttempts,
				"error", err,
			)
			return err
		}

		v, err := ParseDescriptor(body)
		if err != nil {
			return backoff.Permanent(err)
		}
		latest = v
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(f.retryDelay), uint64(f.maxAttempts-1)),
		ctx,
	)

	if err := backoff.Retry(operation, policy); err != nil {
		if errors.Is(err, ErrVersionMissing) {
			f.logger.Errorw("descriptor did not contain a version", "url", f.url, "error", err)
			return "", err
		}
		f.logger.Errorw(fmt.Sprintf("failed to fetch version from descriptor after %d attempts", attempt),
			"url", f.url,
			"error", err,
		)
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return latest, nil
}

func (f *Fetcher) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

type versionElement struct {
	Text string `xml:",chardata"`
}

// ParseDescriptor returns the text of the first version element in an XML
// document, at any depth.
func ParseDescriptor(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	dec.Strict = false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return "", ErrVersionMissing
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrVersionMissing, err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "version" {
			continue
		}

		var el versionElement
		if err := dec.DecodeElement(&el, &se); err != nil {
			return "", fmt.Errorf("%w: %v", ErrVersionMissing, err)
		}
		v := strings.TrimSpace(el.Text)
		if v == "" {
			return "", ErrVersionMissing
		}
		return v, nil
	}
}
