// Package updater decides whether a newer release is published and, if so,
// materializes its version directory with every artifact.
package updater

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"update-fetcher/downloader"
	"update-fetcher/inventory"
	"update-fetcher/logging"
	"update-fetcher/version"
)

// Outcome is the decision taken by one run
type Outcome int

const (
	OutcomeFetchFailed Outcome = iota
	OutcomeBootstrapped
	OutcomeUpdated
	OutcomeUpToDate
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeFetchFailed:
		return "fetch_failed"
	case OutcomeBootstrapped:
		return "bootstrapped"
	case OutcomeUpdated:
		return "updated"
	case OutcomeUpToDate:
		return "up_to_date"
	default:
		return "unknown"
	}
}

// VersionSource returns the latest published version label
type VersionSource interface {
	Latest(ctx context.Context) (string, error)
}

// Orchestrator runs one check-and-update cycle
type Orchestrator struct {
	source     VersionSource
	inventory  inventory.Inventory
	downloader downloader.ArtifactDownloader
	artifacts  []downloader.Artifact
	parallel   bool
	logger     logging.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithParallelDownloads downloads the artifacts of a version concurrently
func WithParallelDownloads(enabled bool) Option {
	return func(o *Orchestrator) {
		o.parallel = enabled
	}
}

// New creates an Orchestrator populating each new version directory with artifacts
func New(source VersionSource, inv inventory.Inventory, dl downloader.ArtifactDownloader, artifacts []downloader.Artifact, logger logging.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:     source,
		inventory:  inv,
		downloader: dl,
		artifacts:  artifacts,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run performs the check. A failed descriptor fetch is reported as
// OutcomeFetchFailed with a nil error; the returned error is reserved for
// failures that should stop the process.
func (o *Orchestrator) Run(ctx context.Context) (Outcome, error) {
	latest, err := o.source.Latest(ctx)
	if err != nil {
		return OutcomeFetchFailed, nil
	}
	if err := validateLabel(latest); err != nil {
		return OutcomeFetchFailed, err
	}

	labels, err := o.inventory.List()
	if err != nil {
		return OutcomeFetchFailed, fmt.Errorf("read local versions: %w", err)
	}

	if len(labels) == 0 {
		if err := o.materialize(ctx, latest); err != nil {
			return OutcomeBootstrapped, err
		}
		o.logger.Infow("first download of software files completed", "version", latest)
		return OutcomeBootstrapped, nil
	}

	remote, err := version.Parse(latest)
	if err != nil {
		return OutcomeFetchFailed, fmt.Errorf("remote version: %w", err)
	}

	localMax, invalid, ok := version.Max(labels)
	for _, label := range invalid {
		o.logger.Warnw("ignoring version folder with unparseable label", "label", label)
	}

	if ok && version.Compare(remote, version.MustParse(localMax)) <= 0 {
		o.logger.Infow("software is already up to date", "version", localMax)
		return OutcomeUpToDate, nil
	}

	if err := o.materialize(ctx, latest); err != nil {
		return OutcomeUpdated, err
	}
	o.logger.Infow("software update found, files downloaded", "version", latest, "previous", localMax)
	return OutcomeUpdated, nil
}

// materialize creates the version directory and downloads every artifact into it.
// Artifact-local failures are already logged by the downloader and do not stop siblings.
func (o *Orchestrator) materialize(ctx context.Context, label string) error {
	dir, err := o.inventory.Create(label)
	if err != nil {
		return err
	}

	if o.parallel {
		g, gctx := errgroup.WithContext(ctx)
		for _, a := range o.artifacts {
			a := a
			g.Go(func() error {
				return o.fetchArtifact(gctx, a, dir)
			})
		}
		return g.Wait()
	}

	for _, a := range o.artifacts {
		if err := o.fetchArtifact(ctx, a, dir); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) fetchArtifact(ctx context.Context, a downloader.Artifact, dir string) error {
	_, err := o.downloader.Download(ctx, a, dir, o.callbacks(a.Name))
	if err == nil || downloader.IsArtifactLocal(err) {
		return nil
	}
	return fmt.Errorf("download %s: %w", a.Name, err)
}

// progressStep is the percentage interval between progress log lines
const progressStep = 25

// callbacks reports one artifact's download through the orchestrator's logger.
// Each Download gets its own set, so parallel artifacts don't share state.
func (o *Orchestrator) callbacks(name string) downloader.ProgressCallbacks {
	next := float64(progressStep)
	return downloader.ProgressCallbacks{
		OnPhaseChange: func(oldPhase, newPhase downloader.Phase) {
			o.logger.Debugw("download phase changed", "artifact", name, "from", oldPhase, "to", newPhase)
		},
		OnProgress: func(phase downloader.Phase, p downloader.Progress) {
			if p.TotalBytes <= 0 || p.Percentage < next {
				return
			}
			o.logger.Debugw("download progress", "artifact", name, "percent", p.Percentage, "bytes", p.BytesProcessed)
			for next <= p.Percentage {
				next += progressStep
			}
		},
		OnComplete: func(result *downloader.DownloadResult) {
			o.logger.Infow("artifact saved",
				"artifact", name,
				"path", result.FilePath,
				"file_size", result.FileSize,
				"duration", result.Duration,
				"rewritten", result.Rewritten,
			)
		},
	}
}

var errInvalidLabel = errors.New("invalid remote version label")

// validateLabel rejects labels that cannot safely name a directory
func validateLabel(label string) error {
	if label == "" || label == "." || label == ".." || strings.ContainsAny(label, `/\`) {
		return fmt.Errorf("%w: %q", errInvalidLabel, label)
	}
	return nil
}
