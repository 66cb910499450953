package downloader

import (
	"context"
	"time"
)

// Phase represents the current phase of an artifact download
type Phase int

const (
	PhaseConnecting Phase = iota
	PhaseDownloading
	PhaseRewriting
	PhaseComplete
	PhaseError
)

// String returns the string representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseDownloading:
		return "downloading"
	case PhaseRewriting:
		return "rewriting"
	case PhaseComplete:
		return "complete"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Progress represents the current progress of a download
type Progress struct {
	BytesProcessed int64 `json:"bytes_processed"`
	// TotalBytes is the Content-Length reported by the server, or 0 when unknown
	TotalBytes int64   `json:"total_bytes"`
	Percentage float64 `json:"percentage"`
}

// ProgressCallbacks defines callback functions for progress reporting
type ProgressCallbacks struct {
	OnProgress    func(phase Phase, progress Progress)
	OnPhaseChange func(oldPhase, newPhase Phase)
	OnError       func(err error)
	OnComplete    func(result *DownloadResult)
}

// Artifact is a remote resource saved under a fixed local file name
type Artifact struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	// BaseURL, when set on a markup artifact, is used to absolutize relative links
	BaseURL string `json:"base_url,omitempty"`
}

// DownloadResult contains the result of a successful download
type DownloadResult struct {
	Artifact  string        `json:"artifact"`
	FilePath  string        `json:"file_path"`
	FileSize  int64         `json:"file_size"`
	Duration  time.Duration `json:"duration"`
	Rewritten bool          `json:"rewritten"`
}

// ArtifactDownloader defines the contract for downloading one artifact into a directory
type ArtifactDownloader interface {
	Download(ctx context.Context, artifact Artifact, destDir string, callbacks ProgressCallbacks) (*DownloadResult, error)
}
