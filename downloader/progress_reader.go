package downloader

import "io"

// ProgressReader wraps an io.Reader to provide progress callbacks
type ProgressReader struct {
	reader     io.Reader
	total      int64
	read       int64
	onProgress func(read, total int64)
}

// NewProgressReader wraps r. total is the expected size, or <= 0 when unknown.
func NewProgressReader(r io.Reader, total int64, onProgress func(read, total int64)) *ProgressReader {
	return &ProgressReader{reader: r, total: total, onProgress: onProgress}
}

func (pr *ProgressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	pr.read += int64(n)
	if n > 0 && pr.onProgress != nil {
		pr.onProgress(pr.read, pr.total)
	}
	return
}

// Percentage returns done as a share of total in [0, 100].
// An unknown or zero total yields 0.
func Percentage(done, total int64) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(done) / float64(total) * 100
	if p > 100 {
		return 100
	}
	return p
}
