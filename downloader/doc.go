// Package downloader streams update artifacts (installer, incremental
// package, changelog page) from their URLs into a version directory.
//
// The package defines:
//   - ArtifactDownloader: the download contract used by the updater
//   - HTTPDownloader: chunked HTTP download with progress callbacks and a
//     console progress bar
//   - RewriteRelativeLinks: optional post-processing of HTML changelogs
//   - DownloadError: structured errors that tell per-artifact failures apart
//     from fatal ones
package downloader
