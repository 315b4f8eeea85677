// Package downloader streams the exported archive to local storage.
//
// The download is a single authenticated GET carrying the file token
// obtained from the poll response that reported success. The stream is
// written to a temporary file next to the destination and renamed into
// place only after the declared content length has been fully received.
//
// There is no automatic retry: a corrupted or partial download must not be
// silently reattempted, so any transport error or short stream surfaces as
// a *DownloadError and terminates the run.
//
// # Usage
//
//	err := downloader.Download(ctx, dl.URL, dl.FileToken, "export.zip", downloader.Options{
//	    Progress: reporter,
//	})
package downloader
