// Package progress provides progress reporting for archive downloads.
//
// This package outputs human-readable progress information to stderr,
// including completion percentage, transfer speed, and ETA.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{
//	    TotalSize: contentLength,
//	    Label:     url,
//	})
//
//	reporter.Start()
//	defer reporter.Stop()
//
//	// Update as bytes arrive
//	reporter.Add(n)
//
// # Output Format
//
//	[guardian] Downloading: https://files.example.com/export.zip
//	[guardian] Progress: 45.2% | 113 MiB / 250 MiB | Speed: 1.2 MiB/s | ETA: 1m 54s
package progress
