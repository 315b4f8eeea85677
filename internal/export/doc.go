// Package export drives a workspace export task to completion.
//
// The driver submits one export task and then polls the service until the
// task reaches a terminal state, yielding the download URL together with
// the file token that authorizes fetching it.
//
// # Polling policy
//
// Every poll is preceded by a sleep of the base interval plus an
// exponential penalty that grows only while the service is rate-limiting.
// Rate-limited responses do not consume the attempt budget; only real
// answers (including "task not found" and "in progress") do. The token is
// always taken from the same response that reported success, never from an
// earlier or later one.
//
// # Usage
//
//	driver := export.NewDriver(client, req, export.Options{
//	    Interval:    2 * time.Second,
//	    MaxAttempts: 120,
//	})
//
//	dl, err := driver.Run(ctx)
//	// dl.URL, dl.FileToken
//
// Failures are reported as *ProtocolError, *RemoteFailureError or
// *TimeoutError; use errors.As to distinguish them.
package export
