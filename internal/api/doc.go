// Package api provides the wire client for the workspace export service.
//
// This package handles:
//   - Submitting an export task (enqueueTask)
//   - Fetching task records for a set of task ids (getTasks)
//   - Extracting the file token cookie from each getTasks response
//   - Authentication via the token_v2 cookie and active-user header
//
// The client performs no retries of its own. Rate-limited responses are
// surfaced as [ErrRateLimited] so that callers (the export driver) can
// apply their own backoff policy.
//
// # Usage
//
//	client := api.NewClient(api.Options{
//	    Token:  token,
//	    UserID: userID,
//	})
//
//	taskID, err := client.SubmitExport(ctx, api.ExportRequest{
//	    SpaceID: spaceID,
//	    ExportOptions: api.ExportOptions{
//	        ExportType: api.ExportTypeMarkdown,
//	        Locale:     "en",
//	        TimeZone:   "UTC",
//	    },
//	})
//
//	page, err := client.GetTasks(ctx, []string{taskID})
//	// page.Find(taskID), page.FileToken
package api
