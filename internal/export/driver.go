package export

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/unkonwuser01/notion-guardian/internal/api"
)

// TaskService is the part of the API client the driver depends on.
type TaskService interface {
	SubmitExport(ctx context.Context, req api.ExportRequest) (string, error)
	GetTasks(ctx context.Context, ids []string) (*api.TaskPage, error)
}

// Options configures the export driver.
type Options struct {
	// Interval is the base sleep before every poll.
	// Default: 2s
	Interval time.Duration

	// MaxAttempts is the poll attempt budget. Rate-limited responses do
	// not count against it.
	// Default: 120
	MaxAttempts int

	// BackoffUnit scales the exponential rate-limit penalty: after n
	// consecutive rate-limited responses the next sleep is
	// Interval + 2^n * BackoffUnit.
	// Default: 1s
	BackoffUnit time.Duration

	// Logger for poll progress. Default: slog.Default()
	Logger *slog.Logger
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Interval:    2 * time.Second,
		MaxAttempts: 120,
		BackoffUnit: time.Second,
	}
}

// Download is an authenticated reference to the produced archive. URL and
// FileToken form a unit: the token was extracted from the same poll
// response that reported success and is not valid for any other reference.
type Download struct {
	URL       string
	FileToken string
}

// pollState is the per-run retry budget. attempt counts real answers from
// the service; strikes counts consecutive rate-limited responses and
// resets to zero on any other outcome.
type pollState struct {
	attempt int
	strikes int
}

// delay returns the sleep preceding the next poll. The exponential term is
// absent entirely while the service is not throttling.
func (s pollState) delay(base, unit time.Duration) time.Duration {
	if s.strikes == 0 {
		return base
	}
	return base + (1<<uint(s.strikes))*unit
}

// Driver submits one export task and polls it to completion.
type Driver struct {
	service TaskService
	req     api.ExportRequest
	opts    Options
	log     *slog.Logger
}

// NewDriver creates a driver for the given export request.
func NewDriver(service TaskService, req api.ExportRequest, opts Options) *Driver {
	def := DefaultOptions()
	if opts.Interval <= 0 {
		opts.Interval = def.Interval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.BackoffUnit <= 0 {
		opts.BackoffUnit = def.BackoffUnit
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Driver{
		service: service,
		req:     req,
		opts:    opts,
		log:     log,
	}
}

// Run submits the export and polls until it yields a download reference.
func (d *Driver) Run(ctx context.Context) (*Download, error) {
	taskID, err := d.Submit(ctx)
	if err != nil {
		return nil, err
	}
	return d.Poll(ctx, taskID)
}

// Submit enqueues the export task. A submission failure is fatal; there is
// no retry at this step.
func (d *Driver) Submit(ctx context.Context) (string, error) {
	taskID, err := d.service.SubmitExport(ctx, d.req)
	if err != nil {
		return "", &ProtocolError{Op: "submit export", Err: err}
	}
	if taskID == "" {
		return "", &ProtocolError{Op: "submit export", Err: errors.New("service returned an empty task id")}
	}

	d.log.Info("export task submitted", "task_id", taskID, "space_id", d.req.SpaceID)
	return taskID, nil
}

// Poll drives an already-submitted task to completion.
func (d *Driver) Poll(ctx context.Context, taskID string) (*Download, error) {
	start := time.Now()
	var st pollState

	for st.attempt < d.opts.MaxAttempts {
		if err := sleep(ctx, st.delay(d.opts.Interval, d.opts.BackoffUnit)); err != nil {
			return nil, err
		}

		page, err := d.service.GetTasks(ctx, []string{taskID})
		if errors.Is(err, api.ErrRateLimited) {
			st.strikes++
			d.log.Warn("rate limited, backing off", "task_id", taskID, "strikes", st.strikes)
			continue
		}
		if err != nil {
			return nil, &ProtocolError{Op: "poll task", Err: err}
		}
		st.strikes = 0
		st.attempt++

		task := page.Find(taskID)
		if task == nil {
			d.log.Info("task not in results yet, still polling",
				"task_id", taskID, "attempt", st.attempt)
			continue
		}

		// An explicit error field wins over whatever the state says.
		if task.Error != "" {
			return nil, &RemoteFailureError{TaskID: taskID, Reason: task.Error}
		}

		switch task.State {
		case api.StateSuccess:
			return d.finish(taskID, task, page)
		case api.StateFailure:
			return nil, &RemoteFailureError{TaskID: taskID}
		default:
			d.log.Debug("export in progress",
				"task_id", taskID,
				"state", task.State,
				"pages_exported", task.Status.PagesExported,
				"attempt", st.attempt)
		}
	}

	return nil, &TimeoutError{TaskID: taskID, Attempts: st.attempt, Elapsed: time.Since(start)}
}

// finish validates a success report. A success without a download URL, or
// without a file token on the same response, is a contract violation and
// must not be polled past.
func (d *Driver) finish(taskID string, task *api.TaskResult, page *api.TaskPage) (*Download, error) {
	if task.Status.ExportURL == "" {
		return nil, &ProtocolError{Op: "poll task", Err: errors.New("success report carries no export URL")}
	}
	if page.FileToken == "" {
		return nil, &ProtocolError{Op: "poll task", Err: errors.New("success response carries no file token")}
	}

	d.log.Info("export ready", "task_id", taskID, "pages_exported", task.Status.PagesExported)
	return &Download{URL: task.Status.ExportURL, FileToken: page.FileToken}, nil
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
