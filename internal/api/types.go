package api

// Export formats accepted by the service.
const (
	ExportTypeMarkdown = "markdown"
	ExportTypeHTML     = "html"
)

// Collection view export modes. "currentView" exports only the view the
// acting user has open for structured sub-content; "all" exports every view.
const (
	CollectionViewAll     = "all"
	CollectionViewCurrent = "currentView"
)

// Task states reported by the service. Anything else is treated by callers
// as still in progress.
const (
	StateInProgress = "in_progress"
	StateSuccess    = "success"
	StateFailure    = "failure"
)

// ExportOptions selects the format and localization of the export.
type ExportOptions struct {
	ExportType               string `json:"exportType"`
	Locale                   string `json:"locale"`
	TimeZone                 string `json:"timeZone"`
	CollectionViewExportType string `json:"collectionViewExportType,omitempty"`
}

// ExportRequest describes one full-workspace export.
type ExportRequest struct {
	SpaceID              string        `json:"spaceId"`
	ExportOptions        ExportOptions `json:"exportOptions"`
	ShouldExportComments bool          `json:"shouldExportComments"`
}

// enqueueTaskRequest is the body of an enqueueTask call.
type enqueueTaskRequest struct {
	Task taskSpec `json:"task"`
}

type taskSpec struct {
	EventName string        `json:"eventName"`
	Request   ExportRequest `json:"request"`
}

type enqueueTaskResponse struct {
	TaskID string `json:"taskId"`
}

// getTasksRequest is the body of a getTasks call.
type getTasksRequest struct {
	TaskIDs []string `json:"taskIds"`
}

type getTasksResponse struct {
	Results []TaskResult `json:"results"`
}

// TaskStatus carries the progress fields of a task record. PagesExported
// is advisory; ExportURL is set only once the task has succeeded.
type TaskStatus struct {
	Type          string `json:"type"`
	PagesExported int    `json:"pagesExported"`
	ExportURL     string `json:"exportURL"`
}

// TaskResult is one task record in a getTasks response.
type TaskResult struct {
	ID     string     `json:"id"`
	State  string     `json:"state"`
	Status TaskStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

// TaskPage is one getTasks response together with the file token that
// accompanied it. The service binds download authorization to the response
// that reports success, so the token must never be reused across pages.
type TaskPage struct {
	Results   []TaskResult
	FileToken string
}

// Find returns the task record with the given id, or nil if this page does
// not contain it.
func (p *TaskPage) Find(id string) *TaskResult {
	for i := range p.Results {
		if p.Results[i].ID == id {
			return &p.Results[i]
		}
	}
	return nil
}
