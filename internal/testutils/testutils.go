// Package testutils provides shared test fixtures: zip archive builders
// and a scripted fake of the remote export service.
package testutils

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/unkonwuser01/notion-guardian/internal/api"
)

// ZipBytes builds a zip archive in memory. Entries with a trailing slash
// become directories; everything else becomes a file with the given
// content.
func ZipBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for name, content := range entries {
		if strings.HasSuffix(name, "/") {
			if _, err := w.Create(name); err != nil {
				t.Fatalf("create dir entry %s: %v", name, err)
			}
			continue
		}
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// WriteZip builds a zip archive on disk at path.
func WriteZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	if err := os.WriteFile(path, ZipBytes(t, entries), 0o644); err != nil {
		t.Fatalf("write zip %s: %v", path, err)
	}
}

// ExportScript drives the fake export service through a scenario.
type ExportScript struct {
	TaskID string

	// RateLimitPolls is the number of 429 responses served before any
	// real getTasks answer.
	RateLimitPolls int

	// NotFoundPolls is the number of responses with an empty result set.
	NotFoundPolls int

	// InProgressPolls is the number of in-progress reports before the
	// terminal answer.
	InProgressPolls int

	// FailWith, when set, makes the terminal answer a failure carrying
	// this reason in the record's error field.
	FailWith string

	// FileToken authorizes the archive download. Served as a cookie on
	// the success response unless OmitFileToken is set.
	FileToken     string
	OmitFileToken bool

	// OmitExportURL produces a malformed success report with no URL.
	OmitExportURL bool

	// Archive is the payload served at /export.zip.
	Archive []byte

	// TruncateArchive serves fewer bytes than the declared content length.
	TruncateArchive bool
}

// ExportService is an httptest-backed fake of the remote export API.
type ExportService struct {
	Script ExportScript
	Server *httptest.Server

	mu        sync.Mutex
	polls     int
	throttles int
}

// StartExportService starts the fake service. It is shut down when the
// test finishes.
func StartExportService(t *testing.T, script ExportScript) *ExportService {
	t.Helper()

	s := &ExportService{Script: script}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/enqueueTask", s.handleEnqueue)
	mux.HandleFunc("/api/v3/getTasks", s.handleGetTasks)
	mux.HandleFunc("/export.zip", s.handleDownload)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Server.Close)
	return s
}

// URL returns the fake service's base URL.
func (s *ExportService) URL() string {
	return s.Server.URL
}

// Polls returns the number of non-throttled getTasks answers served.
func (s *ExportService) Polls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

func (s *ExportService) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{"taskId": s.Script.TaskID})
}

func (s *ExportService) handleGetTasks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.throttles < s.Script.RateLimitPolls {
		s.throttles++
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}
	s.polls++

	type response struct {
		Results []api.TaskResult `json:"results"`
	}

	switch {
	case s.polls <= s.Script.NotFoundPolls:
		json.NewEncoder(w).Encode(response{Results: []api.TaskResult{}})

	case s.polls <= s.Script.NotFoundPolls+s.Script.InProgressPolls:
		json.NewEncoder(w).Encode(response{Results: []api.TaskResult{{
			ID:     s.Script.TaskID,
			State:  api.StateInProgress,
			Status: api.TaskStatus{Type: "inProgress", PagesExported: s.polls},
		}}})

	case s.Script.FailWith != "":
		json.NewEncoder(w).Encode(response{Results: []api.TaskResult{{
			ID:    s.Script.TaskID,
			State: api.StateFailure,
			Error: s.Script.FailWith,
		}}})

	default:
		record := api.TaskResult{
			ID:    s.Script.TaskID,
			State: api.StateSuccess,
			Status: api.TaskStatus{
				Type:          "complete",
				PagesExported: s.polls,
			},
		}
		if !s.Script.OmitExportURL {
			record.Status.ExportURL = "http://" + r.Host + "/export.zip"
		}
		if !s.Script.OmitFileToken {
			http.SetCookie(w, &http.Cookie{Name: api.FileTokenCookie, Value: s.Script.FileToken})
		}
		json.NewEncoder(w).Encode(response{Results: []api.TaskResult{record}})
	}
}

func (s *ExportService) handleDownload(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(api.FileTokenCookie)
	if err != nil || cookie.Value != s.Script.FileToken {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Length", strconv.Itoa(len(s.Script.Archive)))
	if s.Script.TruncateArchive {
		w.Write(s.Script.Archive[:len(s.Script.Archive)/2])
		return
	}
	w.Write(s.Script.Archive)
}
