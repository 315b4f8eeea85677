package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	opts := DefaultOptions()
	opts.BaseURL = url
	opts.Token = "secret-token"
	opts.UserID = "user-1"
	return NewClient(opts)
}

func TestSubmitExport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, enqueueTaskPath, r.URL.Path)

		cookie, err := r.Cookie(authCookie)
		require.NoError(t, err)
		assert.Equal(t, "secret-token", cookie.Value)
		assert.Equal(t, "user-1", r.Header.Get(activeUserHeader))

		var req enqueueTaskRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, exportSpaceEvent, req.Task.EventName)
		assert.Equal(t, "space-1", req.Task.Request.SpaceID)
		assert.Equal(t, ExportTypeMarkdown, req.Task.Request.ExportOptions.ExportType)

		json.NewEncoder(w).Encode(enqueueTaskResponse{TaskID: "task-42"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	taskID, err := client.SubmitExport(context.Background(), ExportRequest{
		SpaceID: "space-1",
		ExportOptions: ExportOptions{
			ExportType: ExportTypeMarkdown,
			Locale:     "en",
			TimeZone:   "UTC",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "task-42", taskID)
}

func TestGetTasksExtractsFileToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, getTasksPath, r.URL.Path)

		var req getTasksRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"task-42"}, req.TaskIDs)

		http.SetCookie(w, &http.Cookie{Name: FileTokenCookie, Value: "ft-abc"})
		json.NewEncoder(w).Encode(getTasksResponse{Results: []TaskResult{{
			ID:    "task-42",
			State: StateSuccess,
			Status: TaskStatus{
				PagesExported: 10,
				ExportURL:     "https://files.example.com/export.zip",
			},
		}}})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	page, err := client.GetTasks(context.Background(), []string{"task-42"})
	require.NoError(t, err)

	assert.Equal(t, "ft-abc", page.FileToken)
	task := page.Find("task-42")
	require.NotNil(t, task)
	assert.Equal(t, StateSuccess, task.State)
	assert.Equal(t, 10, task.Status.PagesExported)
}

func TestGetTasksNoFileToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(getTasksResponse{Results: []TaskResult{{
			ID:    "task-42",
			State: StateInProgress,
		}}})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	page, err := client.GetTasks(context.Background(), []string{"task-42"})
	require.NoError(t, err)
	assert.Empty(t, page.FileToken)
}

func TestGetTasksRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetTasks(context.Background(), []string{"task-42"})
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestStatusCodeErrors(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusInternalServerError, ErrServerError},
		{http.StatusTooManyRequests, ErrRateLimited},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.code)
		}))
		client := newTestClient(server.URL)
		_, err := client.SubmitExport(context.Background(), ExportRequest{SpaceID: "s"})
		assert.ErrorIs(t, err, tt.want, "status %d", tt.code)
		server.Close()
	}
}

func TestGetTasksMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetTasks(context.Background(), []string{"task-42"})
	assert.Error(t, err)
}

func TestFindMissingTask(t *testing.T) {
	page := &TaskPage{Results: []TaskResult{{ID: "other"}}}
	assert.Nil(t, page.Find("task-42"))

	empty := &TaskPage{}
	assert.Nil(t, empty.Find("task-42"))
}
