package progress

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReporterOutput(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(Options{
		TotalSize:      1024,
		Label:          "https://files.example.com/export.zip",
		Output:         &buf,
		UpdateInterval: 10 * time.Millisecond,
	})

	r.Start()
	r.Add(512)
	time.Sleep(30 * time.Millisecond)
	r.Add(512)
	r.Stop()

	out := buf.String()
	assert.Contains(t, out, "[guardian] Downloading: https://files.example.com/export.zip")
	assert.Contains(t, out, "1.0 KiB")
	assert.Contains(t, out, "Downloaded")
	assert.Equal(t, int64(1024), r.Received())
}

func TestReporterUnknownTotal(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(Options{
		Label:          "export.zip",
		Output:         &buf,
		UpdateInterval: 10 * time.Millisecond,
	})

	r.Start()
	r.Add(2048)
	time.Sleep(30 * time.Millisecond)
	r.Stop()

	out := buf.String()
	assert.Contains(t, out, "2.0 KiB")
	assert.NotContains(t, out, "ETA")
}

func TestStopIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(Options{Output: &buf})

	r.Start()
	r.Stop()
	r.Stop()
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{90 * time.Second, "1m 30s"},
		{3930 * time.Second, "1h 5m 30s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d))
	}
}
