package model

import (
	"fmt"
	"strings"
	"time"
)

// JobSpec is the request to enqueue a new unit of work.
type JobSpec struct {
	Kind    JobKind
	Input   string // URL for downloads, file path for conversions
	Output  string // output path or output template
	Quality string // format selector preset for downloads
	Preset  string // conversion preset name for conversions
	VideoID string // optional datastore video this job belongs to
}

// Job represents one queued unit of download or conversion work.
// The queue manager owns the live record; everything outside the
// manager sees value copies only.
type Job struct {
	ID          string
	Kind        JobKind
	Input       string
	Output      string
	Quality     string
	Preset      string
	VideoID     string
	Status      JobStatus
	Progress    float64 // 0 to 100
	Phase       string  // current phase of the underlying process
	Speed       string  // human readable speed (e.g., "1.2MiB/s")
	ETASec      int     // ETA in seconds, -1 if unknown
	LastError   string  // last error message if any
	OutputPath  string  // resolved path of the produced file
	CreatedAt   time.Time
	CompletedAt time.Time // zero until the job reaches a terminal state
}

// GetETAString returns ETA formatted as hh:mm:ss, or "—" if unknown
func (j *Job) GetETAString() string {
	if j.ETASec <= 0 {
		return "—"
	}

	hours := j.ETASec / 3600
	minutes := (j.ETASec % 3600) / 60
	seconds := j.ETASec % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// GetDisplayName returns the filename, or the input reference when no
// output has been produced yet
func (j *Job) GetDisplayName() string {
	if j.OutputPath != "" {
		parts := strings.FieldsFunc(j.OutputPath, func(r rune) bool {
			return r == '/' || r == '\\'
		})
		if len(parts) > 0 {
			filename := parts[len(parts)-1]
			if idx := strings.LastIndex(filename, "."); idx > 0 {
				filename = filename[:idx]
			}
			return filename
		}
	}
	return j.Input
}

// QueueStatus is a point-in-time snapshot of queue counters.
type QueueStatus struct {
	Total     int
	Queued    int
	Active    int
	Paused    int
	Completed int
	Failed    int
	Cancelled int
}
