package model

// JobStatus represents the status of a download or conversion job
type JobStatus string

const (
	// JobStatusQueued means the job is waiting for a free slot
	JobStatusQueued JobStatus = "queued"

	// JobStatusActive means the job is backed by a running process
	JobStatusActive JobStatus = "active"

	// JobStatusPaused means the job was paused before it started
	JobStatusPaused JobStatus = "paused"

	// JobStatusCompleted means the job finished successfully
	JobStatusCompleted JobStatus = "completed"

	// JobStatusFailed means the job's process exited with an error
	JobStatusFailed JobStatus = "failed"

	// JobStatusCancelled means the job was cancelled by the user
	JobStatusCancelled JobStatus = "cancelled"
)

// String returns the string representation of JobStatus
func (js JobStatus) String() string {
	return string(js)
}

// IsTerminal returns true if no further mutation of the job is permitted
func (js JobStatus) IsTerminal() bool {
	return js == JobStatusCompleted || js == JobStatusFailed || js == JobStatusCancelled
}

// JobKind distinguishes download jobs from conversion jobs
type JobKind string

const (
	JobKindDownload JobKind = "download"
	JobKindConvert  JobKind = "convert"
)

// String returns the string representation of JobKind
func (jk JobKind) String() string {
	return string(jk)
}

// IsValid reports whether the kind is one of the known job kinds
func (jk JobKind) IsValid() bool {
	return jk == JobKindDownload || jk == JobKindConvert
}
