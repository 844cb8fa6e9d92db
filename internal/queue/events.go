package queue

import (
	"github.com/ytget/playlist-manager/internal/model"
)

// EventType identifies the kind of queue event delivered to listeners.
type EventType string

const (
	// EventProgress carries an updated job snapshot while it is active
	EventProgress EventType = "progress"

	// EventComplete fires when a job reaches the completed status
	EventComplete EventType = "complete"

	// EventError fires when a job reaches the failed status
	EventError EventType = "error"

	// EventQueueChanged fires on any queue membership or status change
	EventQueueChanged EventType = "queueChanged"

	// EventToolUnavailable fires once per tool kind when its binary
	// cannot be spawned; queued jobs of that kind are held, not failed
	EventToolUnavailable EventType = "toolUnavailable"
)

// Event is delivered to registered listeners. Job is a value copy; the
// live record never leaves the manager.
type Event struct {
	Type    EventType
	Job     *model.Job
	Kind    model.JobKind // set for toolUnavailable events
	Message string
}

// Listener receives queue events. Listeners are invoked synchronously
// from the manager's event path and must not block.
type Listener func(Event)
