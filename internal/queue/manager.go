package queue

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ytget/playlist-manager/internal/model"
	"github.com/ytget/playlist-manager/internal/progress"
	"github.com/ytget/playlist-manager/internal/tool"
)

// Error taxonomy of the queue manager
var (
	// ErrInvalidJobSpec rejects a malformed enqueue request; no job is created
	ErrInvalidJobSpec = errors.New("invalid job spec")

	// ErrJobNotFound means the given job ID is unknown
	ErrJobNotFound = errors.New("job not found")

	// ErrUnsupportedOperation means the operation is not valid in the
	// job's current status
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// Defaults
const (
	DefaultMaxActive      = 2
	DefaultTerminateGrace = 5 * time.Second

	jobIDPrefix = "job-"
)

// job is the manager-owned record; external readers only ever see
// value copies of the embedded model.Job.
type job struct {
	model.Job
	preset          model.Preset
	handle          tool.Handle
	cancelRequested bool
}

// Manager owns the job collection and drives jobs from queued to
// terminal states under a configurable concurrency bound. It is an
// explicit instance: no ambient state, so independent managers can
// coexist (and be tested) freely.
type Manager struct {
	mu          sync.Mutex
	jobs        map[string]*job
	order       []string // enqueue order, the FIFO promotion scan follows it
	active      int
	maxActive   int
	grace       time.Duration
	runner      tool.Runner
	presets     *model.PresetRegistry
	listeners   []Listener
	unavailable map[model.JobKind]bool
	logger      *zap.Logger
	wg          sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithTerminateGrace sets the grace period between the termination
// request and the forceful kill of a cancelled job's process.
func WithTerminateGrace(grace time.Duration) Option {
	return func(m *Manager) { m.grace = grace }
}

// NewManager creates a queue manager with the given concurrency bound.
func NewManager(runner tool.Runner, presets *model.PresetRegistry, maxActive int, logger *zap.Logger, opts ...Option) *Manager {
	if maxActive < 1 {
		maxActive = DefaultMaxActive
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		jobs:        make(map[string]*job),
		maxActive:   maxActive,
		grace:       DefaultTerminateGrace,
		runner:      runner,
		presets:     presets,
		unavailable: make(map[model.JobKind]bool),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddListener registers a listener for queue events. Multiple listeners
// are supported; registration is not revocable.
func (m *Manager) AddListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Enqueue validates the spec and appends a new job in queued status,
// then immediately promotes queued jobs if capacity allows.
func (m *Manager) Enqueue(spec model.JobSpec) (model.Job, error) {
	if err := validateSpec(spec); err != nil {
		return model.Job{}, err
	}

	j := &job{
		Job: model.Job{
			ID:        generateJobID(),
			Kind:      spec.Kind,
			Input:     spec.Input,
			Output:    spec.Output,
			Quality:   spec.Quality,
			Preset:    spec.Preset,
			VideoID:   spec.VideoID,
			Status:    model.JobStatusQueued,
			ETASec:    progress.UnknownETA,
			CreatedAt: time.Now(),
		},
	}

	if spec.Kind == model.JobKindConvert {
		name := spec.Preset
		if name == "" {
			name = model.DefaultPresetName
		}
		preset, ok := m.presets.Get(name)
		if !ok {
			return model.Job{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidJobSpec, name)
		}
		j.preset = preset
		j.Preset = name
	}

	m.mu.Lock()
	m.jobs[j.ID] = j
	m.order = append(m.order, j.ID)
	snapshot := j.Job
	events := []Event{{Type: EventQueueChanged, Job: &snapshot}}
	events = append(events, m.promoteLocked()...)
	m.mu.Unlock()

	m.logger.Info("job enqueued",
		zap.String("id", j.ID),
		zap.String("kind", j.Kind.String()),
	)
	m.emit(events)
	return snapshot, nil
}

// Pause moves a queued job to paused. Queued jobs are not backed by a
// running process, so pausing is a pure status flip. Pausing an active
// job is rejected with ErrUnsupportedOperation: the manager does not
// suspend live processes.
func (m *Manager) Pause(id string) error {
	m.mu.Lock()
	j, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if j.Status != model.JobStatusQueued {
		status := j.Status
		m.mu.Unlock()
		return fmt.Errorf("%w: cannot pause job in status %s", ErrUnsupportedOperation, status)
	}
	j.Status = model.JobStatusPaused
	snapshot := j.Job
	m.mu.Unlock()

	m.emit([]Event{{Type: EventQueueChanged, Job: &snapshot}})
	return nil
}

// Resume re-enters a paused job into the promotion path as if freshly
// queued: it loses its original queue position.
func (m *Manager) Resume(id string) error {
	m.mu.Lock()
	j, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if j.Status != model.JobStatusPaused {
		status := j.Status
		m.mu.Unlock()
		return fmt.Errorf("%w: cannot resume job in status %s", ErrUnsupportedOperation, status)
	}
	j.Status = model.JobStatusQueued
	m.moveToTailLocked(id)
	snapshot := j.Job
	events := []Event{{Type: EventQueueChanged, Job: &snapshot}}
	events = append(events, m.promoteLocked()...)
	m.mu.Unlock()

	m.emit(events)
	return nil
}

// Cancel cancels a queued, paused or active job. For an active job the
// backing process is asked to terminate (grace period, then a forceful
// kill) but the status flips to cancelled immediately: cancellation is
// fire and forget. The concurrency slot is only released once the
// process is confirmed dead, so its output path is never reused by a
// promoted job while a zombie could still write to it.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	j, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if j.Status.IsTerminal() {
		status := j.Status
		m.mu.Unlock()
		return fmt.Errorf("%w: cannot cancel job in status %s", ErrUnsupportedOperation, status)
	}

	wasActive := j.Status == model.JobStatusActive
	j.Status = model.JobStatusCancelled
	j.CompletedAt = time.Now()
	j.cancelRequested = true
	handle := j.handle
	snapshot := j.Job
	m.mu.Unlock()

	if wasActive && handle != nil {
		handle.Terminate(m.grace)
	}

	m.logger.Info("job cancelled", zap.String("id", id))
	m.emit([]Event{{Type: EventQueueChanged, Job: &snapshot}})
	return nil
}

// ResetTool clears the unavailable flag for a tool kind after the
// environment has been fixed, and resumes promotion of held jobs.
func (m *Manager) ResetTool(kind model.JobKind) {
	m.mu.Lock()
	delete(m.unavailable, kind)
	events := m.promoteLocked()
	m.mu.Unlock()
	m.emit(events)
}

// Status returns a point-in-time snapshot of queue counters.
func (m *Manager) Status() model.QueueStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := model.QueueStatus{Total: len(m.jobs)}
	for _, j := range m.jobs {
		switch j.Status {
		case model.JobStatusQueued:
			status.Queued++
		case model.JobStatusActive:
			status.Active++
		case model.JobStatusPaused:
			status.Paused++
		case model.JobStatusCompleted:
			status.Completed++
		case model.JobStatusFailed:
			status.Failed++
		case model.JobStatusCancelled:
			status.Cancelled++
		}
	}
	return status
}

// GetJob returns a snapshot of a job by ID.
func (m *Manager) GetJob(id string) (model.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return model.Job{}, false
	}
	return j.Job, true
}

// ListJobs returns snapshots of all jobs in enqueue order.
func (m *Manager) ListJobs() []model.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	jobs := make([]model.Job, 0, len(m.order))
	for _, id := range m.order {
		jobs = append(jobs, m.jobs[id].Job)
	}
	return jobs
}

// WaitActive blocks until all currently running job goroutines have
// finished. Queued jobs that were never promoted are not waited for.
func (m *Manager) WaitActive() {
	m.wg.Wait()
}

// promoteLocked scans queued jobs in FIFO order and promotes as many as
// fit under the concurrency bound. Kinds whose tool is unavailable are
// skipped. Caller must hold the lock; returned events are emitted after
// unlocking.
func (m *Manager) promoteLocked() []Event {
	var events []Event
	for _, id := range m.order {
		if m.active >= m.maxActive {
			break
		}
		j := m.jobs[id]
		if j.Status != model.JobStatusQueued || m.unavailable[j.Kind] {
			continue
		}
		j.Status = model.JobStatusActive
		m.active++
		m.wg.Add(1)
		snapshot := j.Job
		events = append(events, Event{Type: EventQueueChanged, Job: &snapshot})
		go m.run(id)
	}
	return events
}

// run drives one active job: spawn, stream, reap.
func (m *Manager) run(id string) {
	defer m.wg.Done()

	m.mu.Lock()
	j, ok := m.jobs[id]
	if !ok || j.cancelRequested {
		m.releaseSlotLocked()
		events := m.promoteLocked()
		m.mu.Unlock()
		m.emit(events)
		return
	}
	kind := j.Kind
	snapshot := j.Job
	preset := j.preset
	m.mu.Unlock()

	var argv []string
	var parser *progress.Parser
	switch kind {
	case model.JobKindDownload:
		argv = tool.BuildDownloadArgs(snapshot)
		parser = progress.NewDownloadParser()
	case model.JobKindConvert:
		duration, err := m.runner.ProbeDuration(snapshot.Input)
		if err != nil {
			if errors.Is(err, tool.ErrToolUnavailable) {
				m.holdTool(id, kind, err)
				return
			}
			m.failJob(id, fmt.Sprintf("probe input duration: %v", err))
			return
		}
		argv = tool.BuildConvertArgs(snapshot, preset)
		parser = progress.NewConvertParser(duration)
	}

	handle, err := m.runner.Spawn(argv)
	if err != nil {
		if errors.Is(err, tool.ErrToolUnavailable) {
			m.holdTool(id, kind, err)
			return
		}
		m.failJob(id, err.Error())
		return
	}

	m.mu.Lock()
	j.handle = handle
	alreadyCancelled := j.cancelRequested
	m.mu.Unlock()
	if alreadyCancelled {
		handle.Terminate(m.grace)
	}

	lastStderr := ""
	for line := range handle.Lines() {
		if line.Stream == tool.StreamStderr {
			if text := strings.TrimSpace(line.Text); text != "" {
				lastStderr = text
			}
		}
		if dest, ok := progress.ExtractDestination(line.Text); ok {
			m.mu.Lock()
			if !j.Status.IsTerminal() {
				j.OutputPath = dest
			}
			m.mu.Unlock()
		}
		update := parser.ParseLine(line.Text)
		if update == nil {
			continue
		}
		m.mu.Lock()
		if j.Status.IsTerminal() {
			m.mu.Unlock()
			continue
		}
		j.Progress = update.Percent
		j.Phase = update.Phase
		j.ETASec = update.ETASec
		if update.Speed != "" {
			j.Speed = update.Speed
		}
		progressSnapshot := j.Job
		m.mu.Unlock()
		m.emit([]Event{{Type: EventProgress, Job: &progressSnapshot}})
	}

	status := handle.Wait()
	m.finishJob(id, status, lastStderr)
}

// finishJob records the terminal state once the child process is
// confirmed dead and frees the concurrency slot.
func (m *Manager) finishJob(id string, status tool.ExitStatus, lastStderr string) {
	m.mu.Lock()
	j := m.jobs[id]
	m.releaseSlotLocked()

	var events []Event
	if !j.Status.IsTerminal() {
		if status.Code == 0 && status.Err == nil {
			j.Status = model.JobStatusCompleted
			j.Progress = progress.MaxPercent
			j.ETASec = 0
			if j.OutputPath == "" {
				j.OutputPath = j.Output
			}
		} else {
			j.Status = model.JobStatusFailed
			if lastStderr != "" {
				j.LastError = lastStderr
			} else if status.Err != nil {
				j.LastError = status.Err.Error()
			} else {
				j.LastError = fmt.Sprintf("exit code %d", status.Code)
			}
		}
		j.CompletedAt = time.Now()

		snapshot := j.Job
		if j.Status == model.JobStatusCompleted {
			events = append(events, Event{Type: EventComplete, Job: &snapshot})
		} else {
			events = append(events, Event{Type: EventError, Job: &snapshot, Message: j.LastError})
		}
		events = append(events, Event{Type: EventQueueChanged, Job: &snapshot})
	}
	events = append(events, m.promoteLocked()...)
	m.mu.Unlock()

	m.logger.Info("job finished",
		zap.String("id", id),
		zap.Int("exit_code", status.Code),
	)
	m.emit(events)
}

// failJob marks a job failed for reasons other than a process exit.
func (m *Manager) failJob(id string, message string) {
	m.mu.Lock()
	j := m.jobs[id]
	m.releaseSlotLocked()

	var events []Event
	if !j.Status.IsTerminal() {
		j.Status = model.JobStatusFailed
		j.LastError = message
		j.CompletedAt = time.Now()
		snapshot := j.Job
		events = append(events,
			Event{Type: EventError, Job: &snapshot, Message: message},
			Event{Type: EventQueueChanged, Job: &snapshot},
		)
	}
	events = append(events, m.promoteLocked()...)
	m.mu.Unlock()

	m.emit(events)
}

// holdTool returns the job to queued and marks its tool kind
// unavailable. The unavailable signal is surfaced once, not repeated
// per job; held jobs are skipped by promotion until ResetTool.
func (m *Manager) holdTool(id string, kind model.JobKind, cause error) {
	m.mu.Lock()
	j := m.jobs[id]
	m.releaseSlotLocked()

	var events []Event
	if !j.Status.IsTerminal() {
		j.Status = model.JobStatusQueued
		snapshot := j.Job
		events = append(events, Event{Type: EventQueueChanged, Job: &snapshot})
	}
	if !m.unavailable[kind] {
		m.unavailable[kind] = true
		events = append(events, Event{
			Type:    EventToolUnavailable,
			Kind:    kind,
			Message: cause.Error(),
		})
	}
	events = append(events, m.promoteLocked()...)
	m.mu.Unlock()

	m.logger.Warn("tool unavailable, holding queued jobs",
		zap.String("kind", kind.String()),
		zap.Error(cause),
	)
	m.emit(events)
}

func (m *Manager) releaseSlotLocked() {
	if m.active > 0 {
		m.active--
	}
}

func (m *Manager) moveToTailLocked(id string) {
	for i, other := range m.order {
		if other == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.order = append(m.order, id)
}

// emit delivers events to all listeners outside the manager lock.
func (m *Manager) emit(events []Event) {
	if len(events) == 0 {
		return
	}
	m.mu.Lock()
	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, event := range events {
		for _, l := range listeners {
			l(event)
		}
	}
}

func validateSpec(spec model.JobSpec) error {
	if !spec.Kind.IsValid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidJobSpec, spec.Kind)
	}
	if strings.TrimSpace(spec.Input) == "" {
		return fmt.Errorf("%w: input reference is required", ErrInvalidJobSpec)
	}
	if strings.TrimSpace(spec.Output) == "" {
		return fmt.Errorf("%w: output destination is required", ErrInvalidJobSpec)
	}
	return nil
}

// generateJobID generates a unique job ID using UUID v7 for better
// uniqueness and time ordering.
func generateJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to timestamp if UUID generation fails
		return fmt.Sprintf(jobIDPrefix+"%d", time.Now().UnixNano())
	}
	return jobIDPrefix + id.String()
}
