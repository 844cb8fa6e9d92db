package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/ytget/playlist-manager/internal/model"
	"github.com/ytget/playlist-manager/internal/progress"
	"github.com/ytget/playlist-manager/internal/queue"
)

// jobWatcher follows a set of jobs through bridge events, prints their
// progress and resolves once every tracked job is terminal.
type jobWatcher struct {
	bridge jobBridge

	mu      sync.Mutex
	pending map[string]bool
	failed  int
	done    chan struct{}
	closed  bool
}

// jobBridge is the slice of the bridge the watcher needs.
type jobBridge interface {
	Subscribe(l queue.Listener)
	GetJob(id string) (model.Job, bool)
	CancelJob(id string) error
}

func newJobWatcher(b jobBridge) *jobWatcher {
	w := &jobWatcher{
		bridge:  b,
		pending: make(map[string]bool),
		done:    make(chan struct{}),
	}
	b.Subscribe(w.onEvent)
	return w
}

// track registers a job. Jobs that reached a terminal state before
// tracking are resolved immediately.
func (w *jobWatcher) track(id string) {
	w.mu.Lock()
	w.pending[id] = true
	w.mu.Unlock()

	if job, ok := w.bridge.GetJob(id); ok && job.Status.IsTerminal() {
		w.resolve(job)
	}
}

// wait blocks until every tracked job is terminal or the context is
// cancelled; on cancellation all still-pending jobs are cancelled and
// waited for. Returns an error if any job failed.
func (w *jobWatcher) wait(ctx context.Context) error {
	w.mu.Lock()
	if len(w.pending) == 0 && !w.closed {
		w.closed = true
		close(w.done)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
	case <-ctx.Done():
		printf("\ninterrupted, cancelling jobs...\n")
		w.mu.Lock()
		ids := make([]string, 0, len(w.pending))
		for id := range w.pending {
			ids = append(ids, id)
		}
		w.mu.Unlock()
		for _, id := range ids {
			w.bridge.CancelJob(id)
		}
		<-w.done
	}

	w.mu.Lock()
	failed := w.failed
	w.mu.Unlock()
	if failed > 0 {
		return fmt.Errorf("%d job(s) failed", failed)
	}
	return nil
}

func (w *jobWatcher) onEvent(e queue.Event) {
	switch e.Type {
	case queue.EventProgress:
		w.printProgress(e.Job)
	case queue.EventComplete:
		printf("\rcompleted %s -> %s\n", e.Job.GetDisplayName(), e.Job.OutputPath)
		w.resolve(*e.Job)
	case queue.EventError:
		printf("\rfailed %s: %s\n", e.Job.GetDisplayName(), e.Message)
		w.resolve(*e.Job)
	case queue.EventQueueChanged:
		// Cancellation surfaces here, without a complete/error event.
		if e.Job != nil && e.Job.Status == model.JobStatusCancelled {
			w.resolve(*e.Job)
		}
	case queue.EventToolUnavailable:
		printf("\ntool for %s jobs unavailable: %s\n", e.Kind, e.Message)
	}
}

func (w *jobWatcher) printProgress(job *model.Job) {
	w.mu.Lock()
	tracked := w.pending[job.ID]
	w.mu.Unlock()
	if !tracked {
		return
	}
	line := fmt.Sprintf("\r[%s] %5.1f%%", job.Phase, job.Progress)
	if job.ETASec != progress.UnknownETA {
		line += " ETA " + job.GetETAString()
	}
	if job.Speed != "" {
		line += " " + job.Speed
	}
	printf("%s", line)
}

func (w *jobWatcher) resolve(job model.Job) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.pending[job.ID] {
		return
	}
	delete(w.pending, job.ID)
	if job.Status == model.JobStatusFailed {
		w.failed++
	}
	if len(w.pending) == 0 && !w.closed {
		w.closed = true
		close(w.done)
	}
}
