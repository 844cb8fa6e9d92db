// Package bridge is the command and message surface of the core: the
// presentation layer calls its operations and subscribes to its events,
// and never touches the queue, store or tool adapter directly.
package bridge

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ytget/playlist-manager/internal/fsutil"
	"github.com/ytget/playlist-manager/internal/model"
	"github.com/ytget/playlist-manager/internal/playlist"
	"github.com/ytget/playlist-manager/internal/queue"
	"github.com/ytget/playlist-manager/internal/store"
)

// Bridge wires the queue manager, the datastore and the playlist
// importer behind one API. It listens on the queue and reflects
// download outcomes into the datastore before forwarding events to its
// own subscribers.
type Bridge struct {
	queue    *queue.Manager
	store    store.Store
	importer *playlist.Importer
	logger   *zap.Logger

	mu          sync.Mutex
	subscribers []queue.Listener
	handlers    sync.WaitGroup
}

// New creates a bridge and registers it as a queue listener.
func New(q *queue.Manager, st store.Store, importer *playlist.Importer, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bridge{
		queue:    q,
		store:    st,
		importer: importer,
		logger:   logger,
	}
	q.AddListener(b.handleQueueEvent)
	return b
}

// Subscribe registers a listener for forwarded queue events.
func (b *Bridge) Subscribe(l queue.Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, l)
}

// ImportPlaylist fetches and persists the playlist behind the URL.
func (b *Bridge) ImportPlaylist(url string) (*model.Playlist, error) {
	return b.importer.Import(url)
}

// EnqueueDownload queues a video download.
func (b *Bridge) EnqueueDownload(spec model.JobSpec) (model.Job, error) {
	spec.Kind = model.JobKindDownload
	return b.queue.Enqueue(spec)
}

// EnqueueConvert queues a file conversion.
func (b *Bridge) EnqueueConvert(spec model.JobSpec) (model.Job, error) {
	spec.Kind = model.JobKindConvert
	return b.queue.Enqueue(spec)
}

// PauseJob pauses a queued job.
func (b *Bridge) PauseJob(id string) error { return b.queue.Pause(id) }

// ResumeJob resumes a paused job.
func (b *Bridge) ResumeJob(id string) error { return b.queue.Resume(id) }

// CancelJob cancels a queued, paused or active job.
func (b *Bridge) CancelJob(id string) error { return b.queue.Cancel(id) }

// QueueStatus returns the queue counters.
func (b *Bridge) QueueStatus() model.QueueStatus { return b.queue.Status() }

// GetJob returns a job snapshot by ID.
func (b *Bridge) GetJob(id string) (model.Job, bool) { return b.queue.GetJob(id) }

// ListJobs returns all job snapshots in enqueue order.
func (b *Bridge) ListJobs() []model.Job { return b.queue.ListJobs() }

// ResetTool clears the unavailable flag after the environment is fixed.
func (b *Bridge) ResetTool(kind model.JobKind) { b.queue.ResetTool(kind) }

// ListPlaylists returns all stored playlists.
func (b *Bridge) ListPlaylists() ([]*model.Playlist, error) { return b.store.ListPlaylists() }

// GetPlaylist returns one stored playlist with its videos.
func (b *Bridge) GetPlaylist(id string) (*model.Playlist, error) { return b.store.GetPlaylist(id) }

// WaitActive blocks until all currently running job processes have
// exited.
func (b *Bridge) WaitActive() { b.queue.WaitActive() }

// Drain blocks until all in-flight completion handlers have finished.
func (b *Bridge) Drain() {
	b.handlers.Wait()
}

// handleQueueEvent reflects job outcomes into the datastore and
// forwards every event to the subscribers. Datastore writes run off the
// queue's event path: listeners must not block.
func (b *Bridge) handleQueueEvent(e queue.Event) {
	if e.Job != nil && e.Job.VideoID != "" {
		switch e.Type {
		case queue.EventComplete:
			if e.Job.Kind == model.JobKindDownload {
				job := *e.Job
				b.handlers.Add(1)
				go func() {
					defer b.handlers.Done()
					b.recordDownload(job)
				}()
			}
		case queue.EventError:
			videoID, message := e.Job.VideoID, e.Message
			b.handlers.Add(1)
			go func() {
				defer b.handlers.Done()
				if err := b.store.MarkVideoError(videoID, message); err != nil {
					b.logger.Warn("failed to record video error",
						zap.String("video_id", videoID),
						zap.Error(err),
					)
				}
			}()
		}
	}

	b.mu.Lock()
	subscribers := make([]queue.Listener, len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.mu.Unlock()
	for _, s := range subscribers {
		s(e)
	}
}

// recordDownload hashes the finished file and marks the video
// downloaded. Hash and size are best effort: a file that disappeared
// between completion and hashing still counts as downloaded.
func (b *Bridge) recordDownload(job model.Job) {
	path := job.OutputPath
	hash, err := fsutil.HashFile(path)
	if err != nil {
		b.logger.Warn("failed to hash downloaded file",
			zap.String("path", path),
			zap.Error(err),
		)
	}
	size, err := fsutil.FileSize(path)
	if err != nil {
		size = 0
	}

	if err := b.store.MarkDownloaded(job.VideoID, path, hash, size); err != nil {
		b.logger.Warn("failed to mark video downloaded",
			zap.String("video_id", job.VideoID),
			zap.Error(err),
		)
		return
	}
	b.logger.Info("video downloaded",
		zap.String("video_id", job.VideoID),
		zap.String("path", path),
	)
}
