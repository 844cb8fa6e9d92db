package cli

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ytget/playlist-manager/internal/model"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Download every pending video of every imported playlist",
	Long: `Serve queues all pending videos across all imported playlists and
runs the queue until it is idle or the process is interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	pending, err := a.store.ListVideosByStatus(model.VideoStatusPending)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		printf("queue is idle: no pending videos\n")
		return nil
	}

	outputTemplate := filepath.Join(a.settings.DownloadDir, OutputTemplate)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := newJobWatcher(a.bridge)
	for _, video := range pending {
		job, err := a.bridge.EnqueueDownload(model.JobSpec{
			Input:   video.URL,
			Output:  outputTemplate,
			Quality: a.settings.Quality,
			VideoID: video.ID,
		})
		if err != nil {
			return err
		}
		watcher.track(job.ID)
	}

	printf("queued %d pending download(s)\n", len(pending))
	return watcher.wait(ctx)
}
