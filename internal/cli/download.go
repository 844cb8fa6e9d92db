package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ytget/playlist-manager/internal/model"
)

// Output template
const (
	OutputTemplate = "%(title)s.%(ext)s"
)

var (
	downloadQuality  string
	downloadDir      string
	downloadPlaylist string
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download [video-url...]",
	Short: "Download videos through the job queue",
	Long: `Download queues the given video URLs, or all pending videos of an
imported playlist with --playlist, and runs them under the configured
parallelism bound until every job is terminal.`,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().StringVarP(&downloadQuality, "quality", "q", "", "quality preset: best, medium or audio (default from config)")
	downloadCmd.Flags().StringVarP(&downloadDir, "dir", "d", "", "output directory (default from config)")
	downloadCmd.Flags().StringVarP(&downloadPlaylist, "playlist", "p", "", "download all pending videos of the playlist with this ID")
}

func runDownload(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && downloadPlaylist == "" {
		return fmt.Errorf("provide video URLs or --playlist")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	quality := downloadQuality
	if quality == "" {
		quality = a.settings.Quality
	}
	dir := downloadDir
	if dir == "" {
		dir = a.settings.DownloadDir
	}
	outputTemplate := filepath.Join(dir, OutputTemplate)

	var specs []model.JobSpec
	for _, url := range args {
		specs = append(specs, model.JobSpec{
			Input:   url,
			Output:  outputTemplate,
			Quality: quality,
		})
	}

	if downloadPlaylist != "" {
		playlist, err := a.bridge.GetPlaylist(downloadPlaylist)
		if err != nil {
			return err
		}
		for _, video := range playlist.GetPendingVideos() {
			specs = append(specs, model.JobSpec{
				Input:   video.URL,
				Output:  outputTemplate,
				Quality: quality,
				VideoID: video.ID,
			})
		}
	}

	if len(specs) == 0 {
		printf("nothing to download\n")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := newJobWatcher(a.bridge)
	for _, spec := range specs {
		job, err := a.bridge.EnqueueDownload(spec)
		if err != nil {
			return err
		}
		watcher.track(job.ID)
	}

	printf("queued %d download(s)\n", len(specs))
	return watcher.wait(ctx)
}
