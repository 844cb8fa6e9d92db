package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ytget/playlist-manager/internal/model"
)

// Converted file naming
const (
	ConvertedSuffix    = "_converted"
	ConvertedExtension = ".mp4"
)

var (
	convertPreset string
	convertOutput string
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <input-file...>",
	Short: "Convert video files through the job queue",
	Long: `Convert queues the given files for transcoding with the selected
preset. Without --output each converted file is written next to its
input with a "` + ConvertedSuffix + `" suffix.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringVarP(&convertPreset, "preset", "p", model.DefaultPresetName, "conversion preset name")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output file (single input only)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	if convertOutput != "" && len(args) > 1 {
		return fmt.Errorf("--output is only valid with a single input file")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := newJobWatcher(a.bridge)
	for _, input := range args {
		output := convertOutput
		if output == "" {
			output = convertedPath(input)
		}
		job, err := a.bridge.EnqueueConvert(model.JobSpec{
			Input:  input,
			Output: output,
			Preset: convertPreset,
		})
		if err != nil {
			return err
		}
		watcher.track(job.ID)
	}

	printf("queued %d conversion(s)\n", len(args))
	return watcher.wait(ctx)
}

// convertedPath places the output next to the input file.
func convertedPath(input string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	return base + ConvertedSuffix + ConvertedExtension
}
