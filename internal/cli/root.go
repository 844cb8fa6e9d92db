// Package cli implements the command line interface. Commands talk to
// the core exclusively through the bridge.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ytget/playlist-manager/internal/bridge"
	"github.com/ytget/playlist-manager/internal/config"
	"github.com/ytget/playlist-manager/internal/fsutil"
	"github.com/ytget/playlist-manager/internal/model"
	"github.com/ytget/playlist-manager/internal/playlist"
	"github.com/ytget/playlist-manager/internal/queue"
	"github.com/ytget/playlist-manager/internal/store"
	"github.com/ytget/playlist-manager/internal/tool"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "playlist-manager",
	Short: "Import, download and convert video playlists",
	Long: `playlist-manager imports video playlists, downloads their videos
through yt-dlp and converts files through ffmpeg, with a bounded
parallel job queue and a local SQLite catalog.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion records the build version on the root command.
func SetVersion(version string) {
	rootCmd.Version = version
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.playlist-manager/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// app bundles the wired core components behind the CLI commands.
type app struct {
	settings *config.Settings
	logger   *zap.Logger
	store    store.Store
	bridge   *bridge.Bridge
}

// newApp loads settings and wires the core. The caller must call close.
func newApp() (*app, error) {
	settings, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger()
	if err != nil {
		return nil, err
	}

	if err := fsutil.CreateDirectoryIfNotExists(settings.DownloadDir); err != nil {
		return nil, fmt.Errorf("create download directory: %w", err)
	}

	st, err := store.NewSQLiteStore(settings.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open datastore: %w", err)
	}

	runner := tool.NewExecRunner(logger)
	presets := model.NewPresetRegistry(settings.Presets)
	q := queue.NewManager(runner, presets, settings.MaxParallel, logger,
		queue.WithTerminateGrace(settings.TerminateGrace))
	importer := playlist.NewImporter(runner, st, logger)

	return &app{
		settings: settings,
		logger:   logger,
		store:    st,
		bridge:   bridge.New(q, st, importer, logger),
	}, nil
}

func (a *app) close() {
	a.bridge.WaitActive()
	a.bridge.Drain()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close datastore", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func printf(format string, args ...any) {
	fmt.Fprintf(os.Stdout, format, args...)
}
