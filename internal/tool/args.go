package tool

import (
	"fmt"

	"github.com/ytget/playlist-manager/internal/model"
)

// External tool executables
const (
	YTDLPCommand   = "yt-dlp"
	FFmpegCommand  = "ffmpeg"
	FFprobeCommand = "ffprobe"
)

// ffmpeg invocation constants
const (
	FastStartFlag      = "+faststart"
	ProgressPipeTarget = "pipe:2"

	FFprobeLogLevel     = "error"
	FFprobeShowEntries  = "format=duration"
	FFprobeOutputFormat = "csv=p=0"
)

// Quality preset names for downloads
const (
	QualityBest   = "best"
	QualityMedium = "medium"
	QualityAudio  = "audio"
)

// FormatSelector maps a quality preset name to a yt-dlp format selector.
func FormatSelector(quality string) string {
	switch quality {
	case QualityBest:
		return "bv*+ba/b"
	case QualityMedium:
		return "bv*[height<=720]+ba/b[height<=720]"
	case QualityAudio:
		return "ba/b"
	default:
		return "bv*+ba/b"
	}
}

// BuildDownloadArgs builds the yt-dlp argument vector for a download job.
// The vector is spawned directly, never through a shell, and the input URL
// is placed after "--" so it cannot be interpreted as an option.
func BuildDownloadArgs(job model.Job) []string {
	return []string{
		YTDLPCommand,
		"--newline",
		"--no-playlist",
		"--restrict-filenames",
		"-f", FormatSelector(job.Quality),
		"-o", job.Output,
		"--",
		job.Input,
	}
}

// BuildConvertArgs builds the ffmpeg argument vector for a conversion job
// using the given preset. Progress is written to stderr in key=value form.
func BuildConvertArgs(job model.Job, preset model.Preset) []string {
	args := []string{
		FFmpegCommand,
		"-y",
		"-i", job.Input,
		"-c:v", preset.VideoCodec,
		"-preset", preset.VideoPreset,
		"-crf", preset.CRF,
		"-c:a", preset.AudioCodec,
		"-b:a", preset.AudioBitrate,
	}
	if preset.ScaleHeight > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=-2:%d", preset.ScaleHeight))
	}
	args = append(args,
		"-movflags", FastStartFlag,
		"-progress", ProgressPipeTarget,
		"-nostats",
		job.Output,
	)
	return args
}

// BuildPlaylistArgs builds the yt-dlp argument vector that dumps a
// playlist as a single flat JSON document on stdout.
func BuildPlaylistArgs(url string) []string {
	return []string{
		YTDLPCommand,
		"--flat-playlist",
		"-J",
		"--",
		url,
	}
}
