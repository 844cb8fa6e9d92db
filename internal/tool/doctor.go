package tool

import (
	"os/exec"
	"strings"
)

// DependencyReport describes which external tools were found on PATH.
type DependencyReport struct {
	YTDLPFound    bool   `json:"yt_dlp_found"`
	YTDLPPath     string `json:"yt_dlp_path,omitempty"`
	YTDLPVersion  string `json:"yt_dlp_version,omitempty"`
	FFmpegFound   bool   `json:"ffmpeg_found"`
	FFmpegPath    string `json:"ffmpeg_path,omitempty"`
	FFmpegVersion string `json:"ffmpeg_version,omitempty"`
}

// DependencyStatus probes PATH for the external tools and queries their
// versions.
func DependencyStatus() DependencyReport {
	report := DependencyReport{}
	if path, err := exec.LookPath(YTDLPCommand); err == nil {
		report.YTDLPFound = true
		report.YTDLPPath = path
		report.YTDLPVersion = toolVersion(YTDLPCommand, "--version")
	}
	if path, err := exec.LookPath(FFmpegCommand); err == nil {
		report.FFmpegFound = true
		report.FFmpegPath = path
		report.FFmpegVersion = toolVersion(FFmpegCommand, "-version")
	}
	return report
}

// toolVersion returns the first line of the tool's version output.
func toolVersion(binary, flag string) string {
	output, err := exec.Command(binary, flag).Output()
	if err != nil {
		return ""
	}
	line := strings.SplitN(strings.TrimSpace(string(output)), "\n", 2)[0]
	return strings.TrimSpace(line)
}
