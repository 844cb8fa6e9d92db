// Package playlist imports playlists through the external downloader's
// flat-playlist JSON dump and persists them in the datastore.
package playlist

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ytget/playlist-manager/internal/model"
	"github.com/ytget/playlist-manager/internal/store"
	"github.com/ytget/playlist-manager/internal/tool"
)

// URL parameters and separators
const (
	PlaylistParam  = "list="
	ParamSeparator = "&"
)

// Default values
const (
	DefaultDuration     = "Unknown"
	DefaultPlaylistName = "Unknown Playlist"
)

// URL templates
const (
	VideoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// Playlist title derivation
const (
	MinPrefixLength = 10
	PlaylistSuffix  = " Playlist"
)

// Importer fetches playlist metadata via the tool adapter and stores
// the resulting playlist.
type Importer struct {
	runner tool.Runner
	store  store.Store
	logger *zap.Logger
}

// NewImporter creates a playlist importer.
func NewImporter(runner tool.Runner, st store.Store, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{runner: runner, store: st, logger: logger}
}

// Import fetches the playlist behind the URL, parses it and persists it.
func (i *Importer) Import(url string) (*model.Playlist, error) {
	if !IsValidPlaylistURL(url) {
		return nil, fmt.Errorf("invalid playlist URL: %s", url)
	}

	handle, err := i.runner.Spawn(tool.BuildPlaylistArgs(url))
	if err != nil {
		return nil, fmt.Errorf("spawn playlist dump: %w", err)
	}

	var stdout strings.Builder
	lastStderr := ""
	for line := range handle.Lines() {
		switch line.Stream {
		case tool.StreamStdout:
			stdout.WriteString(line.Text)
			stdout.WriteString("\n")
		case tool.StreamStderr:
			if text := strings.TrimSpace(line.Text); text != "" {
				lastStderr = text
			}
		}
	}
	status := handle.Wait()
	if status.Code != 0 || status.Err != nil {
		if lastStderr != "" {
			return nil, fmt.Errorf("playlist dump failed: %s", lastStderr)
		}
		return nil, fmt.Errorf("playlist dump failed: %w", status.Err)
	}

	playlist, err := ParseFlatPlaylist([]byte(stdout.String()), url)
	if err != nil {
		return nil, err
	}

	if err := i.store.SavePlaylist(playlist); err != nil {
		return nil, fmt.Errorf("persist playlist: %w", err)
	}

	i.logger.Info("playlist imported",
		zap.String("id", playlist.ID),
		zap.String("title", playlist.Title),
		zap.Int("videos", playlist.TotalVideos),
	)
	return playlist, nil
}

// flatPlaylist mirrors the single JSON document produced by
// "--flat-playlist -J".
type flatPlaylist struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Entries []flatEntry `json:"entries"`
}

type flatEntry struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	URL      string  `json:"url"`
}

// ParseFlatPlaylist turns the flat-playlist JSON document into a
// Playlist ready for persistence.
func ParseFlatPlaylist(data []byte, url string) (*model.Playlist, error) {
	var flat flatPlaylist
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("parse playlist JSON: %w", err)
	}

	now := time.Now()
	videos := make([]*model.Video, 0, len(flat.Entries))
	for _, entry := range flat.Entries {
		if entry.ID == "" {
			continue
		}
		videoURL := entry.URL
		if videoURL == "" {
			videoURL = fmt.Sprintf(VideoURLTemplate, entry.ID)
		}
		videos = append(videos, &model.Video{
			ID:        entry.ID,
			Title:     entry.Title,
			Duration:  formatDuration(int(entry.Duration)),
			URL:       videoURL,
			Status:    model.VideoStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	id := flat.ID
	if id == "" {
		id = ExtractPlaylistID(url)
	}
	if id == "" {
		return nil, fmt.Errorf("could not determine playlist ID from URL: %s", url)
	}

	title := flat.Title
	if title == "" {
		title = derivePlaylistTitle(videos)
	}

	playlist := &model.Playlist{
		ID:        id,
		Title:     title,
		URL:       url,
		Status:    model.PlaylistStatusReady,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, v := range videos {
		playlist.AddVideo(v)
	}
	return playlist, nil
}

// IsValidPlaylistURL checks if the URL carries a playlist parameter.
func IsValidPlaylistURL(url string) bool {
	return strings.Contains(url, PlaylistParam)
}

// ExtractPlaylistID extracts the playlist ID from various URL formats.
func ExtractPlaylistID(url string) string {
	if !strings.Contains(url, PlaylistParam) {
		return ""
	}
	parts := strings.Split(url, PlaylistParam)
	if len(parts) < 2 {
		return ""
	}
	playlistPart := parts[1]
	if strings.Contains(playlistPart, ParamSeparator) {
		playlistPart = strings.Split(playlistPart, ParamSeparator)[0]
	}
	return playlistPart
}

// formatDuration formats seconds into MM:SS or HH:MM:SS form.
func formatDuration(seconds int) string {
	if seconds <= 0 {
		return DefaultDuration
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// derivePlaylistTitle generates a title from the videos when the dump
// carries none: a sufficiently long common prefix of the first two
// titles, or the first title.
func derivePlaylistTitle(videos []*model.Video) string {
	if len(videos) == 0 {
		return DefaultPlaylistName
	}
	if len(videos) > 1 {
		commonPrefix := findCommonPrefix(videos[0].Title, videos[1].Title)
		if len(commonPrefix) > MinPrefixLength {
			return strings.TrimSpace(commonPrefix) + PlaylistSuffix
		}
	}
	return videos[0].Title + PlaylistSuffix
}

// findCommonPrefix finds the common prefix between two strings.
func findCommonPrefix(s1, s2 string) string {
	minLen := min(len(s1), len(s2))
	for i := 0; i < minLen; i++ {
		if s1[i] != s2[i] {
			return s1[:i]
		}
	}
	return s1[:minLen]
}
