package model

import (
	"time"
)

// PlaylistStatus represents the current status of a playlist
type PlaylistStatus string

const (
	PlaylistStatusImporting   PlaylistStatus = "importing"
	PlaylistStatusReady       PlaylistStatus = "ready"
	PlaylistStatusDownloading PlaylistStatus = "downloading"
	PlaylistStatusCompleted   PlaylistStatus = "completed"
	PlaylistStatusError       PlaylistStatus = "error"
)

// VideoStatus represents the status of a single video in a playlist
type VideoStatus string

const (
	VideoStatusPending    VideoStatus = "pending"
	VideoStatusDownloaded VideoStatus = "downloaded"
	VideoStatusError      VideoStatus = "error"
	VideoStatusSkipped    VideoStatus = "skipped"
)

// Video represents a single video persisted in the datastore
type Video struct {
	ID         string      `json:"id"`
	PlaylistID string      `json:"playlist_id"`
	Title      string      `json:"title"`
	Duration   string      `json:"duration"`
	URL        string      `json:"url"`
	Status     VideoStatus `json:"status"`
	OutputPath string      `json:"output_path,omitempty"`
	FileSize   int64       `json:"file_size,omitempty"`
	FileHash   string      `json:"file_hash,omitempty"` // SHA-256 of the downloaded file
	LastError  string      `json:"last_error,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Playlist represents an imported playlist with its videos
type Playlist struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	URL         string         `json:"url"`
	Videos      []*Video       `json:"videos"`
	Status      PlaylistStatus `json:"status"`
	TotalVideos int            `json:"total_videos"`
	Downloaded  int            `json:"downloaded"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewPlaylist creates a new playlist instance
func NewPlaylist(url string) *Playlist {
	now := time.Now()
	return &Playlist{
		URL:       url,
		Status:    PlaylistStatusImporting,
		Videos:    make([]*Video, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddVideo adds a video to the playlist
func (p *Playlist) AddVideo(video *Video) {
	video.PlaylistID = p.ID
	p.Videos = append(p.Videos, video)
	p.TotalVideos = len(p.Videos)
	p.UpdatedAt = time.Now()
}

// GetPendingVideos returns all videos that have not been downloaded yet
func (p *Playlist) GetPendingVideos() []*Video {
	var pending []*Video
	for _, video := range p.Videos {
		if video.Status == VideoStatusPending {
			pending = append(pending, video)
		}
	}
	return pending
}

// GetDownloadProgress returns overall download progress as percentage
func (p *Playlist) GetDownloadProgress() float64 {
	if p.TotalVideos == 0 {
		return 0
	}

	downloaded := 0
	for _, video := range p.Videos {
		if video.Status == VideoStatusDownloaded {
			downloaded++
		}
	}
	return float64(downloaded) / float64(p.TotalVideos) * 100
}

// DuplicateRelationship records that two videos resolve to the same content.
type DuplicateRelationship struct {
	OriginalID  string    `json:"original_id"`
	DuplicateID string    `json:"duplicate_id"`
	Score       float64   `json:"score"`
	Method      string    `json:"method"` // "hash" or "title"
	DetectedAt  time.Time `json:"detected_at"`
}
