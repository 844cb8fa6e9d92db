// Package store persists playlists, videos and duplicate relationships
// in an embedded SQLite database.
package store

import (
	"errors"

	"github.com/ytget/playlist-manager/internal/model"
)

var (
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrVideoNotFound    = errors.New("video not found")
)

// Store defines the datastore interface consumed by the bridge, the
// playlist importer and the duplicate analyzer.
type Store interface {
	// Playlist operations
	SavePlaylist(playlist *model.Playlist) error
	GetPlaylist(id string) (*model.Playlist, error)
	ListPlaylists() ([]*model.Playlist, error)

	// Video operations
	GetVideo(id string) (*model.Video, error)
	ListVideos(playlistID string) ([]*model.Video, error)
	ListVideosByStatus(status model.VideoStatus) ([]*model.Video, error)
	MarkDownloaded(id, filePath, hash string, fileSize int64) error
	MarkVideoError(id, message string) error

	// Duplicate operations
	RecordDuplicate(originalID, duplicateID string, score float64, method string) error
	ListDuplicates() ([]*model.DuplicateRelationship, error)

	// Lifecycle
	Close() error
}
