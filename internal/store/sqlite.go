package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ytget/playlist-manager/internal/model"
)

// SQLiteStore is the SQLite-backed implementation of Store.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (and if necessary creates) the database at dbPath.
// WAL and a single writer connection keep concurrent readers from
// tripping over SQLITE_BUSY.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=10000&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS playlists (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		status TEXT NOT NULL,
		total_videos INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		playlist_id TEXT NOT NULL REFERENCES playlists(id),
		title TEXT NOT NULL,
		duration TEXT,
		url TEXT NOT NULL,
		status TEXT NOT NULL,
		output_path TEXT,
		file_size INTEGER NOT NULL DEFAULT 0,
		file_hash TEXT,
		last_error TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS duplicates (
		original_id TEXT NOT NULL REFERENCES videos(id),
		duplicate_id TEXT NOT NULL REFERENCES videos(id),
		score REAL NOT NULL,
		method TEXT NOT NULL,
		detected_at DATETIME NOT NULL,
		PRIMARY KEY (original_id, duplicate_id)
	);

	CREATE INDEX IF NOT EXISTS idx_videos_playlist ON videos(playlist_id);
	CREATE INDEX IF NOT EXISTS idx_videos_status ON videos(status);
	CREATE INDEX IF NOT EXISTS idx_videos_hash ON videos(file_hash);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SavePlaylist upserts the playlist and all of its videos in one
// transaction.
func (s *SQLiteStore) SavePlaylist(playlist *model.Playlist) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO playlists
		(id, title, url, status, total_videos, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, playlist.ID, playlist.Title, playlist.URL, playlist.Status,
		playlist.TotalVideos, playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save playlist: %w", err)
	}

	for _, video := range playlist.Videos {
		_, err = tx.Exec(`
			INSERT INTO videos
			(id, playlist_id, title, duration, url, status, output_path,
			 file_size, file_hash, last_error, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				duration = excluded.duration,
				updated_at = excluded.updated_at
		`, video.ID, playlist.ID, video.Title, video.Duration, video.URL,
			video.Status, video.OutputPath, video.FileSize, video.FileHash,
			video.LastError, video.CreatedAt, video.UpdatedAt)
		if err != nil {
			return fmt.Errorf("save video %s: %w", video.ID, err)
		}
	}

	return tx.Commit()
}

// GetPlaylist retrieves a playlist with all of its videos.
func (s *SQLiteStore) GetPlaylist(id string) (*model.Playlist, error) {
	var p model.Playlist
	err := s.db.QueryRow(`
		SELECT id, title, url, status, total_videos, created_at, updated_at
		FROM playlists WHERE id = ?
	`, id).Scan(&p.ID, &p.Title, &p.URL, &p.Status, &p.TotalVideos,
		&p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrPlaylistNotFound
	}
	if err != nil {
		return nil, err
	}

	videos, err := s.ListVideos(id)
	if err != nil {
		return nil, err
	}
	p.Videos = videos
	for _, v := range videos {
		if v.Status == model.VideoStatusDownloaded {
			p.Downloaded++
		}
	}
	return &p, nil
}

// ListPlaylists returns all playlists without their videos.
func (s *SQLiteStore) ListPlaylists() ([]*model.Playlist, error) {
	rows, err := s.db.Query(`
		SELECT id, title, url, status, total_videos, created_at, updated_at
		FROM playlists ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var playlists []*model.Playlist
	for rows.Next() {
		var p model.Playlist
		if err := rows.Scan(&p.ID, &p.Title, &p.URL, &p.Status,
			&p.TotalVideos, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		playlists = append(playlists, &p)
	}
	return playlists, rows.Err()
}

// GetVideo retrieves a video by ID.
func (s *SQLiteStore) GetVideo(id string) (*model.Video, error) {
	v, err := scanVideo(s.db.QueryRow(videoSelect+` WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrVideoNotFound
	}
	return v, err
}

// ListVideos returns all videos of a playlist in insertion order.
func (s *SQLiteStore) ListVideos(playlistID string) ([]*model.Video, error) {
	return s.queryVideos(videoSelect+` WHERE playlist_id = ? ORDER BY rowid`, playlistID)
}

// ListVideosByStatus returns all videos with the given status.
func (s *SQLiteStore) ListVideosByStatus(status model.VideoStatus) ([]*model.Video, error) {
	return s.queryVideos(videoSelect+` WHERE status = ? ORDER BY rowid`, string(status))
}

// MarkDownloaded records the downloaded file's path, size and content
// hash and flips the video to downloaded.
func (s *SQLiteStore) MarkDownloaded(id, filePath, hash string, fileSize int64) error {
	result, err := s.db.Exec(`
		UPDATE videos
		SET status = ?, output_path = ?, file_hash = ?, file_size = ?,
		    last_error = '', updated_at = ?
		WHERE id = ?
	`, model.VideoStatusDownloaded, filePath, hash, fileSize, time.Now(), id)
	if err != nil {
		return err
	}
	return requireRow(result, ErrVideoNotFound)
}

// MarkVideoError records a failure message on the video.
func (s *SQLiteStore) MarkVideoError(id, message string) error {
	result, err := s.db.Exec(`
		UPDATE videos SET status = ?, last_error = ?, updated_at = ? WHERE id = ?
	`, model.VideoStatusError, message, time.Now(), id)
	if err != nil {
		return err
	}
	return requireRow(result, ErrVideoNotFound)
}

// RecordDuplicate stores a duplicate relationship; re-detection of the
// same pair replaces the previous score and method.
func (s *SQLiteStore) RecordDuplicate(originalID, duplicateID string, score float64, method string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO duplicates
		(original_id, duplicate_id, score, method, detected_at)
		VALUES (?, ?, ?, ?, ?)
	`, originalID, duplicateID, score, method, time.Now())
	return err
}

// ListDuplicates returns all recorded duplicate relationships.
func (s *SQLiteStore) ListDuplicates() ([]*model.DuplicateRelationship, error) {
	rows, err := s.db.Query(`
		SELECT original_id, duplicate_id, score, method, detected_at
		FROM duplicates ORDER BY detected_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dups []*model.DuplicateRelationship
	for rows.Next() {
		var d model.DuplicateRelationship
		if err := rows.Scan(&d.OriginalID, &d.DuplicateID, &d.Score,
			&d.Method, &d.DetectedAt); err != nil {
			return nil, err
		}
		dups = append(dups, &d)
	}
	return dups, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const videoSelect = `
	SELECT id, playlist_id, title, duration, url, status, output_path,
	       file_size, file_hash, last_error, created_at, updated_at
	FROM videos`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*model.Video, error) {
	var v model.Video
	var duration, outputPath, fileHash, lastError sql.NullString
	err := row.Scan(&v.ID, &v.PlaylistID, &v.Title, &duration, &v.URL,
		&v.Status, &outputPath, &v.FileSize, &fileHash, &lastError,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.Duration = duration.String
	v.OutputPath = outputPath.String
	v.FileHash = fileHash.String
	v.LastError = lastError.String
	return &v, nil
}

func (s *SQLiteStore) queryVideos(query string, args ...any) ([]*model.Video, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*model.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func requireRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
