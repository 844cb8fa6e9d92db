package playlist

import (
	"strings"
	"testing"
	"time"

	"github.com/ytget/playlist-manager/internal/model"
	"github.com/ytget/playlist-manager/internal/tool"
)

const flatPlaylistJSON = `{
	"id": "PLrAXtmErZgOeiKm4sgNOknGvNjby9efdf",
	"title": "Go Lectures",
	"entries": [
		{"id": "abc123", "title": "Go Lectures 01 - Basics", "duration": 1830, "url": "https://www.youtube.com/watch?v=abc123"},
		{"id": "def456", "title": "Go Lectures 02 - Slices", "duration": 95},
		{"id": "", "title": "[Deleted video]"}
	]
}`

func TestParseFlatPlaylist(t *testing.T) {
	url := "https://www.youtube.com/playlist?list=PLrAXtmErZgOeiKm4sgNOknGvNjby9efdf"
	p, err := ParseFlatPlaylist([]byte(flatPlaylistJSON), url)
	if err != nil {
		t.Fatalf("ParseFlatPlaylist failed: %v", err)
	}

	if p.ID != "PLrAXtmErZgOeiKm4sgNOknGvNjby9efdf" {
		t.Errorf("unexpected playlist ID %q", p.ID)
	}
	if p.Title != "Go Lectures" {
		t.Errorf("unexpected title %q", p.Title)
	}
	if p.Status != model.PlaylistStatusReady {
		t.Errorf("expected ready status, got %s", p.Status)
	}
	if len(p.Videos) != 2 {
		t.Fatalf("expected entries without an ID to be skipped, got %d videos", len(p.Videos))
	}
	if p.TotalVideos != 2 {
		t.Errorf("expected TotalVideos 2, got %d", p.TotalVideos)
	}

	first := p.Videos[0]
	if first.Duration != "30:30" {
		t.Errorf("expected duration 30:30, got %q", first.Duration)
	}
	if first.Status != model.VideoStatusPending {
		t.Errorf("expected pending status, got %s", first.Status)
	}

	// Entry without a URL gets one synthesized from its ID.
	second := p.Videos[1]
	if second.URL != "https://www.youtube.com/watch?v=def456" {
		t.Errorf("unexpected synthesized URL %q", second.URL)
	}
}

func TestParseFlatPlaylistDerivesTitle(t *testing.T) {
	data := `{
		"id": "PLnotitle",
		"entries": [
			{"id": "a1", "title": "Concurrency Patterns Part 1"},
			{"id": "a2", "title": "Concurrency Patterns Part 2"}
		]
	}`
	p, err := ParseFlatPlaylist([]byte(data), "https://www.youtube.com/playlist?list=PLnotitle")
	if err != nil {
		t.Fatalf("ParseFlatPlaylist failed: %v", err)
	}
	if p.Title != "Concurrency Patterns Part Playlist" {
		t.Errorf("unexpected derived title %q", p.Title)
	}
}

func TestParseFlatPlaylistRejectsGarbage(t *testing.T) {
	if _, err := ParseFlatPlaylist([]byte("not json"), "https://example.com?list=x"); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestExtractPlaylistID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/playlist?list=PLabc123", "PLabc123"},
		{"https://www.youtube.com/watch?v=xyz&list=PLabc123&index=2", "PLabc123"},
		{"https://www.youtube.com/watch?v=xyz", ""},
	}
	for _, tt := range tests {
		if got := ExtractPlaylistID(tt.url); got != tt.want {
			t.Errorf("ExtractPlaylistID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "Unknown"},
		{-5, "Unknown"},
		{95, "01:35"},
		{1830, "30:30"},
		{3723, "01:02:03"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.seconds); got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

// fakeHandle replays canned output and an exit status.
type fakeHandle struct {
	lines  chan tool.Line
	status tool.ExitStatus
}

func newFakeHandle(status tool.ExitStatus, lines ...tool.Line) *fakeHandle {
	ch := make(chan tool.Line, len(lines))
	for _, l := range lines {
		ch <- l
	}
	close(ch)
	return &fakeHandle{lines: ch, status: status}
}

func (h *fakeHandle) Lines() <-chan tool.Line       { return h.lines }
func (h *fakeHandle) Wait() tool.ExitStatus         { return h.status }
func (h *fakeHandle) Terminate(grace time.Duration) {}

type fakeRunner struct {
	handle   tool.Handle
	spawnErr error
	argv     []string
}

func (r *fakeRunner) Spawn(argv []string) (tool.Handle, error) {
	r.argv = argv
	if r.spawnErr != nil {
		return nil, r.spawnErr
	}
	return r.handle, nil
}

func (r *fakeRunner) ProbeDuration(path string) (float64, error) { return 0, nil }

// fakeStore records the last saved playlist.
type fakeStore struct {
	saved *model.Playlist
}

func (s *fakeStore) SavePlaylist(p *model.Playlist) error { s.saved = p; return nil }
func (s *fakeStore) GetPlaylist(id string) (*model.Playlist, error) {
	return nil, nil
}
func (s *fakeStore) ListPlaylists() ([]*model.Playlist, error)    { return nil, nil }
func (s *fakeStore) GetVideo(id string) (*model.Video, error)     { return nil, nil }
func (s *fakeStore) ListVideos(id string) ([]*model.Video, error) { return nil, nil }
func (s *fakeStore) ListVideosByStatus(st model.VideoStatus) ([]*model.Video, error) {
	return nil, nil
}
func (s *fakeStore) MarkDownloaded(id, path, hash string, size int64) error { return nil }
func (s *fakeStore) MarkVideoError(id, msg string) error                    { return nil }
func (s *fakeStore) RecordDuplicate(o, d string, score float64, method string) error {
	return nil
}
func (s *fakeStore) ListDuplicates() ([]*model.DuplicateRelationship, error) { return nil, nil }
func (s *fakeStore) Close() error                                           { return nil }

func jsonLines(doc string) []tool.Line {
	var lines []tool.Line
	for _, text := range strings.Split(doc, "\n") {
		lines = append(lines, tool.Line{Stream: tool.StreamStdout, Text: text})
	}
	return lines
}

func TestImportPersistsPlaylist(t *testing.T) {
	runner := &fakeRunner{handle: newFakeHandle(tool.ExitStatus{Code: 0}, jsonLines(flatPlaylistJSON)...)}
	st := &fakeStore{}

	imp := NewImporter(runner, st, nil)
	p, err := imp.Import("https://www.youtube.com/playlist?list=PLrAXtmErZgOeiKm4sgNOknGvNjby9efdf")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if st.saved == nil {
		t.Fatal("expected playlist to be saved")
	}
	if st.saved.ID != p.ID {
		t.Errorf("saved playlist %q does not match returned %q", st.saved.ID, p.ID)
	}
	if len(runner.argv) == 0 || runner.argv[0] != tool.YTDLPCommand {
		t.Errorf("expected yt-dlp invocation, got %v", runner.argv)
	}
}

func TestImportRejectsNonPlaylistURL(t *testing.T) {
	imp := NewImporter(&fakeRunner{}, &fakeStore{}, nil)
	if _, err := imp.Import("https://www.youtube.com/watch?v=abc"); err == nil {
		t.Error("expected error for URL without playlist parameter")
	}
}

func TestImportSurfacesToolFailure(t *testing.T) {
	runner := &fakeRunner{handle: newFakeHandle(
		tool.ExitStatus{Code: 1},
		tool.Line{Stream: tool.StreamStderr, Text: "ERROR: This playlist is private"},
	)}

	imp := NewImporter(runner, &fakeStore{}, nil)
	_, err := imp.Import("https://www.youtube.com/playlist?list=PLprivate")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "This playlist is private") {
		t.Errorf("expected stderr detail in error, got %v", err)
	}
}
