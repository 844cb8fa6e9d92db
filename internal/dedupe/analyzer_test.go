package dedupe

import (
	"testing"
	"time"

	"github.com/ytget/playlist-manager/internal/model"
)

// fakeStore serves a fixed set of downloaded videos and records the
// duplicate relationships the analyzer reports.
type fakeStore struct {
	downloaded []*model.Video
	recorded   []*model.DuplicateRelationship
}

func (s *fakeStore) SavePlaylist(p *model.Playlist) error           { return nil }
func (s *fakeStore) GetPlaylist(id string) (*model.Playlist, error) { return nil, nil }
func (s *fakeStore) ListPlaylists() ([]*model.Playlist, error)      { return nil, nil }
func (s *fakeStore) GetVideo(id string) (*model.Video, error)       { return nil, nil }
func (s *fakeStore) ListVideos(id string) ([]*model.Video, error)   { return nil, nil }
func (s *fakeStore) ListVideosByStatus(st model.VideoStatus) ([]*model.Video, error) {
	return s.downloaded, nil
}
func (s *fakeStore) MarkDownloaded(id, path, hash string, size int64) error { return nil }
func (s *fakeStore) MarkVideoError(id, msg string) error                    { return nil }
func (s *fakeStore) RecordDuplicate(o, d string, score float64, method string) error {
	s.recorded = append(s.recorded, &model.DuplicateRelationship{
		OriginalID: o, DuplicateID: d, Score: score, Method: method,
	})
	return nil
}
func (s *fakeStore) ListDuplicates() ([]*model.DuplicateRelationship, error) { return nil, nil }
func (s *fakeStore) Close() error                                           { return nil }

func video(id, title, hash string, age time.Duration) *model.Video {
	return &model.Video{
		ID:        id,
		Title:     title,
		FileHash:  hash,
		Status:    model.VideoStatusDownloaded,
		CreatedAt: time.Now().Add(-age),
	}
}

func TestRunDetectsHashDuplicates(t *testing.T) {
	st := &fakeStore{downloaded: []*model.Video{
		video("a", "Intro to Testing", "hash1", 3*time.Hour),
		video("b", "Totally Different Lecture", "hash1", 1*time.Hour),
		video("c", "Another Unrelated Recording", "hash2", 2*time.Hour),
	}}

	matches, err := NewAnalyzer(st, 0, nil).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	if m.Method != MethodHash || m.Score != 1.0 {
		t.Errorf("unexpected match: %+v", m)
	}
	if m.Original.ID != "a" || m.Duplicate.ID != "b" {
		t.Errorf("expected earlier download as original, got %s -> %s", m.Original.ID, m.Duplicate.ID)
	}
	if len(st.recorded) != 1 {
		t.Errorf("expected match to be persisted, recorded %d", len(st.recorded))
	}
}

func TestRunDetectsTitleDuplicates(t *testing.T) {
	st := &fakeStore{downloaded: []*model.Video{
		video("a", "Go Concurrency Patterns (Official)", "hash1", 2*time.Hour),
		video("b", "Go Concurrency Patterns [official]", "hash2", 1*time.Hour),
		video("c", "Cooking With Cast Iron", "hash3", 30*time.Minute),
	}}

	matches, err := NewAnalyzer(st, 0, nil).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	if m.Method != MethodTitle {
		t.Errorf("expected title match, got %s", m.Method)
	}
	if m.Score < DefaultTitleThreshold {
		t.Errorf("score %f below threshold", m.Score)
	}
}

func TestRunPrefersHashOverTitle(t *testing.T) {
	// Same hash and near-identical titles: only the hash match is kept.
	st := &fakeStore{downloaded: []*model.Video{
		video("a", "Identical Upload", "hash1", 2*time.Hour),
		video("b", "Identical Upload!", "hash1", 1*time.Hour),
	}}

	matches, err := NewAnalyzer(st, 0, nil).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Method != MethodHash {
		t.Errorf("expected hash match to win, got %s", matches[0].Method)
	}
}

func TestRunIgnoresVideosWithoutHash(t *testing.T) {
	st := &fakeStore{downloaded: []*model.Video{
		video("a", "First Completely Unique Name", "", time.Hour),
		video("b", "Second Entirely Separate Name", "", time.Minute),
	}}

	matches, err := NewAnalyzer(st, 0, nil).Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %+v", matches)
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Go Concurrency Patterns (Official)", "go concurrency patterns official"},
		{"  Spaced   out\ttitle ", "spaced out title"},
		{"ALL CAPS!!!", "all caps"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSimilarityRatio(t *testing.T) {
	if got := SimilarityRatio("kitten", "kitten"); got != 1.0 {
		t.Errorf("identical strings should score 1.0, got %f", got)
	}
	if got := SimilarityRatio("kitten", "sitting"); got <= 0 || got >= 1 {
		t.Errorf("expected partial similarity, got %f", got)
	}
	// kitten -> sitting is 3 edits over max length 7.
	want := 1.0 - 3.0/7.0
	if got := SimilarityRatio("kitten", "sitting"); got != want {
		t.Errorf("SimilarityRatio = %f, want %f", got, want)
	}
	if got := SimilarityRatio("", "abc"); got != 0 {
		t.Errorf("empty vs non-empty should score 0, got %f", got)
	}
}
