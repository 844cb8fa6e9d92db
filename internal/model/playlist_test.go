package model

import (
	"testing"
)

func TestAddVideoMaintainsCounters(t *testing.T) {
	p := NewPlaylist("https://www.youtube.com/playlist?list=PLx")
	p.ID = "PLx"

	p.AddVideo(&Video{ID: "a", Status: VideoStatusPending})
	p.AddVideo(&Video{ID: "b", Status: VideoStatusPending})

	if p.TotalVideos != 2 {
		t.Errorf("expected TotalVideos 2, got %d", p.TotalVideos)
	}
	if p.Videos[0].PlaylistID != "PLx" {
		t.Errorf("expected playlist ID to be stamped, got %q", p.Videos[0].PlaylistID)
	}
}

func TestGetPendingVideos(t *testing.T) {
	p := NewPlaylist("url")
	p.AddVideo(&Video{ID: "a", Status: VideoStatusPending})
	p.AddVideo(&Video{ID: "b", Status: VideoStatusDownloaded})
	p.AddVideo(&Video{ID: "c", Status: VideoStatusError})
	p.AddVideo(&Video{ID: "d", Status: VideoStatusPending})

	pending := p.GetPendingVideos()
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}
	if pending[0].ID != "a" || pending[1].ID != "d" {
		t.Errorf("unexpected pending set: %v, %v", pending[0].ID, pending[1].ID)
	}
}

func TestGetDownloadProgress(t *testing.T) {
	p := NewPlaylist("url")
	if got := p.GetDownloadProgress(); got != 0 {
		t.Errorf("empty playlist should report 0%%, got %f", got)
	}

	p.AddVideo(&Video{ID: "a", Status: VideoStatusDownloaded})
	p.AddVideo(&Video{ID: "b", Status: VideoStatusPending})
	p.AddVideo(&Video{ID: "c", Status: VideoStatusDownloaded})
	p.AddVideo(&Video{ID: "d", Status: VideoStatusPending})

	if got := p.GetDownloadProgress(); got != 50 {
		t.Errorf("expected 50%%, got %f", got)
	}
}
