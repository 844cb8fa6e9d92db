package model

import "testing"

func TestJobStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status   JobStatus
		terminal bool
	}{
		{JobStatusQueued, false},
		{JobStatusActive, false},
		{JobStatusPaused, false},
		{JobStatusCompleted, true},
		{JobStatusFailed, true},
		{JobStatusCancelled, true},
	}

	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.terminal {
			t.Errorf("IsTerminal(%s) = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestJobKindIsValid(t *testing.T) {
	tests := []struct {
		kind  JobKind
		valid bool
	}{
		{JobKindDownload, true},
		{JobKindConvert, true},
		{JobKind(""), false},
		{JobKind("upload"), false},
	}

	for _, tt := range tests {
		if got := tt.kind.IsValid(); got != tt.valid {
			t.Errorf("IsValid(%q) = %v, want %v", tt.kind, got, tt.valid)
		}
	}
}
