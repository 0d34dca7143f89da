package models

import (
	"testing"
	"time"
)

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status   TaskStatus
		terminal bool
	}{
		{StatusQueued, false},
		{StatusProcessing, false},
		{StatusCompleted, true},
		{StatusError, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("Terminal(%s) = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestPlaceholderID(t *testing.T) {
	minted := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	id := NewPlaceholderID(minted)

	if !IsPlaceholderID(id) {
		t.Fatalf("expected %q to be a placeholder", id)
	}
	if IsPlaceholderID("a1b2c3") {
		t.Error("real id misdetected as placeholder")
	}

	age := PlaceholderAge(id, minted.Add(3*time.Second))
	if age != 3*time.Second {
		t.Errorf("expected age 3s, got %s", age)
	}

	if PlaceholderAge("not-a-placeholder", minted) != 0 {
		t.Error("expected zero age for non-placeholder id")
	}
	if PlaceholderAge("temp_garbage", minted) != 0 {
		t.Error("expected zero age for malformed placeholder id")
	}
}
