package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"tube-digest/internal/models"
)

func TestVideoTrackerPersistence(t *testing.T) {
	dir := t.TempDir()

	tracker, err := NewVideoTracker(dir, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewVideoTracker() failed: %v", err)
	}
	if tracker.Count() != 0 {
		t.Errorf("New tracker count = %d, want 0", tracker.Count())
	}

	if err := tracker.MarkDelivered([]string{"a", "b"}); err != nil {
		t.Fatalf("MarkDelivered() failed: %v", err)
	}
	if !tracker.IsDelivered("a") || tracker.IsDelivered("c") {
		t.Error("IsDelivered() reports wrong state")
	}

	reloaded, err := NewVideoTracker(dir, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("Reloading tracker failed: %v", err)
	}
	if reloaded.Count() != 2 || !reloaded.IsDelivered("b") {
		t.Errorf("Reloaded tracker lost entries: count=%d", reloaded.Count())
	}

	if _, err := os.Stat(filepath.Join(dir, trackerFile+".tmp")); !os.IsNotExist(err) {
		t.Error("Temp file left behind after save")
	}
}

func TestVideoTrackerExpiry(t *testing.T) {
	dir := t.TempDir()
	tracker, err := NewVideoTracker(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewVideoTracker() failed: %v", err)
	}

	start := time.Date(2026, 10, 16, 7, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return start }
	if err := tracker.MarkDelivered([]string{"old"}); err != nil {
		t.Fatalf("MarkDelivered() failed: %v", err)
	}

	tracker.now = func() time.Time { return start.Add(25 * time.Hour) }
	if tracker.IsDelivered("old") {
		t.Error("Entry should expire after maxAge")
	}

	if err := tracker.MarkDelivered([]string{"new"}); err != nil {
		t.Fatalf("MarkDelivered() failed: %v", err)
	}
	if tracker.Count() != 1 {
		t.Errorf("Expired entry not cleaned up: count=%d", tracker.Count())
	}
}

func TestVideoTrackerFilterNew(t *testing.T) {
	tracker, err := NewVideoTracker(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewVideoTracker() failed: %v", err)
	}
	if err := tracker.MarkDelivered([]string{"b"}); err != nil {
		t.Fatalf("MarkDelivered() failed: %v", err)
	}

	videos := []*models.Video{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	fresh := tracker.FilterNew(videos)

	if len(fresh) != 2 || fresh[0].ID != "a" || fresh[1].ID != "c" {
		t.Errorf("FilterNew() returned %d videos, want [a c]", len(fresh))
	}
}

func TestVideoTrackerCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, trackerFile), []byte("not json"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if _, err := NewVideoTracker(dir, time.Hour); err == nil {
		t.Error("Expected error for corrupt tracker file")
	}
}
