package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"tube-digest/internal/models"
)

const trackerFile = "delivered_videos.json"

// VideoTracker remembers which videos already went out in a digest so that
// overlapping lookback windows do not resend them. Only ids are stored.
type VideoTracker struct {
	filePath  string
	delivered map[string]time.Time
	maxAge    time.Duration
	now       func() time.Time
	mu        sync.RWMutex
}

type trackedVideo struct {
	VideoID     string    `json:"video_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// NewVideoTracker loads the tracker from dataDir, dropping entries older than maxAge.
func NewVideoTracker(dataDir string, maxAge time.Duration) (*VideoTracker, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	vt := &VideoTracker{
		filePath:  filepath.Join(dataDir, trackerFile),
		delivered: make(map[string]time.Time),
		maxAge:    maxAge,
		now:       time.Now,
	}

	if err := vt.load(); err != nil {
		return nil, fmt.Errorf("failed to load video tracker data: %w", err)
	}
	vt.cleanup()

	return vt, nil
}

func (vt *VideoTracker) IsDelivered(videoID string) bool {
	vt.mu.RLock()
	defer vt.mu.RUnlock()

	deliveredAt, ok := vt.delivered[videoID]
	return ok && vt.now().Sub(deliveredAt) < vt.maxAge
}

// FilterNew returns the videos that have not been delivered yet, in order.
func (vt *VideoTracker) FilterNew(videos []*models.Video) []*models.Video {
	fresh := make([]*models.Video, 0, len(videos))
	for _, v := range videos {
		if !vt.IsDelivered(v.ID) {
			fresh = append(fresh, v)
		}
	}
	return fresh
}

// MarkDelivered records the ids and persists the tracker.
func (vt *VideoTracker) MarkDelivered(videoIDs []string) error {
	vt.mu.Lock()
	defer vt.mu.Unlock()

	now := vt.now()
	for _, id := range videoIDs {
		vt.delivered[id] = now
	}
	vt.cleanup()
	return vt.save()
}

func (vt *VideoTracker) Count() int {
	vt.mu.RLock()
	defer vt.mu.RUnlock()
	return len(vt.delivered)
}

func (vt *VideoTracker) cleanup() {
	cutoff := vt.now().Add(-vt.maxAge)
	for id, deliveredAt := range vt.delivered {
		if deliveredAt.Before(cutoff) {
			delete(vt.delivered, id)
		}
	}
}

func (vt *VideoTracker) load() error {
	data, err := os.ReadFile(vt.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read tracker file: %w", err)
	}

	var tracked []trackedVideo
	if err := json.Unmarshal(data, &tracked); err != nil {
		return fmt.Errorf("failed to decode tracker data: %w", err)
	}

	for _, tv := range tracked {
		vt.delivered[tv.VideoID] = tv.DeliveredAt
	}
	return nil
}

// save writes through a temp file so a crash never leaves a truncated tracker.
func (vt *VideoTracker) save() error {
	tracked := make([]trackedVideo, 0, len(vt.delivered))
	for id, deliveredAt := range vt.delivered {
		tracked = append(tracked, trackedVideo{VideoID: id, DeliveredAt: deliveredAt})
	}
	sort.Slice(tracked, func(i, j int) bool { return tracked[i].VideoID < tracked[j].VideoID })

	data, err := json.MarshalIndent(tracked, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tracker data: %w", err)
	}

	tmp := vt.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write tracker file: %w", err)
	}
	if err := os.Rename(tmp, vt.filePath); err != nil {
		return fmt.Errorf("failed to replace tracker file: %w", err)
	}
	return nil
}
