package transcript

import (
	"context"
	"log"

	"tube-digest/internal/models"
)

// TrackLister enumerates the caption tracks of a video.
type TrackLister interface {
	ListTracks(ctx context.Context, videoID string) ([]*Track, error)
}

// CaptionStrategy reads captions, preferring one language and falling back
// to whichever track yields text first.
type CaptionStrategy struct {
	lister   TrackLister
	language string
}

func NewCaptionStrategy(lister TrackLister, language string) *CaptionStrategy {
	return &CaptionStrategy{lister: lister, language: language}
}

func (s *CaptionStrategy) Name() string { return "caption API" }

func (s *CaptionStrategy) Tier() models.SourceTier { return models.TierCaptionAPI }

func (s *CaptionStrategy) Attempt(ctx context.Context, videoID string) (string, bool) {
	tracks, err := s.lister.ListTracks(ctx, videoID)
	if err != nil {
		log.Printf("  %s: no tracks for %s: %v", s.Name(), videoID, err)
		return "", false
	}

	preferred := findTrack(tracks, s.language)
	if preferred != nil {
		text, err := preferred.Text(ctx)
		if err == nil && text != "" {
			return text, true
		}
		if err != nil {
			log.Printf("  %s: %s track failed for %s: %v", s.Name(), s.language, videoID, err)
		}
	}

	// Each track is fetched at most once per attempt.
	for _, track := range tracks {
		if track == preferred {
			continue
		}
		text, err := track.Text(ctx)
		if err != nil {
			log.Printf("  %s: %s track failed for %s: %v", s.Name(), track.LanguageCode, videoID, err)
			continue
		}
		if text != "" {
			log.Printf("  Using %s transcript for %s", track.LanguageCode, videoID)
			return text, true
		}
	}

	return "", false
}

// findTrack returns the first track in the given language. Tracks arrive
// manual first, so a manual track wins over an auto-generated one.
func findTrack(tracks []*Track, language string) *Track {
	for _, t := range tracks {
		if t.LanguageCode == language {
			return t
		}
	}
	return nil
}
