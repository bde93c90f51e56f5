// Package transcript recovers the text of a video through a fixed chain of
// independent strategies: the captions the watch page exposes, subtitles
// extracted by yt-dlp, and finally the full video description.
//
// Strategies never fail loudly. Each one reports presence or absence and
// logs why; only exhausting the whole chain leaves a video without text.
package transcript

import (
	"context"
	"log"
	"strings"

	"tube-digest/internal/models"
	"tube-digest/shared/config"
)

// DescriptionMarker prefixes description-only results so the summarizer can
// discount them.
const DescriptionMarker = "[VIDEO DESCRIPTION - no transcript available]"

// Strategy is one way of recovering text for a video.
type Strategy interface {
	Name() string
	Tier() models.SourceTier
	Attempt(ctx context.Context, videoID string) (string, bool)
}

// Pipeline tries its strategies in order and stops at the first that yields text.
type Pipeline struct {
	strategies []Strategy
}

func NewPipeline(strategies ...Strategy) *Pipeline {
	return &Pipeline{strategies: strategies}
}

// NewDefaultPipeline wires the standard chain: captions, media tool, description.
func NewDefaultPipeline(cfg *config.TranscriptConfig, captions TrackLister, descriptions DescriptionSource) *Pipeline {
	return NewPipeline(
		NewCaptionStrategy(captions, cfg.PreferredLanguage),
		NewMediaToolStrategy(cfg.MediaTool, cfg.MediaToolLanguages),
		NewDescriptionStrategy(descriptions, cfg.MinDescriptionLength),
	)
}

// Fetch returns the best available transcript for a video, or false when no
// strategy recovered any text.
func (p *Pipeline) Fetch(ctx context.Context, video *models.Video) (*models.Transcript, bool) {
	for _, s := range p.strategies {
		text, ok := s.Attempt(ctx, video.ID)
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}

		tier := s.Tier()
		if tier == models.TierDescriptionFallback {
			log.Printf("  Using video description as fallback for %s", video.ID)
			text = DescriptionMarker + "\n\n" + text
		}
		return models.NewTranscript(text, tier), true
	}

	log.Printf("  No transcript or description available for %s (%s)", video.ID, video.Title)
	return nil, false
}
