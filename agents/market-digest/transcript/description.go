package transcript

import (
	"context"
	"log"
	"unicode/utf8"

	"tube-digest/internal/models"
)

// DescriptionSource returns the untruncated description of a video.
type DescriptionSource interface {
	FullDescription(ctx context.Context, videoID string) (string, error)
}

// DescriptionStrategy substitutes the video description for a transcript
// when it is long enough to carry real content.
type DescriptionStrategy struct {
	source    DescriptionSource
	minLength int
}

func NewDescriptionStrategy(source DescriptionSource, minLength int) *DescriptionStrategy {
	return &DescriptionStrategy{source: source, minLength: minLength}
}

func (s *DescriptionStrategy) Name() string { return "description fallback" }

func (s *DescriptionStrategy) Tier() models.SourceTier { return models.TierDescriptionFallback }

func (s *DescriptionStrategy) Attempt(ctx context.Context, videoID string) (string, bool) {
	desc, err := s.source.FullDescription(ctx, videoID)
	if err != nil {
		log.Printf("  Could not fetch description for %s: %v", videoID, err)
		return "", false
	}

	if n := utf8.RuneCountInString(desc); n <= s.minLength {
		log.Printf("  %s: description for %s too short (%d chars)", s.Name(), videoID, n)
		return "", false
	}

	return normalizeSpace(desc), true
}
