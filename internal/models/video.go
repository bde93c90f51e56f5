package models

import (
	"fmt"
	"time"
)

// Video is a discovered upload. It is created by the discovery client and
// never modified afterwards.
type Video struct {
	ID           string    `json:"video_id"`
	Title        string    `json:"title"`
	ChannelTitle string    `json:"channel"`
	Description  string    `json:"description"` // truncated by the search endpoint
	PublishedAt  time.Time `json:"published_at"`
	URL          string    `json:"url"`
}

// WatchURL returns the canonical watch page for a video id.
func WatchURL(videoID string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
}

// SourceTier names the strategy that produced a transcript.
type SourceTier string

const (
	TierCaptionAPI          SourceTier = "caption_api"
	TierMediaTool           SourceTier = "media_tool"
	TierDescriptionFallback SourceTier = "description_fallback"
)

// Transcript is the text recovered for one video. Text is never empty; a
// video with nothing recoverable has no Transcript at all.
type Transcript struct {
	Text            string     `json:"text"`
	Source          SourceTier `json:"source_tier"`
	IsLowConfidence bool       `json:"is_low_confidence"`
}

// NewTranscript builds a Transcript, deriving the confidence flag from the tier.
func NewTranscript(text string, tier SourceTier) *Transcript {
	return &Transcript{
		Text:            text,
		Source:          tier,
		IsLowConfidence: tier == TierDescriptionFallback,
	}
}

// EnrichedVideo is a discovered video with its recovered transcript attached.
type EnrichedVideo struct {
	*Video
	Transcript *Transcript `json:"transcript"`
}
