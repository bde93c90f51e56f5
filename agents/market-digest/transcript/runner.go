package transcript

import (
	"context"
	"log"
	"time"

	"tube-digest/internal/models"
)

// Fetcher recovers the transcript of a single video.
type Fetcher interface {
	Fetch(ctx context.Context, video *models.Video) (*models.Transcript, bool)
}

// BatchRunner fetches transcripts one video at a time, pausing between
// videos to stay under upstream rate limits.
type BatchRunner struct {
	fetcher Fetcher
	delay   time.Duration
	sleep   func(time.Duration)
}

func NewBatchRunner(fetcher Fetcher, delay time.Duration) *BatchRunner {
	return &BatchRunner{
		fetcher: fetcher,
		delay:   delay,
		sleep:   time.Sleep,
	}
}

// Run returns the videos that got a transcript and the ones that did not,
// both in input order. Videos not reached because ctx was cancelled count
// as skipped.
func (r *BatchRunner) Run(ctx context.Context, videos []*models.Video) (enriched []*models.EnrichedVideo, skipped []*models.Video) {
	for i, video := range videos {
		if i > 0 {
			if ctx.Err() != nil {
				log.Printf("Warning: Transcript fetching interrupted, %d video(s) not processed", len(videos)-i)
				skipped = append(skipped, videos[i:]...)
				break
			}
			r.sleep(r.delay)
		}

		t, ok := r.fetcher.Fetch(ctx, video)
		if !ok {
			skipped = append(skipped, video)
			log.Printf("  - %s: %s (no transcript)", video.ChannelTitle, video.Title)
			continue
		}

		enriched = append(enriched, &models.EnrichedVideo{Video: video, Transcript: t})
		log.Printf("  + %s: %s [%s]", video.ChannelTitle, video.Title, t.Source)
	}

	log.Printf("Fetched transcripts for %d video(s), skipped %d", len(enriched), len(skipped))
	return enriched, skipped
}
