package marketdigest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tube-digest/agents/market-digest/transcript"
	"tube-digest/agents/market-digest/youtube"
	"tube-digest/internal/models"
	"tube-digest/shared/ai"
	"tube-digest/shared/config"
	"tube-digest/shared/email"
	"tube-digest/shared/scheduler"
	"tube-digest/shared/storage"
)

var errNotInitialized = errors.New("agent not initialized")

type videoSource interface {
	GetNewVideos(ctx context.Context, channelIDs []string) ([]*models.Video, error)
}

type transcriptRunner interface {
	Run(ctx context.Context, videos []*models.Video) ([]*models.EnrichedVideo, []*models.Video)
}

type videoSummarizer interface {
	SummarizeVideo(ctx context.Context, video *models.EnrichedVideo) (*models.VideoAnalysis, error)
	GenerateDigest(ctx context.Context, analyses []*models.VideoAnalysis) (*models.Digest, error)
}

type digestSender interface {
	SendDigest(report *models.DigestReport) error
}

type deliveryTracker interface {
	FilterNew(videos []*models.Video) []*models.Video
	MarkDelivered(videoIDs []string) error
}

// DigestMetrics describes one run of the market digest agent.
type DigestMetrics struct {
	VideosFound      int
	AlreadyDelivered int
	Transcribed      int
	Skipped          int
	LowConfidence    int
	Summarized       int
	SummaryErrors    int
	Sponsored        int
	EmailSent        bool
}

func (m DigestMetrics) GetSummary() string {
	summary := fmt.Sprintf("found %d videos, transcribed %d (%d from description), skipped %d, summarized %d",
		m.VideosFound, m.Transcribed, m.LowConfidence, m.Skipped, m.Summarized)
	if m.Sponsored > 0 {
		summary += fmt.Sprintf(", dropped %d sponsored", m.Sponsored)
	}
	if m.EmailSent {
		summary += ", digest sent"
	} else {
		summary += ", no digest"
	}
	return summary
}

// MarketDigestAgent implements scheduler.Agent: it turns the day's finance
// videos into one emailed market digest.
type MarketDigestAgent struct {
	config *config.Config

	videos     videoSource
	runner     transcriptRunner
	summarizer videoSummarizer
	sender     digestSender
	tracker    deliveryTracker
	now        func() time.Time
}

func NewMarketDigestAgent(cfg *config.Config) *MarketDigestAgent {
	return &MarketDigestAgent{
		config: cfg,
		now:    time.Now,
	}
}

func (a *MarketDigestAgent) Name() string {
	return "Market Digest"
}

func (a *MarketDigestAgent) Initialize(ctx context.Context) error {
	log.Printf("Initializing %s...", a.Name())

	if a.videos == nil || a.runner == nil {
		client, err := youtube.NewClient(ctx, &a.config.YouTube)
		if err != nil {
			return fmt.Errorf("failed to create YouTube client: %w", err)
		}
		a.videos = client
		log.Println("YouTube client initialized")

		captions := transcript.NewCaptionClient(a.config.Transcript.RequestTimeout())
		pipeline := transcript.NewDefaultPipeline(&a.config.Transcript, captions, client)
		a.runner = transcript.NewBatchRunner(pipeline, a.config.Transcript.FetchDelay())
		log.Printf("Transcript pipeline initialized (delay %v)", a.config.Transcript.FetchDelay())
	}

	if a.summarizer == nil {
		s, err := ai.NewSummarizer(ctx, &a.config.AI)
		if err != nil {
			return fmt.Errorf("failed to create summarizer: %w", err)
		}
		a.summarizer = s
		log.Println("Summarizer initialized")
	}

	if a.sender == nil {
		a.sender = email.NewSender(&a.config.Email)
		log.Println("Email sender initialized")
	}

	if a.tracker == nil {
		tracker, err := storage.NewVideoTracker(a.config.DataDir, time.Duration(a.config.TrackerDays)*24*time.Hour)
		if err != nil {
			return fmt.Errorf("failed to create video tracker: %w", err)
		}
		a.tracker = tracker
		log.Printf("Video tracker initialized (%d videos tracked)", tracker.Count())
	}

	return nil
}

func (a *MarketDigestAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	if a.videos == nil || a.runner == nil || a.summarizer == nil || a.sender == nil || a.tracker == nil {
		return errNotInitialized
	}

	startTime := time.Now()
	metrics := DigestMetrics{}

	channels := a.config.YouTube.ChannelIDs
	log.Printf("Checking %d channel(s) for new videos...", len(channels))

	videos, err := a.videos.GetNewVideos(ctx, channels)
	if err != nil {
		return fmt.Errorf("failed to discover videos: %w", err)
	}
	metrics.VideosFound = len(videos)

	fresh := a.tracker.FilterNew(videos)
	metrics.AlreadyDelivered = len(videos) - len(fresh)
	if metrics.AlreadyDelivered > 0 {
		log.Printf("Skipping %d video(s) already included in a digest", metrics.AlreadyDelivered)
	}

	enriched, skipped := a.runner.Run(ctx, fresh)
	metrics.Transcribed = len(enriched)
	metrics.Skipped = len(skipped)
	for _, v := range enriched {
		if v.Transcript.IsLowConfidence {
			metrics.LowConfidence++
		}
	}

	if len(enriched) == 0 {
		log.Println("No new videos with transcripts found. Skipping digest.")
		events.OnSuccess(metrics, time.Since(startTime))
		return nil
	}

	log.Printf("Summarizing %d video(s)...", len(enriched))
	var (
		analyses  []*models.VideoAnalysis
		processed []string
	)
	for i, video := range enriched {
		log.Printf("Analyzing video %d/%d: %s", i+1, len(enriched), video.Title)

		analysis, err := a.summarizer.SummarizeVideo(ctx, video)
		if err != nil {
			metrics.SummaryErrors++
			events.OnPartialFailure(fmt.Errorf("failed to summarize %s (%s): %w", video.ID, video.Title, err), time.Since(startTime))
			continue
		}
		processed = append(processed, video.ID)

		if analysis.IsSponsored {
			metrics.Sponsored++
			log.Printf("  Dropping sponsored video: %s", video.Title)
			continue
		}
		analyses = append(analyses, analysis)
	}
	metrics.Summarized = len(analyses)

	if metrics.SummaryErrors == len(enriched) {
		return fmt.Errorf("all %d summaries failed", metrics.SummaryErrors)
	}

	if len(analyses) == 0 {
		log.Println("Every summarized video was sponsored. Skipping digest.")
		a.markDelivered(processed)
		events.OnSuccess(metrics, time.Since(startTime))
		return nil
	}

	log.Println("Generating overall market digest...")
	digest, err := a.summarizer.GenerateDigest(ctx, analyses)
	if err != nil {
		return fmt.Errorf("failed to generate digest: %w", err)
	}

	report := &models.DigestReport{
		Date:   a.now(),
		Digest: digest,
		Videos: analyses,
	}

	log.Printf("Sending digest email with %d video(s)", len(analyses))
	if err := a.sender.SendDigest(report); err != nil {
		return fmt.Errorf("failed to send digest email: %w", err)
	}
	metrics.EmailSent = true
	log.Println("Digest email sent successfully")

	a.markDelivered(processed)

	events.OnSuccess(metrics, time.Since(startTime))
	log.Printf("Session complete: %s", metrics.GetSummary())
	return nil
}

func (a *MarketDigestAgent) markDelivered(ids []string) {
	if len(ids) == 0 {
		return
	}
	if err := a.tracker.MarkDelivered(ids); err != nil {
		log.Printf("Warning: Failed to record delivered videos: %v", err)
	}
}
