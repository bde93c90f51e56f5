package transcript

import (
	"context"
	"strings"
	"testing"

	"tube-digest/internal/models"
	"tube-digest/shared/config"
)

type stubStrategy struct {
	name  string
	tier  models.SourceTier
	text  string
	ok    bool
	calls int
}

func (s *stubStrategy) Name() string            { return s.name }
func (s *stubStrategy) Tier() models.SourceTier { return s.tier }

func (s *stubStrategy) Attempt(ctx context.Context, videoID string) (string, bool) {
	s.calls++
	return s.text, s.ok
}

func newStubs(captionOK, mediaOK, descOK bool) (*stubStrategy, *stubStrategy, *stubStrategy) {
	return &stubStrategy{name: "captions", tier: models.TierCaptionAPI, text: "caption text", ok: captionOK},
		&stubStrategy{name: "media", tier: models.TierMediaTool, text: "subtitle text", ok: mediaOK},
		&stubStrategy{name: "description", tier: models.TierDescriptionFallback, text: "description text", ok: descOK}
}

func TestPipelineFetch(t *testing.T) {
	video := &models.Video{ID: "vid", Title: "Morning update", ChannelTitle: "Desk"}

	tests := []struct {
		name          string
		captionOK     bool
		mediaOK       bool
		descOK        bool
		wantOK        bool
		wantText      string
		wantSource    models.SourceTier
		wantLowConf   bool
		wantCallCount [3]int
	}{
		{
			name:          "Captions short-circuit the chain",
			captionOK:     true,
			mediaOK:       true,
			descOK:        true,
			wantOK:        true,
			wantText:      "caption text",
			wantSource:    models.TierCaptionAPI,
			wantCallCount: [3]int{1, 0, 0},
		},
		{
			name:          "Media tool when captions are absent",
			mediaOK:       true,
			descOK:        true,
			wantOK:        true,
			wantText:      "subtitle text",
			wantSource:    models.TierMediaTool,
			wantCallCount: [3]int{1, 1, 0},
		},
		{
			name:          "Description as last resort",
			descOK:        true,
			wantOK:        true,
			wantText:      DescriptionMarker + "\n\ndescription text",
			wantSource:    models.TierDescriptionFallback,
			wantLowConf:   true,
			wantCallCount: [3]int{1, 1, 1},
		},
		{
			name:          "Nothing available",
			wantOK:        false,
			wantCallCount: [3]int{1, 1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, m, d := newStubs(tt.captionOK, tt.mediaOK, tt.descOK)
			p := NewPipeline(c, m, d)

			got, ok := p.Fetch(context.Background(), video)
			if ok != tt.wantOK {
				t.Fatalf("Fetch() ok = %t, want %t", ok, tt.wantOK)
			}

			calls := [3]int{c.calls, m.calls, d.calls}
			if calls != tt.wantCallCount {
				t.Errorf("Strategy calls = %v, want %v", calls, tt.wantCallCount)
			}

			if !ok {
				if got != nil {
					t.Errorf("Expected nil transcript, got %+v", got)
				}
				return
			}
			if got.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", got.Text, tt.wantText)
			}
			if got.Source != tt.wantSource {
				t.Errorf("Source = %s, want %s", got.Source, tt.wantSource)
			}
			if got.IsLowConfidence != tt.wantLowConf {
				t.Errorf("IsLowConfidence = %t, want %t", got.IsLowConfidence, tt.wantLowConf)
			}
		})
	}
}

func TestPipelineSkipsBlankText(t *testing.T) {
	blank := &stubStrategy{name: "blank", tier: models.TierCaptionAPI, text: "   ", ok: true}
	next := &stubStrategy{name: "media", tier: models.TierMediaTool, text: "real text", ok: true}

	got, ok := NewPipeline(blank, next).Fetch(context.Background(), &models.Video{ID: "vid"})
	if !ok {
		t.Fatal("Expected a transcript")
	}
	if got.Source != models.TierMediaTool {
		t.Errorf("Source = %s, want %s", got.Source, models.TierMediaTool)
	}
}

func TestNewDefaultPipeline(t *testing.T) {
	cfg := &config.TranscriptConfig{
		PreferredLanguage:    "en",
		MediaTool:            "yt-dlp",
		MediaToolLanguages:   []string{"en"},
		MinDescriptionLength: 100,
	}
	descriptions := &fakeDescriptions{desc: strings.Repeat("d", 150)}
	p := NewDefaultPipeline(cfg, &fakeLister{err: ErrNoCaptions}, descriptions)

	wantTiers := []models.SourceTier{models.TierCaptionAPI, models.TierMediaTool, models.TierDescriptionFallback}
	if len(p.strategies) != len(wantTiers) {
		t.Fatalf("Expected %d strategies, got %d", len(wantTiers), len(p.strategies))
	}
	for i, s := range p.strategies {
		if s.Tier() != wantTiers[i] {
			t.Errorf("Strategy %d tier = %s, want %s", i, s.Tier(), wantTiers[i])
		}
	}

	// Keep the test hermetic whether or not yt-dlp is installed.
	media := p.strategies[1].(*MediaToolStrategy)
	media.lookPath = func(string) (string, error) { return "", ErrNotOK }

	got, ok := p.Fetch(context.Background(), &models.Video{ID: "vid"})
	if !ok {
		t.Fatal("Expected description fallback")
	}
	if !strings.HasPrefix(got.Text, DescriptionMarker+"\n\n") {
		t.Errorf("Missing description marker: %q", got.Text)
	}
	if !got.IsLowConfidence {
		t.Error("Description fallback should be low confidence")
	}
}
