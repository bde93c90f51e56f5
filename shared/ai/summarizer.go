package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"google.golang.org/genai"

	"tube-digest/internal/models"
	"tube-digest/shared/config"
)

// fallbackSummaryChars bounds the raw model text kept when its JSON cannot be parsed.
const fallbackSummaryChars = 500

var fenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*\\n?(.*?)\\n?\\s*```$")

type generateFunc func(ctx context.Context, prompt string) (string, error)

// Summarizer turns transcripts into structured market analysis with Gemini.
type Summarizer struct {
	generate           generateFunc
	maxTranscriptChars int
}

func NewSummarizer(ctx context.Context, cfg *config.AIConfig) (*Summarizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.Model
	generate := func(ctx context.Context, prompt string) (string, error) {
		contents := []*genai.Content{
			genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
		}
		result, err := client.Models.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		})
		if err != nil {
			return "", err
		}
		return result.Text(), nil
	}

	return newSummarizer(generate, cfg.MaxTranscriptChars), nil
}

func newSummarizer(generate generateFunc, maxTranscriptChars int) *Summarizer {
	return &Summarizer{generate: generate, maxTranscriptChars: maxTranscriptChars}
}

// SummarizeVideo analyzes one transcript. Model output that is not valid
// JSON still yields an analysis whose summary is the raw text.
func (s *Summarizer) SummarizeVideo(ctx context.Context, video *models.EnrichedVideo) (*models.VideoAnalysis, error) {
	if video == nil || video.Video == nil || video.Transcript == nil {
		return nil, errors.New("video with transcript is required")
	}

	prompt := s.buildVideoPrompt(video)
	response, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize video %s: %w", video.ID, err)
	}

	cleaned := cleanJSONResponse(response)
	var analysis models.VideoAnalysis
	if err := decodeJSON(cleaned, &analysis); err != nil {
		log.Printf("Warning: Could not parse JSON for '%s', using raw text: %v", video.Title, err)
		analysis = models.VideoAnalysis{Summary: truncateString(cleaned, fallbackSummaryChars)}
	}

	for i := range analysis.Tickers {
		analysis.Tickers[i].Symbol = strings.ToUpper(strings.TrimSpace(analysis.Tickers[i].Symbol))
		analysis.Tickers[i].Sentiment = normalizeSentiment(analysis.Tickers[i].Sentiment)
	}
	analysis.Video = video
	return &analysis, nil
}

// GenerateDigest synthesizes the analyses of one run into a market digest.
func (s *Summarizer) GenerateDigest(ctx context.Context, analyses []*models.VideoAnalysis) (*models.Digest, error) {
	if len(analyses) == 0 {
		return nil, errors.New("no analyses to digest")
	}

	prompt, err := buildDigestPrompt(analyses)
	if err != nil {
		return nil, err
	}

	response, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate digest: %w", err)
	}

	cleaned := cleanJSONResponse(response)
	var digest models.Digest
	if err := decodeJSON(cleaned, &digest); err != nil {
		log.Printf("Warning: Could not parse digest JSON, using raw text: %v", err)
		digest = models.Digest{MarketOverview: truncateString(cleaned, fallbackSummaryChars)}
	}

	for i := range digest.TopTickers {
		digest.TopTickers[i].Sentiment = normalizeSentiment(digest.TopTickers[i].Sentiment)
	}
	return &digest, nil
}

func (s *Summarizer) buildVideoPrompt(video *models.EnrichedVideo) string {
	source := "Transcript"
	note := ""
	if video.Transcript.IsLowConfidence {
		source = "Video description"
		note = "\nNOTE: No transcript was available. The text below is the creator's description, which may be " +
			"mostly links and promotion. Only extract claims it actually states and keep the summary brief.\n"
	}

	return fmt.Sprintf(`You are a financial analyst assistant. Analyze this YouTube video and extract structured insights.

Video: "%s" by %s
%s
%s:
%s

Sponsored content filtering:
- If the video is primarily a paid promotion, sponsored content, or advertisement for a stock or product, set "is_sponsored" to true and leave the other fields minimal.
- If only some segments are sponsored, ignore them entirely and extract insights from the independent analysis only.
- Never include tickers, claims, or trade ideas that come from sponsored segments.

Respond in JSON with this exact structure:
{
  "is_sponsored": false,
  "summary": "2-3 sentence summary of the video's main points",
  "tickers": [
    {"symbol": "AAPL", "sentiment": "bullish", "price_levels": "support 180, resistance 195", "thesis": "why the creator holds this view"}
  ],
  "key_claims": ["specific factual or predictive claim made in the video"],
  "trade_ideas": ["concrete trade or positioning idea with entry, target or stop when stated"],
  "risks_and_warnings": ["risk or warning the creator raised"]
}

Sentiment must be one of: bullish, bearish, neutral. Use empty lists when nothing applies.
Return ONLY valid JSON, no markdown fences.`,
		video.Title,
		video.ChannelTitle,
		note,
		source,
		truncateString(video.Transcript.Text, s.maxTranscriptChars),
	)
}

type digestInput struct {
	Channel       string                `json:"channel"`
	Title         string                `json:"title"`
	LowConfidence bool                  `json:"low_confidence,omitempty"`
	Analysis      *models.VideoAnalysis `json:"analysis"`
}

func buildDigestPrompt(analyses []*models.VideoAnalysis) (string, error) {
	inputs := make([]digestInput, 0, len(analyses))
	for _, a := range analyses {
		in := digestInput{Analysis: a}
		if a.Video != nil {
			in.Channel = a.Video.ChannelTitle
			in.Title = a.Video.Title
			in.LowConfidence = a.Video.Transcript != nil && a.Video.Transcript.IsLowConfidence
		}
		inputs = append(inputs, in)
	}

	summaries, err := json.MarshalIndent(inputs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode summaries: %w", err)
	}

	return fmt.Sprintf(`You are a financial analyst assistant. Below are summaries from multiple YouTube finance channels published today. Synthesize them into an overall market digest.
Summaries marked low_confidence were built from a video description rather than a transcript; weigh them less.

Video Summaries:
%s

Create a cohesive daily market digest in JSON:
{
  "market_overview": "3-4 sentence overview of today's key market themes",
  "consensus_themes": ["theme that multiple channels agree on"],
  "conflicting_views": ["area where channels disagree and why"],
  "top_tickers": [
    {"symbol": "AAPL", "sentiment": "bullish", "mention_count": 3, "summary": "why"}
  ],
  "key_levels_to_watch": ["SPY 520 support"],
  "upcoming_catalysts": ["event or data release that could move markets"],
  "action_items": ["top prioritized action item"],
  "risk_alerts": ["warnings or risks mentioned across channels"]
}

Prioritize action items by how many channels support them. Flag conflicting views clearly.
Return ONLY valid JSON, no markdown fences.`, summaries), nil
}

// cleanJSONResponse strips whitespace and a surrounding markdown code fence.
func cleanJSONResponse(text string) string {
	cleaned := strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(cleaned); m != nil {
		cleaned = strings.TrimSpace(m[1])
	}
	return cleaned
}

// decodeJSON parses text, retrying on the outermost braces when the model
// wrapped its JSON in prose.
func decodeJSON(text string, v any) error {
	err := json.Unmarshal([]byte(text), v)
	if err == nil {
		return nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return err
	}
	if retryErr := json.Unmarshal([]byte(text[start:end+1]), v); retryErr != nil {
		return err
	}
	return nil
}

func normalizeSentiment(s string) string {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "bullish", "bearish", "neutral":
		return s
	default:
		return "neutral"
	}
}

// truncateString cuts s to at most maxChars characters. A non-positive
// limit disables truncation.
func truncateString(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
