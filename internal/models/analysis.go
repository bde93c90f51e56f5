package models

import "time"

// Ticker is a symbol mentioned in a single video.
type Ticker struct {
	Symbol      string `json:"symbol"`
	Sentiment   string `json:"sentiment"` // bullish, bearish or neutral
	PriceLevels string `json:"price_levels,omitempty"`
	Thesis      string `json:"thesis,omitempty"`
}

// VideoAnalysis is the summarizer's structured output for one video.
type VideoAnalysis struct {
	Video       *EnrichedVideo `json:"-"`
	IsSponsored bool           `json:"is_sponsored"`
	Summary     string         `json:"summary"`
	Tickers     []Ticker       `json:"tickers"`
	KeyClaims   []string       `json:"key_claims"`
	TradeIdeas  []string       `json:"trade_ideas"`
	Risks       []string       `json:"risks_and_warnings"`
}

// TopTicker is a symbol aggregated across the day's videos.
type TopTicker struct {
	Symbol       string `json:"symbol"`
	Sentiment    string `json:"sentiment"`
	MentionCount int    `json:"mention_count"`
	Summary      string `json:"summary"`
}

// Digest synthesizes all analyses of a run.
type Digest struct {
	MarketOverview    string      `json:"market_overview"`
	ConsensusThemes   []string    `json:"consensus_themes"`
	ConflictingViews  []string    `json:"conflicting_views"`
	TopTickers        []TopTicker `json:"top_tickers"`
	KeyLevelsToWatch  []string    `json:"key_levels_to_watch"`
	UpcomingCatalysts []string    `json:"upcoming_catalysts"`
	ActionItems       []string    `json:"action_items"`
	RiskAlerts        []string    `json:"risk_alerts"`
}

type DigestReport struct {
	Date   time.Time        `json:"date"`
	Digest *Digest          `json:"digest"`
	Videos []*VideoAnalysis `json:"videos"`
}
