package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"tube-digest/internal/models"
)

var (
	ErrNotOK            = errors.New("unexpected non 200 status code")
	ErrTooManyRequests  = errors.New("too many requests")
	ErrNoCaptions       = errors.New("no caption tracks")
	ErrVideoUnavailable = errors.New("video unavailable")
)

const playerResponseMarker = "ytInitialPlayerResponse"

// Snippet is one timed piece of caption text.
type Snippet struct {
	Text     string
	Start    float64
	Duration float64
}

// Track is a caption track of a video. Its text is only downloaded when
// Fetch is called.
type Track struct {
	LanguageCode string
	Name         string
	Generated    bool

	fetch func(ctx context.Context) ([]Snippet, error)
}

func NewTrack(languageCode string, generated bool, fetch func(ctx context.Context) ([]Snippet, error)) *Track {
	return &Track{LanguageCode: languageCode, Generated: generated, fetch: fetch}
}

func (t *Track) Fetch(ctx context.Context) ([]Snippet, error) {
	if t.fetch == nil {
		return nil, fmt.Errorf("track %s has no source", t.LanguageCode)
	}
	return t.fetch(ctx)
}

// Text fetches the track and joins its snippets into one normalized string.
func (t *Track) Text(ctx context.Context) (string, error) {
	snippets, err := t.Fetch(ctx)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(snippets))
	for _, s := range snippets {
		parts = append(parts, s.Text)
	}
	return normalizeSpace(strings.Join(parts, " ")), nil
}

// CaptionClient reads caption tracks the way the public watch page exposes them.
type CaptionClient struct {
	client       *http.Client
	watchURLFunc func(videoID string) string
}

func NewCaptionClient(timeout time.Duration) *CaptionClient {
	return &CaptionClient{
		client:       &http.Client{Timeout: timeout},
		watchURLFunc: models.WatchURL,
	}
}

// More is returned, this only covers what we read.
type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL string `json:"baseUrl"`
	Name    struct {
		SimpleText string `json:"simpleText"`
	} `json:"name"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type timedText struct {
	Entries []struct {
		Text  string  `xml:",chardata"`
		Start float64 `xml:"start,attr"`
		Dur   float64 `xml:"dur,attr"`
	} `xml:"text"`
}

// ListTracks returns the caption tracks of a video, manually authored tracks
// first, then auto-generated ones, each group in page order.
func (c *CaptionClient) ListTracks(ctx context.Context, videoID string) ([]*Track, error) {
	body, err := c.get(ctx, c.watchURLFunc(videoID))
	if err != nil {
		return nil, fmt.Errorf("requesting watch page for %q: %w", videoID, err)
	}
	page := string(body)

	if strings.Contains(page, `action="https://consent.youtube.com/s"`) {
		return nil, fmt.Errorf("video %q returned a consent form: %w", videoID, ErrVideoUnavailable)
	}
	if strings.Contains(page, `class="g-recaptcha"`) {
		return nil, fmt.Errorf("video %q got captcha: %w", videoID, ErrTooManyRequests)
	}

	resp, err := parsePlayerResponse(page)
	if err != nil {
		return nil, fmt.Errorf("video %q: %w", videoID, err)
	}

	switch resp.PlayabilityStatus.Status {
	case "ERROR", "LOGIN_REQUIRED", "UNPLAYABLE":
		return nil, fmt.Errorf("video %q not playable (%s): %w",
			videoID, resp.PlayabilityStatus.Reason, ErrVideoUnavailable)
	}

	raw := resp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(raw) == 0 {
		return nil, fmt.Errorf("video %q: %w", videoID, ErrNoCaptions)
	}

	var manual, generated []*Track
	for _, ct := range raw {
		baseURL := ct.BaseURL
		track := &Track{
			LanguageCode: ct.LanguageCode,
			Name:         ct.Name.SimpleText,
			Generated:    ct.Kind == "asr",
			fetch: func(ctx context.Context) ([]Snippet, error) {
				return c.fetchTrack(ctx, baseURL)
			},
		}
		if track.Generated {
			generated = append(generated, track)
		} else {
			manual = append(manual, track)
		}
	}

	return append(manual, generated...), nil
}

func parsePlayerResponse(page string) (*playerResponse, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing watch page: %w", err)
	}

	var script string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if strings.Contains(text, playerResponseMarker) {
			script = text
			return false
		}
		return true
	})
	if script == "" {
		return nil, fmt.Errorf("no player response on watch page: %w", ErrNoCaptions)
	}

	rest := script[strings.Index(script, playerResponseMarker)+len(playerResponseMarker):]
	start := strings.Index(rest, "{")
	if start == -1 {
		return nil, fmt.Errorf("player response has no JSON body: %w", ErrNoCaptions)
	}

	// The assignment is followed by more script; decode only the first value.
	var resp playerResponse
	if err := json.NewDecoder(strings.NewReader(rest[start:])).Decode(&resp); err != nil {
		return nil, fmt.Errorf("could not unmarshal player response: %w", err)
	}
	return &resp, nil
}

func (c *CaptionClient) fetchTrack(ctx context.Context, baseURL string) ([]Snippet, error) {
	body, err := c.get(ctx, baseURL)
	if err != nil {
		return nil, fmt.Errorf("captions request: %w", err)
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("could not parse transcript xml: %w", err)
	}

	snippets := make([]Snippet, 0, len(tt.Entries))
	for _, e := range tt.Entries {
		text := strings.TrimSpace(html.UnescapeString(e.Text))
		if text == "" {
			continue
		}
		snippets = append(snippets, Snippet{Text: text, Start: e.Start, Duration: e.Dur})
	}
	return snippets, nil
}

func (c *CaptionClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrTooManyRequests
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("got code %d: %w", resp.StatusCode, ErrNotOK)
	}
	return body, nil
}
