package transcript

import (
	"context"
	"errors"
	"testing"
)

type fakeLister struct {
	tracks []*Track
	err    error
}

func (f *fakeLister) ListTracks(ctx context.Context, videoID string) ([]*Track, error) {
	return f.tracks, f.err
}

// countingTrack builds a track that returns text (or err) and counts its fetches.
func countingTrack(lang string, generated bool, text string, err error, calls map[string]int) *Track {
	key := lang
	if generated {
		key += "-auto"
	}
	return NewTrack(lang, generated, func(ctx context.Context) ([]Snippet, error) {
		calls[key]++
		if err != nil {
			return nil, err
		}
		if text == "" {
			return nil, nil
		}
		return []Snippet{{Text: text}}, nil
	})
}

func TestCaptionStrategyAttempt(t *testing.T) {
	errFetch := errors.New("fetch failed")

	tests := []struct {
		name      string
		build     func(calls map[string]int) *fakeLister
		wantText  string
		wantOK    bool
		wantCalls map[string]int
	}{
		{
			name: "Preferred language used first",
			build: func(calls map[string]int) *fakeLister {
				return &fakeLister{tracks: []*Track{
					countingTrack("de", false, "hallo", nil, calls),
					countingTrack("en", false, "hello", nil, calls),
				}}
			},
			wantText:  "hello",
			wantOK:    true,
			wantCalls: map[string]int{"en": 1},
		},
		{
			name: "Manual preferred track wins over generated",
			build: func(calls map[string]int) *fakeLister {
				return &fakeLister{tracks: []*Track{
					countingTrack("en", false, "manual", nil, calls),
					countingTrack("en", true, "auto", nil, calls),
				}}
			},
			wantText:  "manual",
			wantOK:    true,
			wantCalls: map[string]int{"en": 1},
		},
		{
			name: "Falls back to any track",
			build: func(calls map[string]int) *fakeLister {
				return &fakeLister{tracks: []*Track{
					countingTrack("fr", false, "", nil, calls),
					countingTrack("es", true, "hola", nil, calls),
				}}
			},
			wantText:  "hola",
			wantOK:    true,
			wantCalls: map[string]int{"fr": 1, "es-auto": 1},
		},
		{
			name: "Preferred track fails and is not retried",
			build: func(calls map[string]int) *fakeLister {
				return &fakeLister{tracks: []*Track{
					countingTrack("en", false, "", errFetch, calls),
					countingTrack("de", false, "hallo", nil, calls),
				}}
			},
			wantText:  "hallo",
			wantOK:    true,
			wantCalls: map[string]int{"en": 1, "de": 1},
		},
		{
			name: "Failing track skipped during enumeration",
			build: func(calls map[string]int) *fakeLister {
				return &fakeLister{tracks: []*Track{
					countingTrack("de", false, "", errFetch, calls),
					countingTrack("it", true, "ciao", nil, calls),
				}}
			},
			wantText:  "ciao",
			wantOK:    true,
			wantCalls: map[string]int{"de": 1, "it-auto": 1},
		},
		{
			name: "All tracks fail",
			build: func(calls map[string]int) *fakeLister {
				return &fakeLister{tracks: []*Track{
					countingTrack("en", true, "", errFetch, calls),
					countingTrack("de", false, "", errFetch, calls),
				}}
			},
			wantOK:    false,
			wantCalls: map[string]int{"en-auto": 1, "de": 1},
		},
		{
			name: "Listing fails",
			build: func(calls map[string]int) *fakeLister {
				return &fakeLister{err: ErrNoCaptions}
			},
			wantOK:    false,
			wantCalls: map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := make(map[string]int)
			s := NewCaptionStrategy(tt.build(calls), "en")

			text, ok := s.Attempt(context.Background(), "vid")
			if ok != tt.wantOK {
				t.Fatalf("Attempt() ok = %t, want %t", ok, tt.wantOK)
			}
			if text != tt.wantText {
				t.Errorf("Attempt() text = %q, want %q", text, tt.wantText)
			}
			if len(calls) != len(tt.wantCalls) {
				t.Errorf("Fetched tracks %v, want %v", calls, tt.wantCalls)
			}
			for key, want := range tt.wantCalls {
				if calls[key] != want {
					t.Errorf("Track %s fetched %d times, want %d", key, calls[key], want)
				}
			}
		})
	}
}
