package transcript

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeDescriptions struct {
	desc  string
	err   error
	calls int
}

func (f *fakeDescriptions) FullDescription(ctx context.Context, videoID string) (string, error) {
	f.calls++
	return f.desc, f.err
}

func TestDescriptionStrategyAttempt(t *testing.T) {
	tests := []struct {
		name   string
		desc   string
		err    error
		wantOK bool
	}{
		{
			name:   "Exactly at minimum is too short",
			desc:   strings.Repeat("a", 100),
			wantOK: false,
		},
		{
			name:   "Below minimum",
			desc:   strings.Repeat("a", 99),
			wantOK: false,
		},
		{
			name:   "Above minimum",
			desc:   strings.Repeat("a", 101),
			wantOK: true,
		},
		{
			name:   "Multibyte characters counted as characters",
			desc:   strings.Repeat("é", 100),
			wantOK: false,
		},
		{
			name:   "Empty",
			desc:   "",
			wantOK: false,
		},
		{
			name:   "Lookup fails",
			desc:   strings.Repeat("a", 500),
			err:    errors.New("quota exceeded"),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeDescriptions{desc: tt.desc, err: tt.err}
			s := NewDescriptionStrategy(source, 100)

			text, ok := s.Attempt(context.Background(), "vid")
			if ok != tt.wantOK {
				t.Fatalf("Attempt() ok = %t, want %t", ok, tt.wantOK)
			}
			if ok && text != tt.desc {
				t.Errorf("Attempt() text = %q, want %q", text, tt.desc)
			}
			if !ok && text != "" {
				t.Errorf("Expected empty text on absence, got %q", text)
			}
		})
	}
}

func TestDescriptionStrategyNormalizesWhitespace(t *testing.T) {
	desc := "Today we cover\n\nSPY   and QQQ.\t" + strings.Repeat("x", 120)
	s := NewDescriptionStrategy(&fakeDescriptions{desc: desc}, 100)

	text, ok := s.Attempt(context.Background(), "vid")
	if !ok {
		t.Fatal("Expected description to be used")
	}
	if !strings.HasPrefix(text, "Today we cover SPY and QQQ. ") {
		t.Errorf("Whitespace not normalized: %q", text[:40])
	}
}
