package transcript

import (
	"regexp"
	"strings"
)

var (
	// inlineTagRe matches formatting and timestamp tags such as <c>, </i> or <00:00:01.520>.
	inlineTagRe = regexp.MustCompile(`<[^>]*>`)
	cueIndexRe  = regexp.MustCompile(`^\d+$`)
)

const cueArrow = "-->"

// DecodeVTT turns a WebVTT document into the space-joined text of its cues.
// Repeated captions are collapsed only when they are adjacent, so a phrase
// spoken again later in the video survives.
func DecodeVTT(raw string) string {
	var (
		lines []string
		prev  string
	)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "WEBVTT"):
			continue
		case strings.HasPrefix(line, "Kind:"), strings.HasPrefix(line, "Language:"):
			continue
		case strings.Contains(line, cueArrow), cueIndexRe.MatchString(line):
			continue
		}

		line = strings.TrimSpace(inlineTagRe.ReplaceAllString(line, ""))
		if line == "" || line == prev {
			continue
		}

		lines = append(lines, line)
		prev = line
	}

	return strings.Join(lines, " ")
}

// normalizeSpace collapses every whitespace run to a single space.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
