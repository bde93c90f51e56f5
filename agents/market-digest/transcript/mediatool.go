package transcript

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"tube-digest/internal/models"
)

var errNoSubtitleFile = errors.New("no subtitle file produced")

var subtitleExtensions = map[string]bool{
	".vtt": true,
	".srt": true,
}

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// MediaToolStrategy asks an external subtitle extractor (yt-dlp) for
// English subtitles and decodes whatever file it leaves behind.
type MediaToolStrategy struct {
	tool      string
	languages []string
	tempRoot  string

	lookPath func(file string) (string, error)
	run      commandRunner
}

func NewMediaToolStrategy(tool string, languages []string) *MediaToolStrategy {
	return &MediaToolStrategy{
		tool:      tool,
		languages: languages,
		lookPath:  exec.LookPath,
		run:       runCommand,
	}
}

func (s *MediaToolStrategy) Name() string { return "media tool" }

func (s *MediaToolStrategy) Tier() models.SourceTier { return models.TierMediaTool }

func (s *MediaToolStrategy) Attempt(ctx context.Context, videoID string) (string, bool) {
	path, err := s.lookPath(s.tool)
	if err != nil {
		log.Printf("  %s: %s not installed, skipping %s", s.Name(), s.tool, videoID)
		return "", false
	}

	workDir, err := os.MkdirTemp(s.tempRoot, "subs-"+videoID+"-")
	if err != nil {
		log.Printf("  %s: failed to create temp dir for %s: %v", s.Name(), videoID, err)
		return "", false
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.Printf("Warning: Failed to remove %s: %v", workDir, err)
		}
	}()

	if _, err := s.run(ctx, path, s.args(videoID, workDir)...); err != nil {
		log.Printf("  %s: %s failed for %s: %v", s.Name(), s.tool, videoID, err)
		return "", false
	}

	subtitlePath, err := findSubtitleFile(workDir)
	if err != nil {
		log.Printf("  %s: %v for %s", s.Name(), err, videoID)
		return "", false
	}

	data, err := os.ReadFile(subtitlePath)
	if err != nil {
		log.Printf("  %s: failed to read %s: %v", s.Name(), subtitlePath, err)
		return "", false
	}

	text := normalizeSpace(DecodeVTT(string(data)))
	if text == "" {
		log.Printf("  %s: subtitle file for %s had no text", s.Name(), videoID)
		return "", false
	}
	return text, true
}

func (s *MediaToolStrategy) args(videoID, workDir string) []string {
	return []string{
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", strings.Join(s.languages, ","),
		"--sub-format", "vtt",
		"--output", filepath.Join(workDir, "%(id)s.%(ext)s"),
		"--no-playlist",
		"--ignore-config",
		"--no-progress",
		"--no-warnings",
		"--quiet",
		models.WatchURL(videoID),
	}
}

// findSubtitleFile returns the first subtitle file beneath dir in lexical order.
func findSubtitleFile(dir string) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && subtitleExtensions[strings.ToLower(filepath.Ext(path))] {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scanning %s: %w", dir, err)
	}
	if found == "" {
		return "", errNoSubtitleFile
	}
	return found, nil
}

// runCommand executes an external command and returns its combined output.
func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	startTime := time.Now()
	output, err := cmd.CombinedOutput()
	duration := time.Since(startTime)

	if err != nil {
		return nil, fmt.Errorf("command '%s' failed after %v: %w\nOutput: %s",
			name, duration.Round(time.Millisecond), err, strings.TrimSpace(string(output)))
	}
	return output, nil
}
