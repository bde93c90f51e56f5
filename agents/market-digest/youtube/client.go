package youtube

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"tube-digest/internal/models"
	"tube-digest/shared/config"
)

// ErrNotFound is returned when the Data API has no record of a video.
var ErrNotFound = errors.New("video not found")

type Client struct {
	service *youtube.Service
	config  *config.YouTubeConfig
	now     func() time.Time
}

// NewClient connects to the YouTube Data API with the configured API key,
// or with an OAuth token when only a client id and secret are set.
func NewClient(ctx context.Context, cfg *config.YouTubeConfig, opts ...option.ClientOption) (*Client, error) {
	if len(opts) == 0 {
		switch {
		case cfg.APIKey != "":
			opts = append(opts, option.WithAPIKey(cfg.APIKey))
		case cfg.UsesOAuth():
			httpClient, err := oauthHTTPClient(ctx, cfg)
			if err != nil {
				return nil, err
			}
			opts = append(opts, option.WithHTTPClient(httpClient))
		default:
			return nil, errors.New("no YouTube credentials configured")
		}
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{
		service: service,
		config:  cfg,
		now:     time.Now,
	}, nil
}

// GetNewVideos returns videos published inside the lookback window on each
// channel. A channel that cannot be searched is logged and skipped; an error
// is returned only when every channel fails.
func (c *Client) GetNewVideos(ctx context.Context, channelIDs []string) ([]*models.Video, error) {
	since := c.now().Add(-time.Duration(c.config.LookbackHours) * time.Hour)

	var (
		videos   []*models.Video
		seen     = make(map[string]bool)
		failures int
		lastErr  error
	)

	for _, channelID := range channelIDs {
		found, err := c.channelVideos(ctx, channelID, since)
		if err != nil {
			failures++
			lastErr = err
			log.Printf("Warning: Failed to search channel %s: %v", channelID, err)
			continue
		}

		for _, v := range found {
			if seen[v.ID] {
				continue
			}
			seen[v.ID] = true
			videos = append(videos, v)
		}
	}

	if len(channelIDs) > 0 && failures == len(channelIDs) {
		return nil, fmt.Errorf("failed to search all %d channels: %w", failures, lastErr)
	}

	log.Printf("Found %d new videos across %d channels", len(videos), len(channelIDs))
	return videos, nil
}

func (c *Client) channelVideos(ctx context.Context, channelID string, since time.Time) ([]*models.Video, error) {
	resp, err := c.service.Search.List([]string{"snippet"}).
		ChannelId(channelID).
		PublishedAfter(since.UTC().Format(time.RFC3339)).
		Order("date").
		Type("video").
		MaxResults(c.config.MaxVideosPerChannel).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	videos := make([]*models.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}

		video := &models.Video{
			ID:           item.Id.VideoId,
			Title:        item.Snippet.Title,
			ChannelTitle: item.Snippet.ChannelTitle,
			Description:  item.Snippet.Description,
			URL:          models.WatchURL(item.Id.VideoId),
		}
		if publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			video.PublishedAt = publishedAt
		}
		videos = append(videos, video)
	}
	return videos, nil
}

// FullDescription returns the untruncated description; search results only
// carry a short excerpt.
func (c *Client) FullDescription(ctx context.Context, videoID string) (string, error) {
	resp, err := c.service.Videos.List([]string{"snippet"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to get video %s: %w", videoID, err)
	}

	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return "", fmt.Errorf("video %s: %w", videoID, ErrNotFound)
	}
	return resp.Items[0].Snippet.Description, nil
}
