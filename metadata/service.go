// Package metadata resolves a video's title, channel and duration before
// any transcript work starts.
package metadata

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"ytsum/errors"
	"ytsum/models"
)

type Config struct {
	// APIKey enables duration lookup through the Data API. Without it
	// the service still returns title and channel from oEmbed.
	APIKey string
	// MaxDuration rejects videos longer than this.
	MaxDuration time.Duration
	Timeout     time.Duration
}

type Service struct {
	client *resty.Client
	config Config
	logger *logrus.Logger
}

func NewService(cfg Config) *Service {
	return &Service{
		client: resty.New().SetTimeout(cfg.Timeout),
		config: cfg,
		logger: logrus.StandardLogger(),
	}
}

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type videosResponse struct {
	Items []struct {
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// Fetch resolves metadata for a video and enforces the duration cap.
func (s *Service) Fetch(ctx context.Context, videoID string) (models.VideoMetadata, error) {
	const op = "MetadataService.Fetch"

	meta := models.VideoMetadata{VideoID: videoID}

	var oembed oembedResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"url":    "https://www.youtube.com/watch?v=" + videoID,
			"format": "json",
		}).
		SetResult(&oembed).
		Get("https://www.youtube.com/oembed")
	if err != nil {
		return meta, errors.Internal(op, err, "Failed to look up video details")
	}
	if resp.StatusCode() == 404 || resp.StatusCode() == 401 {
		return meta, errors.NotFound(op, nil, "Video not found or not public")
	}
	if resp.StatusCode() != 200 {
		return meta, errors.Internal(op, fmt.Errorf("oembed status %d", resp.StatusCode()), "Failed to look up video details")
	}

	meta.Title = oembed.Title
	meta.ChannelName = oembed.AuthorName
	meta.ThumbnailURL = oembed.ThumbnailURL

	if s.config.APIKey != "" {
		if seconds, err := s.fetchDuration(ctx, videoID); err == nil {
			meta.DurationSeconds = seconds
		} else {
			s.logger.WithError(err).WithField("video_id", videoID).Warn("Duration lookup failed")
		}
	}

	if meta.DurationSeconds > int(s.config.MaxDuration.Seconds()) {
		return meta, errors.InvalidInput(op, nil,
			fmt.Sprintf("Video is too long. Maximum duration is %d hours.", int(s.config.MaxDuration.Hours())))
	}

	return meta, nil
}

func (s *Service) fetchDuration(ctx context.Context, videoID string) (int, error) {
	var videos videosResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"id":   videoID,
			"part": "contentDetails",
			"key":  s.config.APIKey,
		}).
		SetResult(&videos).
		Get("https://www.googleapis.com/youtube/v3/videos")
	if err != nil {
		return 0, err
	}
	if resp.StatusCode() != 200 || len(videos.Items) == 0 {
		return 0, fmt.Errorf("videos endpoint status %d", resp.StatusCode())
	}
	return parseISO8601Duration(videos.Items[0].ContentDetails.Duration)
}

var iso8601Duration = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

func parseISO8601Duration(s string) (int, error) {
	m := iso8601Duration.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("unparseable duration %q", s)
	}
	hours, _ := strconv.Atoi(zeroIfEmpty(m[1]))
	minutes, _ := strconv.Atoi(zeroIfEmpty(m[2]))
	seconds, _ := strconv.Atoi(zeroIfEmpty(m[3]))
	return hours*3600 + minutes*60 + seconds, nil
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
