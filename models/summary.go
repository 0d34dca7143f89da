package models

import (
	"time"
)

// Summary is the persisted artifact of a completed pipeline run.
type Summary struct {
	ID              string    `json:"id"`
	VideoID         string    `json:"video_id"`
	VideoURL        string    `json:"video_url"`
	Title           string    `json:"title"`
	ChannelName     string    `json:"channel_name"`
	DurationSeconds int       `json:"duration_seconds"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	Summary         string    `json:"summary"`
	KeyPoints       []string  `json:"key_points"`
	UserID          string    `json:"user_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// VideoMetadata is what the metadata stage learns about a video before
// any transcript work starts.
type VideoMetadata struct {
	VideoID         string `json:"video_id"`
	Title           string `json:"title"`
	ChannelName     string `json:"channel_name"`
	DurationSeconds int    `json:"duration_seconds"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
}

// SummarizeRequest is the body of POST /api/summarize.
type SummarizeRequest struct {
	URL         string `json:"url"`
	Fingerprint string `json:"fingerprint,omitempty"`
	UserID      string `json:"user_id,omitempty"`
}

// SummarizeResponse acknowledges task creation; the artifact itself is
// fetched separately once progress reports completed.
type SummarizeResponse struct {
	TaskID string     `json:"task_id"`
	Status TaskStatus `json:"status"`
	URL    string     `json:"url"`
}

// ClaimRequest re-owns anonymously created summaries to a signed-in user.
type ClaimRequest struct {
	Fingerprint string `json:"fingerprint"`
	UserID      string `json:"user_id"`
}

type ClaimResponse struct {
	ClaimedCount int `json:"claimed_count"`
}
