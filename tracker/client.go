package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"ytsum/errors"
	"ytsum/models"
)

// Client talks to the progress endpoints over HTTP.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout),
	}
}

func (c *Client) GetProgress(ctx context.Context, taskID string) (models.ProgressRecord, error) {
	const op = "TrackerClient.GetProgress"

	var record models.ProgressRecord
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&record).
		Get("/api/progress/" + taskID)
	if err != nil {
		return models.ProgressRecord{}, errors.Internal(op, err, "Failed to poll progress")
	}
	if resp.StatusCode() == 404 {
		return models.ProgressRecord{}, errors.NotFound(op, nil, "Task not found")
	}
	if resp.StatusCode() != 200 {
		return models.ProgressRecord{}, errors.Internal(op,
			fmt.Errorf("progress endpoint status %d", resp.StatusCode()), "Failed to poll progress")
	}
	return record, nil
}

func (c *Client) DeleteProgress(ctx context.Context, taskID string) error {
	const op = "TrackerClient.DeleteProgress"

	resp, err := c.http.R().
		SetContext(ctx).
		Delete("/api/progress/" + taskID)
	if err != nil {
		return errors.Internal(op, err, "Failed to clean up progress")
	}
	if resp.StatusCode() != 200 {
		return errors.Internal(op,
			fmt.Errorf("progress endpoint status %d", resp.StatusCode()), "Failed to clean up progress")
	}
	return nil
}

// Summarize submits a video URL and returns the allocated task id.
func (c *Client) Summarize(ctx context.Context, url string) (string, error) {
	const op = "TrackerClient.Summarize"

	var result models.SummarizeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(models.SummarizeRequest{URL: url}).
		SetResult(&result).
		Post("/api/summarize")
	if err != nil {
		return "", errors.Internal(op, err, "Failed to submit video")
	}
	if resp.StatusCode() != 202 && resp.StatusCode() != 200 {
		return "", errors.Internal(op,
			fmt.Errorf("summarize endpoint status %d", resp.StatusCode()), "Failed to submit video")
	}
	return result.TaskID, nil
}

// GetSummary fetches the finished artifact once tracking completes.
func (c *Client) GetSummary(ctx context.Context, id string) (*models.Summary, error) {
	const op = "TrackerClient.GetSummary"

	var result struct {
		Data models.Summary `json:"data"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/api/summaries/" + id)
	if err != nil {
		return nil, errors.Internal(op, err, "Failed to fetch summary")
	}
	if resp.StatusCode() == 404 {
		return nil, errors.NotFound(op, nil, "Summary not found")
	}
	if resp.StatusCode() != 200 {
		return nil, errors.Internal(op,
			fmt.Errorf("summaries endpoint status %d", resp.StatusCode()), "Failed to fetch summary")
	}
	return &result.Data, nil
}
