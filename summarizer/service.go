// Package summarizer turns a transcript into structured summary content
// through an OpenAI-compatible chat completions endpoint.
package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"ytsum/models"
)

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	// BatchSize is the chunk size in words for long transcripts.
	BatchSize int
	// Timeout bounds a single completion call; the whole-pipeline
	// timeout is not a substitute for it.
	Timeout time.Duration
}

// Result is the structured output of one summarization run.
type Result struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

type Service interface {
	Summarize(ctx context.Context, transcript string, meta models.VideoMetadata) (Result, error)
}

type service struct {
	client *resty.Client
	config Config
	logger *logrus.Logger
}

func NewService(cfg Config) Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 6000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &service{
		client: resty.New().SetBaseURL(cfg.BaseURL).SetTimeout(cfg.Timeout),
		config: cfg,
		logger: logrus.StandardLogger(),
	}
}

func (s *service) Summarize(ctx context.Context, transcript string, meta models.VideoMetadata) (Result, error) {
	logger := s.logger.WithFields(logrus.Fields{
		"operation": "Summarizer.Summarize",
		"video_id":  meta.VideoID,
	})

	chunks := s.splitText(transcript)
	logger.WithField("chunks", len(chunks)).Debug("Summarizing transcript")

	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		prompt := fmt.Sprintf(
			"Summarize this section (%d of %d) of the transcript of %q by %s. Keep every concrete claim.\n\n%s",
			i+1, len(chunks), meta.Title, meta.ChannelName, chunk,
		)
		summary, err := s.complete(ctx, prompt)
		if err != nil {
			return Result{}, fmt.Errorf("summarize chunk %d: %w", i+1, err)
		}
		summaries = append(summaries, summary)
	}

	return s.finalize(ctx, summaries, meta)
}

// finalize merges chunk summaries into the structured result. The model
// is asked for JSON so key points come back as a closed list rather than
// free text needing to be re-parsed.
func (s *service) finalize(ctx context.Context, summaries []string, meta models.VideoMetadata) (Result, error) {
	combined := strings.Join(summaries, "\n\n")

	prompt := fmt.Sprintf(
		`Produce a JSON object with fields "summary" (3-5 paragraphs) and "key_points" (5-8 short strings) for the video %q by %s, from these notes:

%s

Respond with JSON only.`,
		meta.Title, meta.ChannelName, combined,
	)

	raw, err := s.complete(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("finalize summary: %w", err)
	}

	var result Result
	if err := json.Unmarshal([]byte(extractJSON(raw)), &result); err != nil || result.Summary == "" {
		// A malformed response still carries usable prose.
		return Result{Summary: raw}, nil
	}
	return result, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *service) complete(ctx context.Context, prompt string) (string, error) {
	var result chatResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.config.APIKey).
		SetBody(chatRequest{
			Model: s.config.Model,
			Messages: []chatMessage{
				{Role: "system", Content: "You summarize video transcripts accurately and concisely."},
				{Role: "user", Content: prompt},
			},
		}).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("completion error: %s", result.Error.Message)
	}
	if resp.StatusCode() != 200 || len(result.Choices) == 0 {
		return "", fmt.Errorf("completion returned status %d", resp.StatusCode())
	}
	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

func (s *service) splitText(text string) []string {
	words := strings.Fields(text)
	if len(words) <= s.config.BatchSize {
		return []string{text}
	}

	var chunks []string
	for i := 0; i < len(words); i += s.config.BatchSize {
		end := i + s.config.BatchSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}

	return chunks
}

// extractJSON trims markdown fences some models wrap around JSON output.
func extractJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
