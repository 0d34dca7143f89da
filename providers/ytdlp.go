package providers

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// YTDLPProvider shells out to the yt-dlp tool as the last resort. It is
// the slowest provider and the most likely to get rate limited, but it
// needs no credentials.
type YTDLPProvider struct {
	binPath string
	quota   *Quota
	logger  *logrus.Logger
}

func NewYTDLPProvider(binPath string, quota *Quota) *YTDLPProvider {
	return &YTDLPProvider{
		binPath: binPath,
		quota:   quota,
		logger:  logrus.StandardLogger(),
	}
}

func (p *YTDLPProvider) Name() string { return "ytdlp" }

func (p *YTDLPProvider) Fetch(ctx context.Context, video VideoRef) (string, error) {
	if err := p.quota.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "quota wait")
	}

	tempDir, err := os.MkdirTemp("", "ytsum-subs-")
	if err != nil {
		return "", errors.Wrap(err, "create temp dir")
	}
	defer os.RemoveAll(tempDir)

	args := []string{
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", "en.*",
		"--sub-format", "json3",
		"--output", filepath.Join(tempDir, "%(id)s"),
		video.URL,
	}

	cmd := exec.CommandContext(ctx, p.binPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		p.logger.WithFields(logrus.Fields{
			"video_id": video.VideoID,
			"stderr":   stderr.String(),
		}).Warn("yt-dlp execution failed")
		return "", errors.Wrapf(err, "yt-dlp failed (stderr: %s)", stderr.String())
	}

	p.logger.WithFields(logrus.Fields{
		"video_id":    video.VideoID,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("yt-dlp finished")

	matches, err := filepath.Glob(filepath.Join(tempDir, "*.json3"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("yt-dlp produced no subtitle file for video %s", video.VideoID)
	}

	content, err := os.ReadFile(matches[0])
	if err != nil {
		return "", errors.Wrap(err, "read subtitle file")
	}

	text, err := parseCaptionContent(string(content))
	if err != nil {
		return "", err
	}
	if len(text) < minTranscriptLength {
		return "", fmt.Errorf("subtitle file too short to be a transcript")
	}
	return text, nil
}
