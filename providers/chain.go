package providers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Observer is notified before each provider attempt so the caller can
// surface sub-stage progress without the chain knowing where it goes.
type Observer func(attempt, total int, providerName string)

type Chain struct {
	providers []Provider
	timeout   time.Duration
	logger    *logrus.Logger
}

// NewChain builds a fallback chain trying providers in the given order,
// each bounded by timeout. Providers are tried at most once per run.
func NewChain(providers []Provider, timeout time.Duration) *Chain {
	return &Chain{
		providers: providers,
		timeout:   timeout,
		logger:    logrus.StandardLogger(),
	}
}

// Run attempts each provider in order and returns the first success.
// A provider exceeding its timeout counts as a failed attempt; the chain
// moves on rather than retrying. If every provider fails the returned
// error is a *ChainError carrying all failure reasons.
func (c *Chain) Run(ctx context.Context, video VideoRef, observe Observer) (AttemptResult, error) {
	logger := c.logger.WithField("video_id", video.VideoID)

	attempts := make([]AttemptResult, 0, len(c.providers))
	for i, p := range c.providers {
		if observe != nil {
			observe(i+1, len(c.providers), p.Name())
		}

		if err := ctx.Err(); err != nil {
			attempts = append(attempts, AttemptResult{
				ProviderName:  p.Name(),
				FailureReason: err.Error(),
			})
			break
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		text, err := p.Fetch(attemptCtx, video)
		cancel()

		if err != nil {
			logger.WithError(err).WithField("provider", p.Name()).Warn("Transcript provider failed")
			attempts = append(attempts, AttemptResult{
				ProviderName:  p.Name(),
				FailureReason: err.Error(),
			})
			continue
		}

		logger.WithFields(logrus.Fields{
			"provider":          p.Name(),
			"transcript_length": len(text),
			"failed_attempts":   len(attempts),
		}).Info("Transcript acquired")

		return AttemptResult{
			ProviderName: p.Name(),
			Succeeded:    true,
			Transcript:   text,
		}, nil
	}

	return AttemptResult{}, &ChainError{Attempts: attempts}
}
