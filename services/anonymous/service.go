// Package anonymous bounds free anonymous usage per device fingerprint
// and reconciles that usage with an account once the user signs in.
package anonymous

import (
	"context"

	"github.com/sirupsen/logrus"

	"ytsum/errors"
	"ytsum/repository"
)

type Service interface {
	// RecordUse registers one anonymous submission, enforcing the
	// per-fingerprint lifetime limit.
	RecordUse(ctx context.Context, fingerprint, ip, summaryID string) error
	// Claim re-owns the fingerprint's summaries to userID and returns
	// how many were re-owned. Draining an unknown or already-claimed
	// fingerprint returns zero without error.
	Claim(ctx context.Context, fingerprint, userID string) (int, error)
}

type Config struct {
	UseLimit int
}

type service struct {
	fingerprints repository.FingerprintRepository
	summaries    repository.SummaryRepository
	config       Config
	logger       *logrus.Logger
}

func NewService(
	fingerprints repository.FingerprintRepository,
	summaries repository.SummaryRepository,
	config Config,
) Service {
	return &service{
		fingerprints: fingerprints,
		summaries:    summaries,
		config:       config,
		logger:       logrus.StandardLogger(),
	}
}

func (s *service) RecordUse(ctx context.Context, fingerprint, ip, summaryID string) error {
	const op = "AnonymousService.RecordUse"

	if fingerprint == "" {
		return errors.InvalidInput(op, nil, "Fingerprint is required")
	}

	allowed, err := s.fingerprints.TryUse(ctx, fingerprint, ip, summaryID, s.config.UseLimit)
	if err != nil {
		return err
	}
	if !allowed {
		s.logger.WithFields(logrus.Fields{
			"operation":   op,
			"fingerprint": fingerprint,
		}).Info("Anonymous use limit reached")
		return errors.LimitReached(op, "Free summary already used. Sign in to continue.")
	}

	return nil
}

func (s *service) Claim(ctx context.Context, fingerprint, userID string) (int, error) {
	const op = "AnonymousService.Claim"

	if fingerprint == "" || userID == "" {
		return 0, errors.InvalidInput(op, nil, "Fingerprint and user ID are required")
	}

	logger := s.logger.WithFields(logrus.Fields{
		"operation":   op,
		"fingerprint": fingerprint,
		"user_id":     userID,
	})

	ids, err := s.fingerprints.Drain(ctx, fingerprint)
	if err != nil {
		return 0, err
	}

	claimed := 0
	for _, id := range ids {
		// Each re-ownership stands alone; one failure must not block
		// the rest.
		changed, err := s.summaries.Reassign(ctx, id, userID)
		if err != nil {
			logger.WithError(err).WithField("summary_id", id).Error("Failed to reassign summary")
			continue
		}
		if changed {
			claimed++
		}
	}

	logger.WithFields(logrus.Fields{
		"drained": len(ids),
		"claimed": claimed,
	}).Info("Anonymous claim processed")

	return claimed, nil
}
