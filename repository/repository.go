package repository

import (
	"context"

	"ytsum/models"
)

type SummaryRepository interface {
	Save(ctx context.Context, summary *models.Summary) error
	Find(ctx context.Context, id string) (*models.Summary, error)
	FindByVideoID(ctx context.Context, videoID string) (*models.Summary, error)
	// Reassign moves an unowned summary to userID. Reports whether the
	// row changed; re-owning an already-owned summary is a no-op.
	Reassign(ctx context.Context, summaryID, userID string) (bool, error)
}

type FingerprintRepository interface {
	// TryUse atomically checks the per-fingerprint limit, increments
	// the use count and records the summary id. Returns false without
	// error when the limit is already spent.
	TryUse(ctx context.Context, fingerprint, ip, summaryID string, limit int) (bool, error)
	// Drain returns the fingerprint's unclaimed summary ids and clears
	// them so a second drain yields nothing.
	Drain(ctx context.Context, fingerprint string) ([]string, error)
	Find(ctx context.Context, fingerprint string) (*models.Fingerprint, error)
}
