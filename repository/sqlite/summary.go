package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	pkgerrors "github.com/pkg/errors"

	"ytsum/errors"
	"ytsum/models"
	"ytsum/repository"
)

type summaryRepository struct {
	db *sql.DB
}

func NewSummaryRepository(db *sql.DB) repository.SummaryRepository {
	return &summaryRepository{db: db}
}

func (r *summaryRepository) Save(ctx context.Context, summary *models.Summary) error {
	const op = "SummaryRepository.Save"

	keyPoints, err := json.Marshal(summary.KeyPoints)
	if err != nil {
		return errors.Internal(op, err, "Failed to save summary")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO summaries (
			id, video_id, video_url, title, channel_name,
			duration_seconds, thumbnail_url, summary, key_points,
			user_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			channel_name = excluded.channel_name,
			duration_seconds = excluded.duration_seconds,
			thumbnail_url = excluded.thumbnail_url,
			summary = excluded.summary,
			key_points = excluded.key_points`,
		summary.ID, summary.VideoID, summary.VideoURL, summary.Title,
		summary.ChannelName, summary.DurationSeconds, summary.ThumbnailURL,
		summary.Summary, string(keyPoints), summary.UserID, summary.CreatedAt,
	)
	if err != nil {
		return errors.Internal(op, pkgerrors.Wrap(err, "insert summary"), "Failed to save summary")
	}

	return nil
}

func (r *summaryRepository) Find(ctx context.Context, id string) (*models.Summary, error) {
	const op = "SummaryRepository.Find"
	return r.scanOne(ctx, op, `WHERE id = ?`, id)
}

func (r *summaryRepository) FindByVideoID(ctx context.Context, videoID string) (*models.Summary, error) {
	const op = "SummaryRepository.FindByVideoID"
	return r.scanOne(ctx, op, `WHERE video_id = ? ORDER BY created_at DESC LIMIT 1`, videoID)
}

func (r *summaryRepository) scanOne(ctx context.Context, op, where string, arg string) (*models.Summary, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, video_id, video_url, title, channel_name,
		       duration_seconds, thumbnail_url, summary, key_points,
		       user_id, created_at
		FROM summaries `+where, arg)

	var s models.Summary
	var keyPoints string
	err := row.Scan(
		&s.ID, &s.VideoID, &s.VideoURL, &s.Title, &s.ChannelName,
		&s.DurationSeconds, &s.ThumbnailURL, &s.Summary, &keyPoints,
		&s.UserID, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, err, "Summary not found")
	}
	if err != nil {
		return nil, errors.Internal(op, pkgerrors.Wrap(err, "scan summary"), "Failed to load summary")
	}

	if keyPoints != "" {
		if err := json.Unmarshal([]byte(keyPoints), &s.KeyPoints); err != nil {
			return nil, errors.Internal(op, err, "Failed to load summary")
		}
	}

	return &s, nil
}

func (r *summaryRepository) Reassign(ctx context.Context, summaryID, userID string) (bool, error) {
	const op = "SummaryRepository.Reassign"

	result, err := r.db.ExecContext(ctx,
		`UPDATE summaries SET user_id = ? WHERE id = ? AND user_id = ''`,
		userID, summaryID,
	)
	if err != nil {
		return false, errors.Internal(op, pkgerrors.Wrap(err, "reassign summary"), "Failed to claim summary")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Internal(op, err, "Failed to claim summary")
	}
	return affected > 0, nil
}
