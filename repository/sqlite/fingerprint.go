package sqlite

import (
	"context"
	"database/sql"
	"time"

	pkgerrors "github.com/pkg/errors"

	"ytsum/errors"
	"ytsum/models"
	"ytsum/repository"
)

type fingerprintRepository struct {
	db *sql.DB
}

func NewFingerprintRepository(db *sql.DB) repository.FingerprintRepository {
	return &fingerprintRepository{db: db}
}

// TryUse performs the limit check and the increment in one statement so
// two concurrent submissions from the same fingerprint cannot both pass
// a read-then-write race. The insert branch carries its own limit guard
// so a non-positive limit admits nothing, first use included.
func (r *fingerprintRepository) TryUse(ctx context.Context, fingerprint, ip, summaryID string, limit int) (bool, error) {
	const op = "FingerprintRepository.TryUse"

	var allowed bool
	err := WithTransaction(ctx, r.db, func(tx Executor) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO fingerprints (fingerprint, ip_address, use_count, used_at)
			SELECT ?, ?, 1, ? WHERE ? > 0
			ON CONFLICT(fingerprint) DO UPDATE SET
				use_count = use_count + 1,
				ip_address = excluded.ip_address,
				used_at = excluded.used_at
			WHERE fingerprints.use_count < ?`,
			fingerprint, ip, time.Now().UTC(), limit, limit,
		)
		if err != nil {
			return pkgerrors.Wrap(err, "check-and-increment fingerprint")
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return pkgerrors.Wrap(err, "rows affected")
		}
		if affected == 0 {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO fingerprint_summaries (fingerprint, summary_id)
			VALUES (?, ?)`,
			fingerprint, summaryID,
		); err != nil {
			return pkgerrors.Wrap(err, "record fingerprint summary")
		}

		allowed = true
		return nil
	})
	if err != nil {
		return false, errors.Internal(op, err, "Failed to record anonymous use")
	}

	return allowed, nil
}

func (r *fingerprintRepository) Drain(ctx context.Context, fingerprint string) ([]string, error) {
	const op = "FingerprintRepository.Drain"

	var ids []string
	err := WithTransaction(ctx, r.db, func(tx Executor) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT summary_id FROM fingerprint_summaries WHERE fingerprint = ?`,
			fingerprint,
		)
		if err != nil {
			return pkgerrors.Wrap(err, "select fingerprint summaries")
		}
		defer rows.Close()

		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return pkgerrors.Wrap(err, "scan summary id")
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			return pkgerrors.Wrap(err, "iterate fingerprint summaries")
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM fingerprint_summaries WHERE fingerprint = ?`,
			fingerprint,
		); err != nil {
			return pkgerrors.Wrap(err, "drain fingerprint summaries")
		}

		return nil
	})
	if err != nil {
		return nil, errors.Internal(op, err, "Failed to claim summaries")
	}

	return ids, nil
}

func (r *fingerprintRepository) Find(ctx context.Context, fingerprint string) (*models.Fingerprint, error) {
	const op = "FingerprintRepository.Find"

	row := r.db.QueryRowContext(ctx,
		`SELECT fingerprint, ip_address, use_count, used_at FROM fingerprints WHERE fingerprint = ?`,
		fingerprint,
	)

	var fp models.Fingerprint
	err := row.Scan(&fp.Fingerprint, &fp.IPAddress, &fp.UseCount, &fp.UsedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, err, "Fingerprint not found")
	}
	if err != nil {
		return nil, errors.Internal(op, pkgerrors.Wrap(err, "scan fingerprint"), "Failed to load fingerprint")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT summary_id FROM fingerprint_summaries WHERE fingerprint = ?`,
		fingerprint,
	)
	if err != nil {
		return nil, errors.Internal(op, err, "Failed to load fingerprint")
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Internal(op, err, "Failed to load fingerprint")
		}
		fp.SummaryIDs = append(fp.SummaryIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal(op, err, "Failed to load fingerprint")
	}

	return &fp, nil
}
