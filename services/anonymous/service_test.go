package anonymous

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytsum/errors"
	"ytsum/models"
	"ytsum/repository"
	"ytsum/repository/sqlite"
)

func newTestService(t *testing.T, limit int) (Service, repository.SummaryRepository) {
	t.Helper()

	db, err := sqlite.InitDB(filepath.Join(t.TempDir(), "test.db"), sqlite.DefaultDBConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	summaries := sqlite.NewSummaryRepository(db)
	fingerprints := sqlite.NewFingerprintRepository(db)
	return NewService(fingerprints, summaries, Config{UseLimit: limit}), summaries
}

func saveSummary(t *testing.T, repo repository.SummaryRepository, id string) {
	t.Helper()
	require.NoError(t, repo.Save(context.Background(), &models.Summary{
		ID:        id,
		VideoID:   "vid-" + id,
		VideoURL:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Summary:   "content",
		CreatedAt: time.Now().UTC(),
	}))
}

func TestRecordUseWithinLimit(t *testing.T) {
	svc, summaries := newTestService(t, 2)
	ctx := context.Background()

	saveSummary(t, summaries, "s1")
	saveSummary(t, summaries, "s2")
	saveSummary(t, summaries, "s3")

	require.NoError(t, svc.RecordUse(ctx, "fp", "198.51.100.7", "s1"))
	require.NoError(t, svc.RecordUse(ctx, "fp", "198.51.100.7", "s2"))

	err := svc.RecordUse(ctx, "fp", "198.51.100.7", "s3")
	require.Error(t, err)
	assert.True(t, errors.IsLimitReached(err))
}

func TestRecordUseZeroLimit(t *testing.T) {
	svc, summaries := newTestService(t, 0)
	saveSummary(t, summaries, "s1")

	err := svc.RecordUse(context.Background(), "fp", "198.51.100.7", "s1")
	require.Error(t, err)
	assert.True(t, errors.IsLimitReached(err), "limit 0 must reject the first use")
}

func TestClaimIdempotence(t *testing.T) {
	svc, summaries := newTestService(t, 5)
	ctx := context.Background()

	saveSummary(t, summaries, "s1")
	saveSummary(t, summaries, "s2")
	require.NoError(t, svc.RecordUse(ctx, "fp", "198.51.100.7", "s1"))
	require.NoError(t, svc.RecordUse(ctx, "fp", "198.51.100.7", "s2"))

	claimed, err := svc.Claim(ctx, "fp", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, claimed)

	// Second claim finds a drained fingerprint and is a no-op.
	claimed, err = svc.Claim(ctx, "fp", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, claimed)

	got, err := summaries.Find(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
}

func TestClaimUnknownFingerprint(t *testing.T) {
	svc, _ := newTestService(t, 1)

	claimed, err := svc.Claim(context.Background(), "never-seen", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, claimed)
}

func TestConcurrentRecordUseSingleWinner(t *testing.T) {
	svc, summaries := newTestService(t, 1)
	ctx := context.Background()

	const workers = 10
	for i := 0; i < workers; i++ {
		saveSummary(t, summaries, "s"+string(rune('a'+i)))
	}

	var accepted atomic.Int32
	var rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := svc.RecordUse(ctx, "fp", "198.51.100.7", "s"+string(rune('a'+n)))
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.IsLimitReached(err):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load(), "exactly one submission may pass at limit 1")
	assert.Equal(t, int32(workers-1), rejected.Load())
}
