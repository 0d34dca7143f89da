package progress

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytsum/models"
)

func newTestStore(t *testing.T, retention time.Duration) *Store {
	t.Helper()
	s, err := NewStore(retention, "")
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestPutGet(t *testing.T) {
	s := newTestStore(t, time.Hour)

	rec := models.ProgressRecord{TaskID: "t1", Progress: 25, Stage: "Fetching video data and transcript...", Status: models.StatusProcessing}
	s.Put(rec)

	got, ok := s.Get("t1")
	require.True(t, ok)
	assert.Equal(t, rec, got)

	_, ok = s.Get("unknown")
	assert.False(t, ok)
}

func TestTerminalRecordsAreFinal(t *testing.T) {
	s := newTestStore(t, time.Hour)

	s.Put(models.ProgressRecord{TaskID: "t1", Progress: 100, Stage: "Summary ready!", Status: models.StatusCompleted})
	s.Put(models.ProgressRecord{TaskID: "t1", Progress: 40, Stage: "Fetching video data and transcript...", Status: models.StatusProcessing})

	got, ok := s.Get("t1")
	require.True(t, ok)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
}

func TestErrorIsAlsoTerminal(t *testing.T) {
	s := newTestStore(t, time.Hour)

	s.Put(models.ProgressRecord{TaskID: "t2", Progress: 0, Stage: "We couldn't process this video.", Status: models.StatusError})
	s.Put(models.ProgressRecord{TaskID: "t2", Progress: 100, Stage: "Summary ready!", Status: models.StatusCompleted})

	got, ok := s.Get("t2")
	require.True(t, ok)
	assert.Equal(t, models.StatusError, got.Status)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t, time.Hour)

	s.Put(models.ProgressRecord{TaskID: "t1", Progress: 10, Status: models.StatusProcessing})
	assert.True(t, s.Delete("t1"))
	assert.False(t, s.Delete("t1"))

	_, ok := s.Get("t1")
	assert.False(t, ok)
}

func TestExpiryAndSweep(t *testing.T) {
	s := newTestStore(t, time.Hour)

	current := time.Now()
	s.now = func() time.Time { return current }

	s.Put(models.ProgressRecord{TaskID: "old", Progress: 10, Status: models.StatusProcessing})

	current = current.Add(2 * time.Hour)
	s.Put(models.ProgressRecord{TaskID: "fresh", Progress: 10, Status: models.StatusProcessing})

	// Expired records read as missing even before the sweep runs.
	_, ok := s.Get("old")
	assert.False(t, ok)
	_, ok = s.Get("fresh")
	assert.True(t, ok)

	evicted := s.Sweep()
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, s.Len())
}

func TestConcurrentDistinctKeys(t *testing.T) {
	s := newTestStore(t, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("task-%d", n)
			for p := 0; p <= 100; p += 10 {
				s.Put(models.ProgressRecord{TaskID: id, Progress: p, Status: models.StatusProcessing})
				s.Get(id)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
}
