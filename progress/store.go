// Package progress holds the in-process store of task progress records.
// Records live from task creation until the retention window expires or
// a client explicitly cleans them up. The store is the only state shared
// across concurrent pipeline runs; keys never contend with each other.
package progress

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"ytsum/models"
)

type entry struct {
	record    models.ProgressRecord
	updatedAt time.Time
}

type Store struct {
	mu        sync.RWMutex
	entries   map[string]entry
	retention time.Duration
	cron      *cron.Cron
	now       func() time.Time
}

// NewStore creates a store whose records expire after retention. The
// eviction sweep runs on sweepSchedule (cron syntax, e.g. "@every 10m");
// an empty schedule disables the sweeper, which tests rely on.
func NewStore(retention time.Duration, sweepSchedule string) (*Store, error) {
	s := &Store{
		entries:   make(map[string]entry),
		retention: retention,
		now:       time.Now,
	}

	if sweepSchedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(sweepSchedule, func() {
			evicted := s.Sweep()
			if evicted > 0 {
				logrus.WithField("evicted", evicted).Info("Evicted expired progress records")
			}
		}); err != nil {
			return nil, err
		}
		c.Start()
		s.cron = c
	}

	return s, nil
}

// Put stores or replaces the record for its task id. Once a task has
// reported a terminal status, further writes for that id are dropped so
// no task can leave a terminal state.
func (s *Store) Put(record models.ProgressRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[record.TaskID]; ok && existing.record.Terminal() {
		return
	}

	s.entries[record.TaskID] = entry{record: record, updatedAt: s.now()}
}

// Get returns the record for taskID if present and unexpired.
func (s *Store) Get(taskID string) (models.ProgressRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[taskID]
	if !ok {
		return models.ProgressRecord{}, false
	}
	if s.now().Sub(e.updatedAt) > s.retention {
		return models.ProgressRecord{}, false
	}
	return e.record, true
}

// Delete removes a record, reporting whether it existed. Used by clients
// acknowledging a completed task.
func (s *Store) Delete(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[taskID]; !ok {
		return false
	}
	delete(s.entries, taskID)
	return true
}

// Sweep evicts records older than the retention window and returns how
// many were removed. Called periodically rather than on every write.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.retention)
	evicted := 0
	for id, e := range s.entries {
		if e.updatedAt.Before(cutoff) {
			delete(s.entries, id)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of live entries, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the background sweeper.
func (s *Store) Close() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
