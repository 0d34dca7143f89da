// Package tracker is the client-side progress follower. It shows a
// smooth, never-regressing progress display by blending an elapsed-time
// simulation with polled server records, and owns the polling cadence:
// exponential backoff with jitter, a grace window for not-yet-visible
// tasks and an overall timeout.
package tracker

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"ytsum/models"
)

type State string

const (
	StateIdle       State = "idle"
	StateSimulating State = "simulating"
	StatePolling    State = "polling"
	StateCompleted  State = "completed"
	StateError      State = "error"
	StateTimedOut   State = "timed_out"
)

// Terminal reports whether the tracker has stopped for good.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateError || s == StateTimedOut
}

// Snapshot is one observable moment of tracking, handed to the update
// callback and returned by Current.
type Snapshot struct {
	TaskID   string
	State    State
	Progress int
	Stage    string
}

// ProgressAPI is the server surface the tracker needs.
type ProgressAPI interface {
	GetProgress(ctx context.Context, taskID string) (models.ProgressRecord, error)
	DeleteProgress(ctx context.Context, taskID string) error
}

type Config struct {
	BaseInterval  time.Duration
	MaxInterval   time.Duration
	Jitter        time.Duration
	ClientTimeout time.Duration
	// SimulatedCap is the ceiling of the simulated curve; only a real
	// server record may display beyond it.
	SimulatedCap int
	// QueuedGraceCount is how many consecutive 404s read as a queued
	// task before falling back to simulation.
	QueuedGraceCount int
}

// simulationTau shapes the eased curve: fast early movement, asymptotic
// approach to the cap.
const simulationTau = 30 * time.Second

type Tracker struct {
	api      ProgressAPI
	config   Config
	onUpdate func(Snapshot)

	mu        sync.Mutex
	taskID    string
	state     State
	progress  int
	stage     string
	misses    int
	interval  time.Duration
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}

	now  func() time.Time
	rand *rand.Rand
}

// NewTracker builds a tracker; onUpdate receives every visible change
// and may be nil.
func NewTracker(api ProgressAPI, cfg Config, onUpdate func(Snapshot)) *Tracker {
	return &Tracker{
		api:      api,
		config:   cfg,
		onUpdate: onUpdate,
		state:    StateIdle,
		now:      time.Now,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start begins tracking under a freshly minted placeholder id. The
// display moves on simulation alone until SetTask hands over the real
// task id.
func (t *Tracker) Start(ctx context.Context) string {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}

	runCtx, cancel := context.WithCancel(ctx)
	placeholder := models.NewPlaceholderID(t.now())
	done := make(chan struct{})

	t.taskID = placeholder
	t.state = StateSimulating
	t.progress = 0
	t.stage = "Starting..."
	t.misses = 0
	t.interval = t.config.BaseInterval
	t.startedAt = t.now()
	t.cancel = cancel
	t.done = done
	t.mu.Unlock()

	t.emit()
	go t.run(runCtx, done)

	return placeholder
}

// SetTask swaps the placeholder for the server-allocated task id. An
// empty id cancels tracking entirely (the submission failed or the user
// navigated away).
func (t *Tracker) SetTask(taskID string) {
	t.mu.Lock()
	if taskID == "" {
		if t.cancel != nil {
			t.cancel()
			t.cancel = nil
		}
		t.state = StateIdle
		t.mu.Unlock()
		t.emit()
		return
	}

	t.taskID = taskID
	t.state = StatePolling
	t.misses = 0
	t.interval = t.config.BaseInterval
	t.mu.Unlock()
	t.emit()
}

// Stop cancels tracking and waits for the loop to exit.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	done := t.done
	t.cancel = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Current returns the latest snapshot.
func (t *Tracker) Current() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Snapshot {
	return Snapshot{
		TaskID:   t.taskID,
		State:    t.state,
		Progress: t.progress,
		Stage:    t.stage,
	}
}

func (t *Tracker) emit() {
	if t.onUpdate == nil {
		return
	}
	t.mu.Lock()
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.onUpdate(snap)
}

func (t *Tracker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		t.mu.Lock()
		wait := t.interval + time.Duration(t.rand.Int63n(int64(t.config.Jitter)+1))
		t.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		if t.tick(ctx) {
			return
		}
	}
}

// tick advances the tracker once and reports whether tracking is over.
func (t *Tracker) tick(ctx context.Context) bool {
	t.mu.Lock()
	if t.state.Terminal() || t.state == StateIdle {
		t.mu.Unlock()
		return true
	}

	if t.now().Sub(t.startedAt) > t.config.ClientTimeout {
		t.state = StateTimedOut
		t.stage = "This is taking longer than expected. Please try again."
		t.mu.Unlock()
		t.emit()
		return true
	}

	taskID := t.taskID
	state := t.state
	t.mu.Unlock()

	if state == StateSimulating || models.IsPlaceholderID(taskID) {
		t.simulate()
		return false
	}

	record, err := t.api.GetProgress(ctx, taskID)
	if err != nil {
		t.observeMiss(err)
		return false
	}
	return t.observe(record)
}

// simulate moves the display along the eased elapsed-time curve, never
// past the cap and never backwards.
func (t *Tracker) simulate() {
	t.mu.Lock()
	elapsed := t.now().Sub(t.startedAt)
	eased := float64(t.config.SimulatedCap) * (1 - math.Exp(-elapsed.Seconds()/simulationTau.Seconds()))
	pct := int(eased)
	if pct > t.progress {
		t.progress = pct
		if t.stage == "" || t.stage == "Starting..." {
			t.stage = "Working on it..."
		}
	}
	t.mu.Unlock()
	t.emit()
}

// observeMiss handles a failed poll. A 404, a transport error and a
// malformed response all count the same: a few early misses read as a
// queued task the server hasn't surfaced yet, persistent ones move the
// display along the simulated curve so it never looks stuck, while
// polling continues underneath. Every miss widens the next interval.
func (t *Tracker) observeMiss(err error) {
	t.mu.Lock()
	t.misses++
	fallBack := t.misses > t.config.QueuedGraceCount
	if !fallBack && t.progress == 0 {
		t.stage = "Queued"
	}
	t.widenLocked()
	t.mu.Unlock()

	if fallBack {
		t.simulate()
		return
	}
	t.emit()
}

// observe merges a server record into the display and reports whether a
// terminal state was reached. The displayed progress never decreases:
// a stale or reordered read keeps the current value and shows a neutral
// stage instead. Any well-formed response resets the backoff; only
// failed polls widen it.
func (t *Tracker) observe(record models.ProgressRecord) bool {
	t.mu.Lock()
	t.misses = 0
	t.state = StatePolling
	t.interval = t.config.BaseInterval

	switch {
	case record.Status == models.StatusCompleted:
		t.state = StateCompleted
		t.progress = 100
		t.stage = record.Stage
	case record.Status == models.StatusError:
		t.state = StateError
		t.stage = record.Stage
	case record.Progress >= t.progress:
		t.progress = record.Progress
		t.stage = record.Stage
	default:
		t.stage = "Finalizing..."
	}

	terminal := t.state.Terminal()
	completed := t.state == StateCompleted
	taskID := t.taskID
	t.mu.Unlock()
	t.emit()

	if completed {
		// Acknowledge so the server can drop the record early. Best
		// effort; the retention sweep covers failures.
		ackCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.api.DeleteProgress(ackCtx, taskID)
	}

	return terminal
}

func (t *Tracker) widenLocked() {
	t.interval *= 2
	if t.interval > t.config.MaxInterval {
		t.interval = t.config.MaxInterval
	}
}
