package app

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/fintab-labs/gridsave/internal/domain"
	"github.com/fintab-labs/gridsave/internal/ports"
)

// debounceState tracks the autosave timer machine.
type debounceState int

const (
	debounceIdle debounceState = iota
	debounceArmed
	debounceFlushing
)

// String returns a human-readable representation of the state.
func (s debounceState) String() string {
	switch s {
	case debounceIdle:
		return "Idle"
	case debounceArmed:
		return "Armed"
	case debounceFlushing:
		return "Flushing"
	default:
		return "Unknown"
	}
}

// FlushEventEmitter is called on flush completion and status changes.
// Callbacks run outside the saver's lock but on the flushing goroutine.
type FlushEventEmitter interface {
	OnFlushSuccess(records int, duration time.Duration)
	OnFlushError(err error, records int)
	OnStatusChange(previous, current domain.SaveStatus)
}

// SaverConfig contains the autosave tuning knobs.
type SaverConfig struct {
	// Delay is the trailing-edge debounce: a flush fires this long after
	// the most recent edit, not on a fixed interval.
	Delay time.Duration

	// SavedWindow is how long the Saved status is displayed before
	// reverting to Idle.
	SavedWindow time.Duration

	// ErrorWindow is how long the Error status is displayed before
	// reverting to Idle.
	ErrorWindow time.Duration
}

// Saver is the pending-change aggregator. It coalesces field-level edits per
// entity, flushes them to the remote store as one batched upsert after a
// quiet period or on demand, and keeps everything on failure so nothing is
// lost between retries.
//
// Flushes are serialized: a FlushNow arriving while a flush is in flight
// waits for it, then flushes whatever pending set remains (queue-after).
// Edits arriving during an in-flight flush land in a fresh pending set and
// are never marked saved by the older flush's response.
type Saver struct {
	store   ports.RecordStore
	journal ports.Journal
	clock   ports.Clock
	logger  ports.Logger
	emitter FlushEventEmitter

	mu        sync.Mutex
	cfg       SaverConfig
	pending   *domain.ChangeSet
	status    domain.SaveStatus
	statusGen uint64
	timer     ports.Timer
	debounce  debounceState

	// flushMu serializes flushes; at most one upsert call is outstanding.
	flushMu sync.Mutex
}

// NewSaver creates a saver. journal and emitter may be nil.
func NewSaver(cfg SaverConfig, store ports.RecordStore, journal ports.Journal, clock ports.Clock, logger ports.Logger, emitter FlushEventEmitter) *Saver {
	return &Saver{
		store:   store,
		journal: journal,
		clock:   clock,
		logger:  logger,
		emitter: emitter,
		cfg:     cfg,
		pending: domain.NewChangeSet(),
		status:  domain.StatusIdle,
	}
}

// Record merges fieldUpdates into the pending entry for entityID, creating
// it if absent, and re-arms the debounce timer. It never touches the remote
// store itself.
func (s *Saver) Record(entityID string, fieldUpdates map[string]any) error {
	if entityID == "" {
		return fmt.Errorf("%w: empty entity id", domain.ErrInvalidChange)
	}
	if len(fieldUpdates) == 0 {
		return fmt.Errorf("%w: no field updates", domain.ErrInvalidChange)
	}

	s.mu.Lock()
	s.pending.Merge(entityID, fieldUpdates, s.clock.Now())
	s.armLocked()
	s.persistJournalLocked()
	s.mu.Unlock()

	s.logger.Debug("change recorded",
		ports.String("entity", entityID),
		ports.Int("fields", len(fieldUpdates)),
	)
	return nil
}

// Restore merges previously journaled changes back into the pending set,
// keeping their original queue times, and arms the timer so recovered
// drafts autosave.
func (s *Saver) Restore(changes []domain.PendingChange) {
	if len(changes) == 0 {
		return
	}
	s.mu.Lock()
	for _, ch := range changes {
		s.pending.Merge(ch.EntityID, ch.Fields, ch.QueuedAt)
	}
	s.armLocked()
	s.mu.Unlock()

	s.logger.Info("restored unsaved drafts", ports.Int("entities", len(changes)))
}

// FlushNow cancels any armed timer and immediately attempts persistence of
// the entire pending set. No-op if nothing is pending. If another flush is
// in flight it waits for it, then flushes what remains.
func (s *Saver) FlushNow(ctx context.Context) error {
	s.mu.Lock()
	s.cancelTimerLocked()
	if s.debounce == debounceArmed {
		s.debounce = debounceIdle
	}
	s.mu.Unlock()

	return s.flush(ctx)
}

// DiscardPending drops all pending changes without persisting and cancels
// any armed timer. Changes already captured by an in-flight flush are not
// recalled; if that flush fails they will reappear in the pending set.
func (s *Saver) DiscardPending() {
	s.mu.Lock()
	dropped := s.pending.Len()
	s.pending.Clear()
	s.cancelTimerLocked()
	if s.debounce == debounceArmed {
		s.debounce = debounceIdle
	}
	s.persistJournalLocked()
	s.mu.Unlock()

	if dropped > 0 {
		s.logger.Info("pending changes discarded", ports.Int("entities", dropped))
	}
}

// Status returns the current save status.
func (s *Saver) Status() domain.SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// PendingCount returns the number of entities with unsaved changes.
func (s *Saver) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Len()
}

// HasUnsaved returns true if any change is pending.
func (s *Saver) HasUnsaved() bool {
	return s.PendingCount() > 0
}

// SecondsUntilFlush returns the whole seconds remaining until the autosave
// deadline measured from the oldest queued edit, rounded up, and false when
// nothing is pending. Because the timer itself is trailing-edge from the
// most recent edit, the countdown can reach 0 before the flush fires under
// continuous editing; it is telemetry, the timer is authoritative.
func (s *Saver) SecondsUntilFlush() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldest, ok := s.pending.Oldest()
	if !ok {
		return 0, false
	}
	remain := s.cfg.Delay - s.clock.Now().Sub(oldest)
	if remain < 0 {
		remain = 0
	}
	return int(math.Ceil(remain.Seconds())), true
}

// Retune replaces the autosave tuning. An armed timer is re-armed with the
// new delay measured from now.
func (s *Saver) Retune(cfg SaverConfig) {
	s.mu.Lock()
	s.cfg = cfg
	if s.debounce == debounceArmed {
		s.armLocked()
	}
	s.mu.Unlock()

	s.logger.Info("autosave retuned",
		ports.Duration("delay", cfg.Delay),
		ports.Duration("saved_window", cfg.SavedWindow),
		ports.Duration("error_window", cfg.ErrorWindow),
	)
}

// Stop cancels any armed timer. It does not flush; callers that want the
// pending set persisted on shutdown call FlushNow first.
func (s *Saver) Stop() {
	s.mu.Lock()
	s.cancelTimerLocked()
	if s.debounce == debounceArmed {
		s.debounce = debounceIdle
	}
	s.mu.Unlock()
}

// flush snapshots the pending set and ships it as one batched upsert.
// The snapshot swap means edits arriving while the call is in flight land
// in a fresh pending set; on failure the snapshot is merged back underneath
// them so newer field values win and queue times stay stable.
func (s *Saver) flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	if s.pending.Empty() {
		s.cancelTimerLocked()
		if s.debounce == debounceArmed {
			s.debounce = debounceIdle
		}
		s.mu.Unlock()
		return nil
	}
	snapshot := s.pending
	s.pending = domain.NewChangeSet()
	s.cancelTimerLocked()
	s.debounce = debounceFlushing
	prev, changed := s.setStatusLocked(domain.StatusSaving, 0)
	records := snapshot.Records(s.clock.Now())
	s.mu.Unlock()

	if changed {
		s.emitStatus(prev, domain.StatusSaving)
	}

	start := s.clock.Now()
	err := s.store.UpsertBatch(ctx, records)
	elapsed := s.clock.Now().Sub(start)

	if err != nil {
		s.mu.Lock()
		s.pending.MergeUnder(snapshot)
		prev, changed = s.setStatusLocked(domain.StatusError, s.cfg.ErrorWindow)
		s.settleDebounceLocked()
		s.persistJournalLocked()
		s.mu.Unlock()

		if changed {
			s.emitStatus(prev, domain.StatusError)
		}
		s.logger.Error("flush failed",
			ports.Err(err),
			ports.Int("records", len(records)),
		)
		if s.emitter != nil {
			s.emitter.OnFlushError(err, len(records))
		}
		return fmt.Errorf("%w: %v", domain.ErrFlushFailed, err)
	}

	s.mu.Lock()
	prev, changed = s.setStatusLocked(domain.StatusSaved, s.cfg.SavedWindow)
	s.settleDebounceLocked()
	s.persistJournalLocked()
	s.mu.Unlock()

	if changed {
		s.emitStatus(prev, domain.StatusSaved)
	}
	s.logger.Info("flushed",
		ports.Int("records", len(records)),
		ports.Duration("duration", elapsed),
	)
	if s.emitter != nil {
		s.emitter.OnFlushSuccess(len(records), elapsed)
	}
	return nil
}

// armLocked restarts the trailing-edge debounce timer.
func (s *Saver) armLocked() {
	s.cancelTimerLocked()
	s.timer = s.clock.AfterFunc(s.cfg.Delay, s.onTimer)
	if s.debounce != debounceFlushing {
		s.debounce = debounceArmed
	}
}

func (s *Saver) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// settleDebounceLocked resolves the timer state after a flush: edits that
// arrived during the in-flight call re-armed the timer, so the machine goes
// back to Armed rather than Idle.
func (s *Saver) settleDebounceLocked() {
	if s.timer != nil {
		s.debounce = debounceArmed
	} else {
		s.debounce = debounceIdle
	}
}

func (s *Saver) onTimer() {
	// Timer-triggered flush. The error is already logged and reflected in
	// the status flag; nothing else to do until the next natural trigger.
	_ = s.flush(context.Background())
}

// setStatusLocked updates the status and, when revertAfter is positive,
// schedules a revert to Idle. The generation counter makes a stale revert
// timer a no-op once a newer status has been set.
func (s *Saver) setStatusLocked(st domain.SaveStatus, revertAfter time.Duration) (domain.SaveStatus, bool) {
	prev := s.status
	s.status = st
	s.statusGen++
	gen := s.statusGen
	if revertAfter > 0 {
		s.clock.AfterFunc(revertAfter, func() { s.revertStatus(gen) })
	}
	return prev, prev != st
}

func (s *Saver) revertStatus(gen uint64) {
	s.mu.Lock()
	if s.statusGen != gen || s.status == domain.StatusIdle {
		s.mu.Unlock()
		return
	}
	prev := s.status
	s.status = domain.StatusIdle
	s.statusGen++
	s.mu.Unlock()

	s.emitStatus(prev, domain.StatusIdle)
}

func (s *Saver) emitStatus(prev, cur domain.SaveStatus) {
	if s.emitter != nil {
		s.emitter.OnStatusChange(prev, cur)
	}
}

// persistJournalLocked mirrors the pending set to the journal, best effort.
// A journal write failure must not fail the edit that triggered it.
func (s *Saver) persistJournalLocked() {
	if s.journal == nil {
		return
	}
	if err := s.journal.Save(context.Background(), s.pending.Changes()); err != nil {
		s.logger.Warn("journal write failed", ports.Err(err))
	}
}
