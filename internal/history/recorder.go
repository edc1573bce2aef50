// Package history appends net-worth history entries whenever the aggregate
// valuation settles on a new value. Recording is a derived convenience
// signal, not source-of-truth state: every failure here is logged and
// swallowed so it can never break the mutation that triggered it.
package history

import (
	"sync"
	"time"

	"dashworth/internal/currency"
	"dashworth/internal/logger"
	"dashworth/internal/models"

	"gorm.io/gorm"
)

// Recorder debounces observed net-worth changes and commits at most one
// history entry per quiet window. Comparison is done on values rounded to
// the nearest whole unit, so float noise and transient re-renders never
// produce entries.
//
// One recorder exists per running session. At most one debounce timer is
// outstanding; a new qualifying change supersedes any pending commit.
type Recorder struct {
	db     *gorm.DB
	window time.Duration
	source string

	mu     sync.Mutex
	timer  *time.Timer
	closed bool

	// gen identifies the current schedule. A timer callback that fired
	// before being superseded can still be waiting on mu when a newer
	// observation reschedules; it carries the generation it was armed
	// under and no-ops once that generation is stale.
	gen uint64

	// last committed rounded value and its currency, nil until the first
	// commit or restore. Initialized from the newest persisted entry so an
	// app restart never re-records a value from a prior session.
	lastValue    *float64
	lastCurrency string

	// pending observation, valid while timer != nil
	pendingValue    float64
	pendingCurrency string
}

// NewRecorder creates a Recorder and restores its last-committed marker from
// the most recent persisted history entry, if any.
func NewRecorder(db *gorm.DB, window time.Duration) *Recorder {
	r := &Recorder{db: db, window: window, source: "auto"}

	var latest models.HistoryEntry
	err := db.Order("created_at DESC").First(&latest).Error
	switch {
	case err == nil:
		rounded := currency.Round(latest.TotalValue)
		r.lastValue = &rounded
		r.lastCurrency = latest.Currency
	case err == gorm.ErrRecordNotFound:
		// empty history, first observation will record
	default:
		logger.Get().Warnw("failed to restore history marker", "error", err.Error())
	}

	return r
}

// Observe reports the current converted net worth. If it differs from the
// last committed value after rounding, a commit is scheduled after the quiet
// window; otherwise any pending commit is cancelled.
func (r *Recorder) Observe(total float64, currencyCode string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	rounded := currency.Round(total)
	if r.lastValue != nil && *r.lastValue == rounded && r.lastCurrency == currencyCode {
		// Back to the committed value; nothing to record.
		r.cancelLocked()
		return
	}

	r.pendingValue = total
	r.pendingCurrency = currencyCode
	r.cancelLocked()
	gen := r.gen
	r.timer = time.AfterFunc(r.window, func() { r.commit(gen) })
}

// Flush commits any pending observation immediately. Intended for tests and
// graceful shutdown.
func (r *Recorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer == nil {
		return
	}
	r.cancelLocked()
	r.commitLocked()
}

// Close cancels any pending commit and marks the session as torn down.
// A timer that already fired into commit finds closed set and no-ops.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.cancelLocked()
}

// cancelLocked stops the outstanding timer and invalidates its generation,
// so a callback that already fired and is waiting on r.mu cannot commit.
// Caller holds r.mu.
func (r *Recorder) cancelLocked() {
	r.gen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// commit is the timer callback for the schedule identified by gen.
func (r *Recorder) commit(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || gen != r.gen {
		return
	}
	r.timer = nil
	r.commitLocked()
}

// commitLocked writes the pending observation as a history entry. Caller
// holds r.mu.
func (r *Recorder) commitLocked() {
	entry := models.HistoryEntry{
		TotalValue: r.pendingValue,
		Currency:   r.pendingCurrency,
		Source:     r.source,
	}
	if err := r.db.Create(&entry).Error; err != nil {
		logger.Get().Warnw("failed to record history entry", "error", err.Error())
		return
	}

	rounded := currency.Round(r.pendingValue)
	r.lastValue = &rounded
	r.lastCurrency = r.pendingCurrency
}
