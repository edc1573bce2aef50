package history

import (
	"testing"
	"time"

	"dashworth/internal/models"
	"dashworth/internal/testutil"

	"gorm.io/gorm"
)

const window = 20 * time.Millisecond

func countEntries(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.HistoryEntry{}).Count(&n).Error; err != nil {
		t.Fatalf("failed to count history entries: %v", err)
	}
	return n
}

func waitForCommit() {
	time.Sleep(window * 4)
}

func TestRecorderCommitsAfterQuietWindow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	r := NewRecorder(db, window)
	defer r.Close()

	r.Observe(1000, "USD")
	waitForCommit()

	if n := countEntries(t, db); n != 1 {
		t.Fatalf("expected 1 entry, got %d", n)
	}
	var entry models.HistoryEntry
	if err := db.First(&entry).Error; err != nil {
		t.Fatalf("failed to load entry: %v", err)
	}
	if entry.TotalValue != 1000 || entry.Currency != "USD" {
		t.Errorf("entry = %v %s, want 1000 USD", entry.TotalValue, entry.Currency)
	}
}

func TestRecorderCollapsesBurstToFinalValue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	r := NewRecorder(db, window)
	defer r.Close()

	// Changes arriving faster than the debounce window commit exactly once,
	// with the final value.
	r.Observe(1000, "USD")
	r.Observe(1050, "USD")
	r.Observe(1100, "USD")
	waitForCommit()

	if n := countEntries(t, db); n != 1 {
		t.Fatalf("expected 1 entry, got %d", n)
	}
	var entry models.HistoryEntry
	if err := db.First(&entry).Error; err != nil {
		t.Fatalf("failed to load entry: %v", err)
	}
	if entry.TotalValue != 1100 {
		t.Errorf("entry value = %v, want final value 1100", entry.TotalValue)
	}
}

func TestRecorderNetUnchangedCommitsNothing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	if err := db.Create(&models.HistoryEntry{TotalValue: 1000, Currency: "USD"}).Error; err != nil {
		t.Fatalf("failed to seed history: %v", err)
	}

	r := NewRecorder(db, window)
	defer r.Close()

	// 1000 -> 1050 -> 1000 within the window: net unchanged, zero entries.
	r.Observe(1050, "USD")
	r.Observe(1000, "USD")
	waitForCommit()

	if n := countEntries(t, db); n != 1 {
		t.Errorf("expected only the seeded entry, got %d", n)
	}
}

func TestRecorderIgnoresFloatNoise(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	if err := db.Create(&models.HistoryEntry{TotalValue: 1000, Currency: "USD"}).Error; err != nil {
		t.Fatalf("failed to seed history: %v", err)
	}

	r := NewRecorder(db, window)
	defer r.Close()

	// Rounds to the committed 1000, so no entry.
	r.Observe(1000.4, "USD")
	waitForCommit()

	if n := countEntries(t, db); n != 1 {
		t.Errorf("expected no new entry for sub-unit noise, got %d total", n)
	}
}

func TestRecorderRestoresMarkerAcrossRestart(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	first := NewRecorder(db, window)
	first.Observe(5000, "USD")
	waitForCommit()
	first.Close()

	if n := countEntries(t, db); n != 1 {
		t.Fatalf("expected 1 entry before restart, got %d", n)
	}

	// Simulated restart: a fresh recorder observing the already-recorded
	// value must not duplicate it.
	second := NewRecorder(db, window)
	defer second.Close()
	second.Observe(5000, "USD")
	waitForCommit()

	if n := countEntries(t, db); n != 1 {
		t.Errorf("expected no duplicate entry after restart, got %d", n)
	}
}

func TestRecorderClosedSessionNeverCommits(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	r := NewRecorder(db, window)
	r.Observe(1000, "USD")
	r.Close()
	waitForCommit()

	if n := countEntries(t, db); n != 0 {
		t.Errorf("expected no entries after Close, got %d", n)
	}
}

func TestRecorderSupersededTimerNeverCommits(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// A long window so the only commits are the ones driven explicitly.
	r := NewRecorder(db, time.Hour)
	defer r.Close()

	r.Observe(100, "USD")
	r.mu.Lock()
	staleGen := r.gen
	r.mu.Unlock()
	r.Observe(200, "USD")

	// The first timer firing after the second observation rescheduled:
	// its generation is stale, so it must write nothing.
	r.commit(staleGen)
	if n := countEntries(t, db); n != 0 {
		t.Fatalf("expected no entry from a superseded timer, got %d", n)
	}

	// The surviving schedule still commits the settled value, once.
	r.Flush()
	if n := countEntries(t, db); n != 1 {
		t.Fatalf("expected 1 entry after flush, got %d", n)
	}
	var entry models.HistoryEntry
	if err := db.First(&entry).Error; err != nil {
		t.Fatalf("failed to load entry: %v", err)
	}
	if entry.TotalValue != 200 {
		t.Errorf("entry value = %v, want 200", entry.TotalValue)
	}

	// Flush cancelled the second timer; a late fire of it is stale too.
	r.mu.Lock()
	flushedGen := r.gen
	r.mu.Unlock()
	r.commit(flushedGen - 1)
	if n := countEntries(t, db); n != 1 {
		t.Errorf("expected still 1 entry, got %d", n)
	}
}

func TestRecorderCurrencyChangeRecords(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	if err := db.Create(&models.HistoryEntry{TotalValue: 1000, Currency: "USD"}).Error; err != nil {
		t.Fatalf("failed to seed history: %v", err)
	}

	r := NewRecorder(db, window)
	defer r.Close()

	// Same number, different display currency: still a real change.
	r.Observe(1000, "EUR")
	waitForCommit()

	if n := countEntries(t, db); n != 2 {
		t.Errorf("expected a new entry for currency change, got %d total", n)
	}
}
