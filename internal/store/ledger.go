// Package store persists run outcomes in a local SQLite ledger so results can be
// compared across suites and candidate builds.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"ringjudge/internal/interactor"
	"ringjudge/internal/logging"
)

// Entry is one persisted run.
type Entry struct {
	ID                int64
	RunID             string
	Algo              string
	CaseIndex         int
	Variant           int
	Success           bool
	Reason            interactor.Reason
	Moves             int
	Toggles           int
	ReportedLength    *int
	ExpectedLength    *int
	Runtime           time.Duration
	ClaimedUnsolvable bool
	WasSolvable       bool
	RecordedAt        time.Time
}

// NewEntry flattens an outcome with its case coordinates.
func NewEntry(algo string, caseIndex, variant int, expected *int, o interactor.Outcome) Entry {
	return Entry{
		RunID:             o.RunID,
		Algo:              algo,
		CaseIndex:         caseIndex,
		Variant:           variant,
		Success:           o.Success,
		Reason:            o.Reason,
		Moves:             o.Moves,
		Toggles:           o.Toggles,
		ReportedLength:    o.ReportedLength,
		ExpectedLength:    expected,
		Runtime:           o.Runtime,
		ClaimedUnsolvable: o.ClaimedUnsolvable,
		WasSolvable:       o.WasSolvable,
	}
}

// Ledger is the outcome database.
type Ledger struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// NewLedger creates or opens the ledger at dbPath.
func NewLedger(dbPath string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	l := &Ledger{db: db, dbPath: dbPath}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logging.Store("Ledger opened at %s", dbPath)
	return l, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.dbPath
}

func (l *Ledger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		algo TEXT NOT NULL,
		case_index INTEGER NOT NULL,
		variant INTEGER NOT NULL,
		success INTEGER NOT NULL,
		reason TEXT NOT NULL,
		moves INTEGER NOT NULL,
		toggles INTEGER NOT NULL,
		reported_length INTEGER,
		expected_length INTEGER,
		runtime_ns INTEGER NOT NULL,
		claimed_unsolvable INTEGER NOT NULL,
		was_solvable INTEGER NOT NULL,
		recorded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_algo ON runs(algo);
	CREATE INDEX IF NOT EXISTS idx_runs_reason ON runs(reason);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Record appends e to the ledger and returns its row id. RecordedAt defaults to now.
func (l *Ledger) Record(e Entry) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}
	res, err := l.db.Exec(`
		INSERT INTO runs (run_id, algo, case_index, variant, success, reason, moves,
			toggles, reported_length, expected_length, runtime_ns, claimed_unsolvable,
			was_solvable, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.RunID, e.Algo, e.CaseIndex, e.Variant, boolInt(e.Success), string(e.Reason),
		e.Moves, e.Toggles, nullInt(e.ReportedLength), nullInt(e.ExpectedLength),
		int64(e.Runtime), boolInt(e.ClaimedUnsolvable), boolInt(e.WasSolvable),
		e.RecordedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		logging.StoreError("Record run %s failed: %v", e.RunID, err)
		return 0, fmt.Errorf("failed to record run: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit entries, newest first. An empty algo matches all.
func (l *Ledger) Recent(algo string, limit int) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rows, err := l.db.Query(`
		SELECT id, run_id, algo, case_index, variant, success, reason, moves, toggles,
			reported_length, expected_length, runtime_ns, claimed_unsolvable,
			was_solvable, recorded_at
		FROM runs
		WHERE ? = '' OR algo = ?
		ORDER BY id DESC
		LIMIT ?
	`, algo, algo, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                              Entry
			success, claimed, solvable     int
			reason, recordedAt             string
			runtimeNs                      int64
			reportedLength, expectedLength sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Algo, &e.CaseIndex, &e.Variant, &success,
			&reason, &e.Moves, &e.Toggles, &reportedLength, &expectedLength, &runtimeNs,
			&claimed, &solvable, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		e.Success = success != 0
		e.Reason = interactor.Reason(reason)
		e.ReportedLength = intPtr(reportedLength)
		e.ExpectedLength = intPtr(expectedLength)
		e.Runtime = time.Duration(runtimeNs)
		e.ClaimedUnsolvable = claimed != 0
		e.WasSolvable = solvable != 0
		e.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse recorded_at %q: %w", recordedAt, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReasonCounts tallies entries by reason. An empty algo matches all.
func (l *Ledger) ReasonCounts(algo string) (map[interactor.Reason]int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rows, err := l.db.Query(`
		SELECT reason, COUNT(*) FROM runs
		WHERE ? = '' OR algo = ?
		GROUP BY reason
	`, algo, algo)
	if err != nil {
		return nil, fmt.Errorf("failed to count reasons: %w", err)
	}
	defer rows.Close()

	counts := make(map[interactor.Reason]int)
	for rows.Next() {
		var reason string
		var n int
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, fmt.Errorf("failed to scan reason count: %w", err)
		}
		counts[interactor.Reason(reason)] = n
	}
	return counts, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
