package recorder

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the audit trail to a SQLite database. 128-bit
// amounts are stored as decimal TEXT.
type SQLiteRecorder struct {
	db      *sql.DB
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the daemon writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, entropy: ulid.Monotonic(rand.Reader, 0)}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS setups (
			id                TEXT PRIMARY KEY,
			timestamp         INTEGER NOT NULL,
			user_id           TEXT NOT NULL,
			currency          TEXT,
			target_percentage INTEGER,
			threshold_bp      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_setups_user ON setups(user_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS salary_runs (
			id                TEXT PRIMARY KEY,
			timestamp         INTEGER NOT NULL,
			user_id           TEXT NOT NULL,
			currency          TEXT,
			amount            TEXT,
			conversion_amount TEXT,
			devaluation_bp    INTEGER,
			reason            TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_salary_user ON salary_runs(user_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS conversions (
			id              TEXT PRIMARY KEY,
			timestamp       INTEGER NOT NULL,
			user_id         TEXT NOT NULL,
			currency        TEXT,
			trigger         TEXT,
			local_amount    TEXT,
			usd_amount      TEXT,
			exchange_rate   TEXT,
			total_protected TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_user ON conversions(user_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS metrics_snapshots (
			id              TEXT PRIMARY KEY,
			timestamp       INTEGER NOT NULL,
			user_id         TEXT NOT NULL,
			currency        TEXT,
			days_tracked    INTEGER,
			devaluation_bp  INTEGER,
			current_rate    TEXT,
			total_protected TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_user ON metrics_snapshots(user_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS removals (
			id         TEXT PRIMARY KEY,
			timestamp  INTEGER NOT NULL,
			user_id    TEXT NOT NULL,
			removed_by TEXT
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// newID must be called with r.mu held; the monotonic entropy source is not
// safe for concurrent use.
func (r *SQLiteRecorder) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), r.entropy).String()
}

func (r *SQLiteRecorder) RecordSetup(evt *SetupEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO setups
		(id, timestamp, user_id, currency, target_percentage, threshold_bp)
		VALUES (?,?,?,?,?,?)`,
		r.newID(), int64(evt.Timestamp), string(evt.User), evt.Currency,
		evt.TargetPercentage, evt.ThresholdBP,
	)
	return err
}

func (r *SQLiteRecorder) RecordSalary(evt *SalaryEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO salary_runs
		(id, timestamp, user_id, currency, amount, conversion_amount, devaluation_bp, reason)
		VALUES (?,?,?,?,?,?,?,?)`,
		r.newID(), int64(evt.Timestamp), string(evt.User), evt.Currency,
		evt.Amount.String(), evt.ConversionAmount.String(),
		evt.DevaluationBP, string(evt.Reason),
	)
	return err
}

func (r *SQLiteRecorder) RecordConversion(rec *ConversionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := rec.Event
	_, err := r.db.Exec(`INSERT INTO conversions
		(id, timestamp, user_id, currency, trigger, local_amount, usd_amount, exchange_rate, total_protected)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		r.newID(), int64(e.Timestamp), string(rec.User), rec.Currency, string(e.Trigger),
		e.LocalAmount.String(), e.USDAmount.String(), e.ExchangeRate.String(),
		rec.TotalProtected.String(),
	)
	return err
}

func (r *SQLiteRecorder) RecordMetrics(snap *MetricsSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := snap.Metrics
	_, err := r.db.Exec(`INSERT INTO metrics_snapshots
		(id, timestamp, user_id, currency, days_tracked, devaluation_bp, current_rate, total_protected)
		VALUES (?,?,?,?,?,?,?,?)`,
		r.newID(), int64(snap.Timestamp), string(snap.User), snap.Currency,
		m.DaysTracked, m.CurrencyDevaluationBP,
		m.CurrentRate.String(), m.TotalProtected.String(),
	)
	return err
}

func (r *SQLiteRecorder) RecordRemoval(evt *RemovalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO removals (id, timestamp, user_id, removed_by) VALUES (?,?,?,?)`,
		r.newID(), int64(evt.Timestamp), string(evt.User), string(evt.By),
	)
	return err
}

// ConversionCount returns how many conversions were recorded for user.
func (r *SQLiteRecorder) ConversionCount(user string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM conversions WHERE user_id = ?`, user).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
