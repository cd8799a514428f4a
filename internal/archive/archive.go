package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"insider-radar/internal/insider"
	"insider-radar/internal/logger"
)

// Archive persists normalized filings and run summaries to SQLite so past
// windows can be replayed without refetching providers.
type Archive struct {
	db *sql.DB
}

// Run is one recorded pipeline run
type Run struct {
	ID               int64
	StartedAt        time.Time
	FinishedAt       time.Time
	Source           string
	CurrentRecords   int
	BaselineRecords  int
	DefaultedRecords int
	AnomalyCount     int
	TopKey           string
	ReportPath       string
}

// Open opens the archive database at dbPath, creating it and its parent
// directory if needed.
func Open(dbPath string) (*Archive, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		os.MkdirAll(dir, 0755)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping archive database: %w", err)
	}

	// WAL keeps the watcher's writes from blocking history reads.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Warn(context.Background(), "Failed to set WAL mode", "error", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	a := &Archive{db: db}
	if err := a.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return a, nil
}

func (a *Archive) createTables() error {
	filingsTable := `
		CREATE TABLE IF NOT EXISTS filings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			company TEXT NOT NULL,
			insider TEXT NOT NULL,
			transaction_type TEXT NOT NULL,
			shares INTEGER NOT NULL,
			price_per_share REAL NOT NULL,
			filing_date TEXT NOT NULL,
			source TEXT NOT NULL,
			archived_at TEXT NOT NULL
		);
	`
	if _, err := a.db.Exec(filingsTable); err != nil {
		return fmt.Errorf("failed to create filings table: %w", err)
	}

	// Watch mode re-fetches overlapping windows every poll; the unique index
	// makes re-archiving idempotent.
	dedupeIndex := `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_filings_identity
		ON filings(company, insider, transaction_type, shares, price_per_share, filing_date, source);
	`
	if _, err := a.db.Exec(dedupeIndex); err != nil {
		return fmt.Errorf("failed to create filings identity index: %w", err)
	}

	dateIndex := `CREATE INDEX IF NOT EXISTS idx_filings_date ON filings(filing_date);`
	if _, err := a.db.Exec(dateIndex); err != nil {
		return fmt.Errorf("failed to create filings date index: %w", err)
	}

	runsTable := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			source TEXT NOT NULL,
			current_records INTEGER NOT NULL,
			baseline_records INTEGER NOT NULL,
			defaulted_records INTEGER NOT NULL,
			anomaly_count INTEGER NOT NULL,
			top_key TEXT,
			report_path TEXT
		);
	`
	if _, err := a.db.Exec(runsTable); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	return nil
}

// SaveFilings archives normalized records in one transaction. Records the
// archive has already seen are skipped. Returns the number of new rows.
func (a *Archive) SaveFilings(ctx context.Context, records []insider.FilingRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO filings
			(company, insider, transaction_type, shares, price_per_share, filing_date, source, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	archivedAt := time.Now().UTC().Format(time.RFC3339)
	inserted := 0

	for _, r := range records {
		result, err := stmt.ExecContext(ctx,
			r.Company,
			r.Insider,
			string(r.TransactionType),
			r.Shares,
			r.PricePerShare,
			r.FilingDate.UTC().Format(time.RFC3339),
			r.Source,
			archivedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert filing: %w", err)
		}
		if n, err := result.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit filings: %w", err)
	}

	logger.Info(ctx, "Archived filings", "records", len(records), "new", inserted)
	return inserted, nil
}

// FilingsBetween returns archived filings with filing_date in [from, to),
// oldest first.
func (a *Archive) FilingsBetween(ctx context.Context, from, to time.Time) ([]insider.FilingRecord, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT company, insider, transaction_type, shares, price_per_share, filing_date, source
		FROM filings
		WHERE filing_date >= ? AND filing_date < ?
		ORDER BY filing_date ASC, id ASC
	`, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query filings: %w", err)
	}
	defer rows.Close()

	records := []insider.FilingRecord{}
	for rows.Next() {
		var r insider.FilingRecord
		var txType, dateStr string

		if err := rows.Scan(&r.Company, &r.Insider, &txType, &r.Shares, &r.PricePerShare, &dateStr, &r.Source); err != nil {
			return nil, fmt.Errorf("failed to scan filing: %w", err)
		}

		r.TransactionType = insider.TransactionType(txType)
		if parsed, err := time.Parse(time.RFC3339, dateStr); err == nil {
			r.FilingDate = parsed
		}

		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating filings: %w", err)
	}

	return records, nil
}

// CountFilings returns the total number of archived filings.
func (a *Archive) CountFilings(ctx context.Context) (int, error) {
	var count int
	err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM filings`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count filings: %w", err)
	}
	return count, nil
}

// SaveRun records one pipeline run.
func (a *Archive) SaveRun(ctx context.Context, run *Run) error {
	result, err := a.db.ExecContext(ctx, `
		INSERT INTO runs
			(started_at, finished_at, source, current_records, baseline_records, defaulted_records, anomaly_count, top_key, report_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
		run.Source,
		run.CurrentRecords,
		run.BaselineRecords,
		run.DefaultedRecords,
		run.AnomalyCount,
		run.TopKey,
		run.ReportPath,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		run.ID = id
	}

	return nil
}

// RecentRuns returns the most recent runs, newest first.
func (a *Archive) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, source, current_records, baseline_records, defaulted_records, anomaly_count, top_key, report_path
		FROM runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		var startedStr, finishedStr string

		if err := rows.Scan(&run.ID, &startedStr, &finishedStr, &run.Source,
			&run.CurrentRecords, &run.BaselineRecords, &run.DefaultedRecords,
			&run.AnomalyCount, &run.TopKey, &run.ReportPath); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		if parsed, err := time.Parse(time.RFC3339, startedStr); err == nil {
			run.StartedAt = parsed
		}
		if parsed, err := time.Parse(time.RFC3339, finishedStr); err == nil {
			run.FinishedAt = parsed
		}

		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
