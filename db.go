package main

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS recon_runs (
		id               TEXT PRIMARY KEY,
		started_at       DATETIME NOT NULL,
		finished_at      DATETIME,
		total_complaints INTEGER DEFAULT 0,
		matched          INTEGER DEFAULT 0,
		unmatched        INTEGER DEFAULT 0,
		due_items        INTEGER DEFAULT 0,
		report_path      TEXT DEFAULT '',
		notes            TEXT DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_recon_runs_started ON recon_runs(started_at);

	CREATE TABLE IF NOT EXISTS matched_complaints (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id          TEXT NOT NULL,
		ticket_id       TEXT NOT NULL,
		received_date   DATETIME,
		production_date DATETIME,
		item_code       TEXT DEFAULT '',
		product_name    TEXT DEFAULT '',
		province        TEXT DEFAULT '',
		defect_name     TEXT DEFAULT '',
		line            INTEGER DEFAULT 0,
		machine         INTEGER DEFAULT -1,
		shift           INTEGER DEFAULT 0,
		qa              TEXT DEFAULT '',
		leader          TEXT DEFAULT '',
		trace           TEXT DEFAULT '',
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_mc_run ON matched_complaints(run_id);
	CREATE INDEX IF NOT EXISTS idx_mc_ticket ON matched_complaints(ticket_id);

	CREATE TABLE IF NOT EXISTS due_items (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id         TEXT NOT NULL,
		plan           TEXT NOT NULL,
		area           TEXT DEFAULT '',
		equipment      TEXT DEFAULT '',
		parameter      TEXT DEFAULT '',
		frequency_days INTEGER DEFAULT 0,
		last_event     DATETIME,
		next_due       DATETIME,
		status         TEXT NOT NULL,
		created_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_due_run ON due_items(run_id);
	CREATE INDEX IF NOT EXISTS idx_due_status ON due_items(status);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// ReconRun is one end-to-end pipeline execution. Keeping every run lets
// the team compare match rates over time and re-open old traces.
type ReconRun struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      time.Time
	TotalComplaints int
	Matched         int
	Unmatched       int
	DueItems        int
	ReportPath      string
	Notes           string
}

func NewRun(now time.Time) ReconRun {
	return ReconRun{ID: uuid.NewString(), StartedAt: now}
}

func InsertRun(db *sql.DB, run ReconRun) error {
	_, err := db.Exec(
		`INSERT INTO recon_runs (id, started_at, notes) VALUES (?, ?, ?)`,
		run.ID, run.StartedAt, run.Notes,
	)
	return err
}

func FinishRun(db *sql.DB, run ReconRun) error {
	_, err := db.Exec(
		`UPDATE recon_runs
		 SET finished_at = ?, total_complaints = ?, matched = ?, unmatched = ?, due_items = ?, report_path = ?
		 WHERE id = ?`,
		run.FinishedAt, run.TotalComplaints, run.Matched, run.Unmatched,
		run.DueItems, run.ReportPath, run.ID,
	)
	return err
}

func GetRecentRuns(db *sql.DB, limit int) ([]ReconRun, error) {
	rows, err := db.Query(
		`SELECT id, started_at, COALESCE(finished_at, started_at),
		        total_complaints, matched, unmatched, due_items, report_path, notes
		 FROM recon_runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []ReconRun
	for rows.Next() {
		var r ReconRun
		if err := rows.Scan(
			&r.ID, &r.StartedAt, &r.FinishedAt, &r.TotalComplaints,
			&r.Matched, &r.Unmatched, &r.DueItems, &r.ReportPath, &r.Notes,
		); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func InsertMatchedComplaints(db *sql.DB, runID string, records []ComplaintRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO matched_complaints
		 (run_id, ticket_id, received_date, production_date, item_code, product_name,
		  province, defect_name, line, machine, shift, qa, leader, trace)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		_, err := stmt.Exec(
			runID, r.TicketID, nullableDate(r.ReceivedDate), nullableDate(r.ProductionDate),
			r.ItemCode, r.ProductName, r.Province, r.DefectName,
			r.ExtractedLine, r.ExtractedMachine, r.Shift,
			r.MatchedQA, r.MatchedLeader, r.Trace.String(),
		)
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, tx.Commit()
}

// TicketMatchHistory returns the QA matched to a ticket in past runs,
// newest first. Used when an operator re-checks a complaint by hand.
func TicketMatchHistory(db *sql.DB, ticketID string, limit int) ([]string, error) {
	rows, err := db.Query(
		`SELECT qa FROM matched_complaints
		 WHERE ticket_id = ? AND qa <> ''
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		ticketID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var qas []string
	for rows.Next() {
		var qa string
		if err := rows.Scan(&qa); err != nil {
			return nil, err
		}
		qas = append(qas, qa)
	}
	return qas, rows.Err()
}

func InsertDueItems(db *sql.DB, runID, plan string, entries []ScheduleEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO due_items
		 (run_id, plan, area, equipment, parameter, frequency_days, last_event, next_due, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, e := range entries {
		_, err := stmt.Exec(
			runID, plan, e.Area, e.Equipment, e.Parameter, e.FrequencyDays,
			nullableDate(e.LastEventDate), nullableDate(e.NextDueDate), e.Status.String(),
		)
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, tx.Commit()
}

// MatchRateTrend is the per-run match ratio for the recent-runs summary.
type MatchRateTrend struct {
	RunID     string
	StartedAt time.Time
	Total     int
	Matched   int
}

func GetMatchRateTrend(db *sql.DB, limit int) ([]MatchRateTrend, error) {
	rows, err := db.Query(
		`SELECT id, started_at, total_complaints, matched
		 FROM recon_runs
		 WHERE finished_at IS NOT NULL
		 ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trends []MatchRateTrend
	for rows.Next() {
		var t MatchRateTrend
		if err := rows.Scan(&t.RunID, &t.StartedAt, &t.Total, &t.Matched); err != nil {
			return nil, err
		}
		trends = append(trends, t)
	}
	return trends, rows.Err()
}

func nullableDate(d time.Time) any {
	if d.IsZero() {
		return nil
	}
	return d
}
