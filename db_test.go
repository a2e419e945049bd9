package main

import (
	"database/sql"
	"testing"
	"time"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(":memory:")
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunLifecycle(t *testing.T) {
	db := testDB(t)
	started := time.Date(2025, 5, 1, 7, 0, 0, 0, time.UTC)

	run := NewRun(started)
	if run.ID == "" {
		t.Fatal("run should get an id")
	}
	if err := InsertRun(db, run); err != nil {
		t.Fatalf("insert run: %v", err)
	}

	run.FinishedAt = started.Add(2 * time.Minute)
	run.TotalComplaints = 10
	run.Matched = 8
	run.Unmatched = 2
	run.DueItems = 3
	run.ReportPath = "/tmp/QA_20250501.md"
	if err := FinishRun(db, run); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	runs, err := GetRecentRuns(db, 5)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID || runs[0].Matched != 8 {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}

func TestInsertMatchedComplaintsAndHistory(t *testing.T) {
	db := testDB(t)
	run := NewRun(time.Now())
	if err := InsertRun(db, run); err != nil {
		t.Fatalf("insert run: %v", err)
	}

	records := []ComplaintRecord{
		{
			TicketID:       "MB-010",
			ProductionDate: time.Date(2025, 4, 11, 0, 0, 0, 0, time.UTC),
			ItemCode:       "OMA90",
			ExtractedLine:  2,
			Shift:          1,
			MatchedQA:      "Lan",
			MatchedLeader:  "Tuấn",
			Trace:          MatchTrace{"Looking for: Date=11/04/2025, Item=OMA90, Line=2"},
		},
		{TicketID: "MB-011", ItemCode: "KOK90", ExtractedMachine: -1, Trace: MatchTrace{"Missing required data"}},
	}
	n, err := InsertMatchedComplaints(db, run.ID, records)
	if err != nil || n != 2 {
		t.Fatalf("insert complaints: n=%d err=%v", n, err)
	}

	qas, err := TicketMatchHistory(db, "MB-010", 5)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(qas) != 1 || qas[0] != "Lan" {
		t.Fatalf("unexpected history: %v", qas)
	}

	// Unmatched rows carry no QA and stay out of the history.
	qas, err = TicketMatchHistory(db, "MB-011", 5)
	if err != nil || len(qas) != 0 {
		t.Fatalf("unmatched ticket should have no history: %v err=%v", qas, err)
	}
}

func TestInsertDueItems(t *testing.T) {
	db := testDB(t)
	run := NewRun(time.Now())
	if err := InsertRun(db, run); err != nil {
		t.Fatalf("insert run: %v", err)
	}

	entries := []ScheduleEntry{
		{Area: "Xưởng 1", Equipment: "Băng tải", FrequencyDays: 10, Status: StatusOverdue,
			LastEventDate: time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC),
			NextDueDate:   time.Date(2025, 4, 25, 0, 0, 0, 0, time.UTC)},
		{Equipment: "Máy chiên", Status: StatusNoData},
	}
	n, err := InsertDueItems(db, run.ID, "Kế hoạch vệ sinh", entries)
	if err != nil || n != 2 {
		t.Fatalf("insert due items: n=%d err=%v", n, err)
	}

	var count int
	if err := db.QueryRow(
		`SELECT COUNT(*) FROM due_items WHERE run_id = ? AND status = ?`,
		run.ID, StatusOverdue.String(),
	).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("want 1 overdue row, got %d", count)
	}
}

func TestGetMatchRateTrend(t *testing.T) {
	db := testDB(t)

	for i, matched := range []int{5, 8} {
		run := NewRun(time.Date(2025, 5, 1+i, 7, 0, 0, 0, time.UTC))
		if err := InsertRun(db, run); err != nil {
			t.Fatalf("insert run: %v", err)
		}
		run.FinishedAt = run.StartedAt.Add(time.Minute)
		run.TotalComplaints = 10
		run.Matched = matched
		if err := FinishRun(db, run); err != nil {
			t.Fatalf("finish run: %v", err)
		}
	}
	// An unfinished run must not appear in the trend.
	if err := InsertRun(db, NewRun(time.Date(2025, 5, 3, 7, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("insert run: %v", err)
	}

	trend, err := GetMatchRateTrend(db, 10)
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if len(trend) != 2 {
		t.Fatalf("want 2 finished runs, got %d", len(trend))
	}
	if trend[0].Matched != 8 || trend[1].Matched != 5 {
		t.Fatalf("trend should be newest first: %+v", trend)
	}
}
