package main

import (
	"os"
	"strings"
	"testing"
	"time"
)

func sampleComplaint() ComplaintRecord {
	return ComplaintRecord{
		TicketID:         "MB-010",
		ReceivedDate:     time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC),
		ProductionDate:   time.Date(2025, 4, 11, 0, 0, 0, 0, time.UTC),
		ItemCode:         "OMA90",
		ProductName:      "Mì Omachi sườn 30gói x 90gr",
		ShortProductName: "Omachi sườn",
		Province:         "Hà Nội",
		DefectName:       "vỡ vụn",
		DefectQty:        "2",
		ExtractedTime:    TimeOfDay{Hour: 13, Minute: 19},
		HasTime:          true,
		ExtractedLine:    2,
		ExtractedMachine: 3,
		Shift:            1,
		MatchedQA:        "Lan",
		MatchedLeader:    "Tuấn",
		Trace:            MatchTrace{"Looking for: Date=11/04/2025, Item=OMA90, Line=2"},
	}
}

func TestBuildAnnotatedTable(t *testing.T) {
	table := BuildAnnotatedTable([]ComplaintRecord{sampleComplaint()})
	if len(table.Rows) != 1 {
		t.Fatalf("want 1 row, got %d", len(table.Rows))
	}
	if len(table.Rows[0]) != len(table.Headers) {
		t.Fatalf("row width %d != header width %d", len(table.Rows[0]), len(table.Headers))
	}

	row := 0
	if got := table.Cell(row, "Tháng sản xuất"); got != "4" {
		t.Fatalf("production month: %q", got)
	}
	if got := table.Cell(row, "Năm sản xuất"); got != "2025" {
		t.Fatalf("production year: %q", got)
	}
	// 20 April 2025 is a Sunday, the tail of ISO week 16.
	if got := table.Cell(row, "Tuần nhận khiếu nại"); got != "16" {
		t.Fatalf("received week: %q", got)
	}
	if got := table.Cell(row, "Ca"); got != "1" {
		t.Fatalf("shift column: %q", got)
	}
	if got := table.Cell(row, "Giờ"); got != "13:19" {
		t.Fatalf("time column: %q", got)
	}
	if got := table.Cell(row, "QA"); got != "Lan" {
		t.Fatalf("qa column: %q", got)
	}
}

func TestBuildAnnotatedTableAbsentFields(t *testing.T) {
	table := BuildAnnotatedTable([]ComplaintRecord{{TicketID: "MB-011", ExtractedMachine: -1}})
	if got := table.Cell(0, "Máy"); got != "" {
		t.Fatalf("absent machine should be blank, got %q", got)
	}
	if got := table.Cell(0, "Giờ"); got != "" {
		t.Fatalf("absent time should be blank, got %q", got)
	}
	if got := table.Cell(0, "Ngày SX"); got != "" {
		t.Fatalf("zero date should be blank, got %q", got)
	}
}

func TestBuildReportMarkdown(t *testing.T) {
	c := sampleComplaint()
	unmatchedRec := ComplaintRecord{TicketID: "MB-011", ItemCode: "KOK90", Trace: MatchTrace{"Missing required data"}}
	summary := SummarizeComplaints([]ComplaintRecord{c, unmatchedRec}, 5)
	run := ReconRun{ID: "run-1", StartedAt: time.Date(2025, 5, 1, 7, 0, 0, 0, time.UTC)}
	plans := []planDueList{{
		Name: "Kế hoạch vệ sinh",
		Entries: []ScheduleEntry{{
			Area: "Xưởng 1", Equipment: "Băng tải",
			Status: StatusOverdue, NextDueDate: time.Date(2025, 4, 25, 0, 0, 0, 0, time.UTC),
		}},
		Missing: 2,
	}}

	md := BuildReportMarkdown(run, summary, plans, []ComplaintRecord{unmatchedRec}, run.StartedAt)

	for _, want := range []string{
		"Báo cáo đối chiếu KNKH - 01/05/2025",
		"Tổng số khiếu nại: **2**",
		"Đã đối chiếu QA: **1** (50.0%)",
		"Kế hoạch vệ sinh",
		"Xưởng 1 / Băng tải: **Quá hạn** (hạn 25/04/2025)",
		"Thiếu dữ liệu ngày thực hiện: 2 hạng mục",
		"MB-011 (KOK90): Missing required data",
		"Run: run-1",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("report missing %q:\n%s", want, md)
		}
	}
}

func TestWriteReportAndEmailDraft(t *testing.T) {
	dir := t.TempDir()
	date := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	path, err := WriteReportFile("### Báo cáo\n- dòng **một**\n", dir, date, "QA")
	if err != nil {
		t.Fatalf("write report: %v", err)
	}
	if !strings.HasSuffix(path, "QA_20250501.md") {
		t.Fatalf("unexpected report path %q", path)
	}

	emlPath, err := WriteEmailDraftFile("### Báo cáo\n- dòng **một**\n", dir, date, "Báo cáo KNKH QA")
	if err != nil {
		t.Fatalf("write eml: %v", err)
	}
	data, err := os.ReadFile(emlPath)
	if err != nil {
		t.Fatalf("read eml: %v", err)
	}
	eml := string(data)
	for _, want := range []string{
		"MIME-Version: 1.0",
		"multipart/alternative",
		"text/plain; charset=UTF-8",
		"text/html; charset=UTF-8",
		"Subject: Báo cáo KNKH QA 01/05/2025",
	} {
		if !strings.Contains(eml, want) {
			t.Fatalf("eml missing %q", want)
		}
	}
	if strings.Contains(eml, "**") {
		t.Fatal("markdown bold should be rendered, not passed through")
	}
	if !strings.Contains(eml, "<strong>một</strong>") {
		t.Fatal("html part should carry bold text")
	}
}

func TestMarkdownToPlainCollapsesBlankRuns(t *testing.T) {
	got := markdownToPlain("#### Tiêu đề\n\n\n- a\n- b\n")
	if strings.Contains(got, "\n\n\n") {
		t.Fatalf("blank runs should collapse: %q", got)
	}
	if strings.Contains(got, "####") {
		t.Fatalf("heading marker should be stripped: %q", got)
	}
}
