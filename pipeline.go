package main

import (
	"database/sql"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ParseComplaints turns the raw complaint sheet into records: dates
// standardized, narrative fields extracted, shift resolved. Rows are kept
// even when extraction fails; the matcher reports why later.
func ParseComplaints(t *Table) []ComplaintRecord {
	records := make([]ComplaintRecord, 0, len(t.Rows))
	for i := range t.Rows {
		r := ComplaintRecord{
			RowIndex:        i,
			TicketID:        t.Cell(i, "ticket"),
			Narrative:       t.Cell(i, "narrative"),
			ItemCode:        t.Cell(i, "item"),
			ProductName:     t.Cell(i, "productName"),
			Province:        t.Cell(i, "province"),
			Quantity:        t.Cell(i, "quantity"),
			DefectName:      t.Cell(i, "defectName"),
			DefectQty:       t.Cell(i, "defectQty"),
			ResponsibleUnit: t.Cell(i, "responsibleUnit"),
			GroupCodes:      ParseGroupCodes(t.Cell(i, "group")),
		}
		if r.TicketID == "" && r.Narrative == "" && r.ItemCode == "" {
			continue
		}
		r.ShortProductName = ExtractShortProductName(r.ProductName)

		if d, ok := StandardizeDate(t.Cell(i, "receivedDate")); ok {
			r.ReceivedDate = d
		}

		rawDate := CleanConcatenatedDate(t.Cell(i, "productionDate"))
		// An explicit "Ngày SX:" in the narrative overrides the column.
		if corrected := ExtractCorrectDate(r.Narrative); corrected != "" {
			rawDate = corrected
		}
		if d, ok := StandardizeDate(rawDate); ok {
			r.ProductionDate = d
		}

		info := ExtractProductionInfo(r.Narrative)
		r.ExtractedTime = info.Time
		r.HasTime = info.HasTime
		r.ExtractedLine = info.Line
		r.ExtractedMachine = info.Machine
		r.PhoneNumber = ExtractPhoneNumber(r.Narrative)
		if r.HasTime {
			r.Shift = DetermineShift(r.ExtractedTime)
		}
		records = append(records, r)
	}
	return records
}

// FilterComplaints keeps factory-responsibility complaints received on or
// after the cutoff, newest ticket first.
func FilterComplaints(records []ComplaintRecord, responsibleUnit string, from time.Time) []ComplaintRecord {
	var out []ComplaintRecord
	for _, r := range records {
		if responsibleUnit != "" && r.ResponsibleUnit != responsibleUnit {
			continue
		}
		if !from.IsZero() && !r.ReceivedDate.IsZero() && r.ReceivedDate.Before(from) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TicketID > out[j].TicketID
	})
	return out
}

// ParseProductionPool reads the reference AQL sheet.
func ParseProductionPool(t *Table) []ProductionRecord {
	pool := make([]ProductionRecord, 0, len(t.Rows))
	for i := range t.Rows {
		r := ProductionRecord{
			RowIndex:    i,
			ItemCode:    t.Cell(i, "item"),
			ProductName: t.Cell(i, "productName"),
			QA:          t.Cell(i, "qa"),
			Leader:      t.Cell(i, "leader"),
			GroupCodes:  ParseGroupCodes(t.Cell(i, "group")),
		}
		if r.ItemCode == "" && r.QA == "" {
			continue
		}
		if d, ok := StandardizeDate(t.Cell(i, "productionDate")); ok {
			r.ProductionDate = d
		}
		if code, ok := t.IntCell(i, "shift"); ok {
			r.ShiftCode = code
		}
		if line, ok := t.IntCell(i, "line"); ok {
			r.Line = line
		}
		if tod, ok := ParseTime(t.Cell(i, "time")); ok {
			r.Time = tod
			r.HasTime = true
		}
		r.Payload = make(map[string]string, len(t.Headers))
		for _, h := range t.Headers {
			r.Payload[h] = t.Cell(i, h)
		}
		pool = append(pool, r)
	}
	return pool
}

// BuildLeaderMapping collects leader code -> display name from rows that
// carry both columns. The sheet logs shift leaders by code in older rows.
func BuildLeaderMapping(t *Table) map[string]string {
	mapping := make(map[string]string)
	for i := range t.Rows {
		code := t.Cell(i, "leaderCode")
		name := t.Cell(i, "leader")
		if code != "" && name != "" && code != name {
			mapping[code] = name
		}
	}
	return mapping
}

func loadComplaintTable(cfg Config) (*Table, error) {
	if cfg.ComplaintCSVURL != "" {
		return DownloadCSVTable(cfg.ComplaintCSVURL, cfg.DownloadRetries, time.Duration(cfg.DownloadRetryDelaySeconds)*time.Second)
	}
	return LoadCSVTable(cfg.ComplaintCSVPath)
}

func loadProductionTable(cfg Config) (*Table, error) {
	if cfg.ProductionCSVURL != "" {
		return DownloadCSVTable(cfg.ProductionCSVURL, cfg.DownloadRetries, time.Duration(cfg.DownloadRetryDelaySeconds)*time.Second)
	}
	return LoadCSVTable(cfg.ProductionCSVPath)
}

func loadScheduleEntries(path string, today time.Time, dueSoonDays int) []ScheduleEntry {
	if path == "" {
		return nil
	}
	t, err := LoadCSVTable(path)
	if err != nil {
		log.Printf("schedule sheet %s unavailable: %v", path, err)
		return nil
	}
	return EvaluateSchedule(t, today, dueSoonDays)
}

// RunPipeline executes one full reconciliation: load, normalize, match,
// evaluate schedules, write outputs, persist, notify.
func RunPipeline(cfg Config, db *sql.DB) (ReconRun, error) {
	now := time.Now().In(cfg.Location)
	run := NewRun(now)
	if err := InsertRun(db, run); err != nil {
		return run, fmt.Errorf("recording run: %w", err)
	}

	complaintTable, err := loadComplaintTable(cfg)
	if err != nil {
		return run, fmt.Errorf("loading complaints: %w", err)
	}
	productionTable, err := loadProductionTable(cfg)
	if err != nil {
		return run, fmt.Errorf("loading production reference: %w", err)
	}

	complaints := FilterComplaints(ParseComplaints(complaintTable), cfg.ResponsibleUnit, cfg.FilterFrom)
	pool := ParseProductionPool(productionTable)
	log.Printf("loaded %d complaints (%s), %d reference rows",
		len(complaints), cfg.ResponsibleUnit, len(pool))

	matcher := &Matcher{Pool: pool, Leaders: BuildLeaderMapping(productionTable)}
	for i := range complaints {
		matcher.Annotate(&complaints[i])
	}

	today := dateOnly(now)
	plans := []planDueList{
		buildPlanDueList("Kế hoạch lấy mẫu", cfg.SamplingCSVPath, today, cfg.DueSoonDays),
		buildPlanDueList("Kế hoạch vệ sinh", cfg.CleaningCSVPath, today, cfg.DueSoonDays),
		buildPlanDueList("Kiểm định kỳ NVL", cfg.TestingCSVPath, today, cfg.DueSoonDays),
	}

	summary := SummarizeComplaints(complaints, 10)
	var unmatched []ComplaintRecord
	for _, c := range complaints {
		if c.MatchedQA == "" {
			unmatched = append(unmatched, c)
		}
	}

	if cfg.OutputCSVPath != "" {
		if err := BuildAnnotatedTable(complaints).SaveCSV(cfg.OutputCSVPath); err != nil {
			log.Printf("writing annotated csv: %v", err)
		}
	}

	content := BuildReportMarkdown(run, summary, plans, unmatched, now)
	reportPath, err := WriteReportFile(content, cfg.ReportOutputDir, now, cfg.TeamName)
	if err != nil {
		log.Printf("writing report: %v", err)
	} else {
		run.ReportPath = reportPath
	}
	if _, err := WriteEmailDraftFile(content, cfg.ReportOutputDir, now, "Báo cáo KNKH "+cfg.TeamName); err != nil {
		log.Printf("writing email draft: %v", err)
	}

	if _, err := InsertMatchedComplaints(db, run.ID, complaints); err != nil {
		log.Printf("persisting matched complaints: %v", err)
	}
	dueTotal, missingTotal := 0, 0
	for _, plan := range plans {
		if n, err := InsertDueItems(db, run.ID, plan.Name, plan.Entries); err != nil {
			log.Printf("persisting due items (%s): %v", plan.Name, err)
		} else {
			dueTotal += n
		}
		missingTotal += plan.Missing
	}

	run.FinishedAt = time.Now().In(cfg.Location)
	run.TotalComplaints = summary.TotalComplaints
	run.Matched = summary.Matched
	run.Unmatched = summary.Unmatched
	run.DueItems = dueTotal
	if err := FinishRun(db, run); err != nil {
		log.Printf("finalizing run: %v", err)
	}

	analysis := ""
	if cfg.LLMConfigured() {
		text, usage, err := AnalyzeComplaintPatterns(cfg, summary)
		if err != nil {
			log.Printf("llm analysis failed: %v", err)
		} else {
			analysis = text
			log.Printf("llm analysis done, %d tokens", usage.TotalTokens())
		}
	}

	if err := PostRunSummary(cfg, run, summary, dueTotal, missingTotal, analysis); err != nil {
		log.Printf("slack notify failed: %v", err)
	}

	log.Printf("run %s complete: %d complaints, %d matched, %d due items",
		run.ID, run.TotalComplaints, run.Matched, run.DueItems)
	return run, nil
}

func buildPlanDueList(name, path string, today time.Time, dueSoonDays int) planDueList {
	entries := loadScheduleEntries(path, today, dueSoonDays)
	return planDueList{
		Name:    name,
		Entries: DueEntries(entries),
		Missing: len(MissingDataEntries(entries)),
	}
}

// StartScheduler runs the pipeline on a 5-field cron expression
// (minute hour day-of-month month day-of-week), e.g. "0 7 * * 1" for
// Mondays at 07:00 factory time.
func StartScheduler(cfg Config, db *sql.DB) {
	schedule := strings.TrimSpace(cfg.RunSchedule)
	if schedule == "" {
		log.Println("Scheduled runs disabled (run_schedule not set)")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid run_schedule '%s': %v — scheduled runs disabled", schedule, err)
		return
	}
	log.Printf("Reconciliation scheduled (cron: %s)", schedule)

	go func() {
		for {
			now := time.Now().In(cfg.Location)
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next run at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			if _, err := RunPipeline(cfg, db); err != nil {
				log.Printf("Scheduled run error: %v", err)
			}
		}
	}()
}
