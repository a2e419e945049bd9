package main

import (
	"sort"
	"time"

	"github.com/spf13/cast"
)

// ComputeStatus classifies one recurring task. "no data" and "frequency
// error" stay distinct from "overdue" because reporting highlights only
// true overdue rows. dueSoonDays is the advance-warning window.
func ComputeStatus(lastEvent time.Time, hasLastEvent bool, frequencyDays, dueSoonDays int, today time.Time) (ScheduleStatus, time.Time) {
	if frequencyDays <= 0 {
		return StatusFrequencyError, time.Time{}
	}
	if !hasLastEvent || lastEvent.IsZero() {
		return StatusNoData, time.Time{}
	}

	nextDue := dateOnly(lastEvent).AddDate(0, 0, frequencyDays)
	days := int(nextDue.Sub(dateOnly(today)).Hours() / 24)
	switch {
	case days > dueSoonDays:
		return StatusNormal, nextDue
	case days > 0:
		return StatusComingDue, nextDue
	case days == 0:
		return StatusDue, nextDue
	default:
		return StatusOverdue, nextDue
	}
}

// EvaluateSchedule reads a sampling/cleaning/testing plan table and
// attaches status and next-due to every row. A cell can hold several
// event dates; the latest parseable one counts.
func EvaluateSchedule(t *Table, today time.Time, dueSoonDays int) []ScheduleEntry {
	entries := make([]ScheduleEntry, 0, len(t.Rows))
	for i := range t.Rows {
		e := ScheduleEntry{
			RowIndex:     i,
			Area:         t.Cell(i, "area"),
			Equipment:    t.Cell(i, "equipment"),
			Parameter:    t.Cell(i, "parameter"),
			Method:       t.Cell(i, "method"),
			Line:         t.Cell(i, "line"),
			FrequencyRaw: t.Cell(i, "frequency"),
			LastEventRaw: t.Cell(i, "lastEvent"),
		}
		if e.Equipment == "" && e.Area == "" && e.FrequencyRaw == "" {
			continue // blank padding row
		}

		if f, err := cast.ToFloat64E(e.FrequencyRaw); err == nil {
			e.FrequencyDays = int(f)
		}

		for _, tok := range SplitDateCell(e.LastEventRaw) {
			if d, ok := ParseScheduleDate(tok, today); ok {
				if !e.HasLastEvent || d.After(e.LastEventDate) {
					e.LastEventDate = d
					e.HasLastEvent = true
				}
			}
		}

		e.Status, e.NextDueDate = ComputeStatus(e.LastEventDate, e.HasLastEvent, e.FrequencyDays, dueSoonDays, today)
		entries = append(entries, e)
	}
	return entries
}

// DueEntries returns the rows needing attention, soonest first. Sentinel
// statuses are excluded here and surfaced by MissingDataEntries instead.
func DueEntries(entries []ScheduleEntry) []ScheduleEntry {
	var due []ScheduleEntry
	for _, e := range entries {
		switch e.Status {
		case StatusOverdue, StatusDue, StatusComingDue:
			due = append(due, e)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].NextDueDate.Before(due[j].NextDueDate)
	})
	return due
}

// MissingDataEntries returns rows with no usable last-event date, so the
// team can chase the records rather than mistake them for overdue work.
func MissingDataEntries(entries []ScheduleEntry) []ScheduleEntry {
	var missing []ScheduleEntry
	for _, e := range entries {
		if e.Status == StatusNoData {
			missing = append(missing, e)
		}
	}
	return missing
}

// StatusCounts tallies entries per status for the summary line.
func StatusCounts(entries []ScheduleEntry) map[ScheduleStatus]int {
	counts := make(map[ScheduleStatus]int)
	for _, e := range entries {
		counts[e.Status]++
	}
	return counts
}
