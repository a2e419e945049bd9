package main

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MatchTrace records the matcher's decisions step by step. Operators read
// these verbatim in the audit output to diagnose unmatched complaints, so
// the wording stays stable.
type MatchTrace []string

func (t *MatchTrace) Addf(format string, args ...any) {
	*t = append(*t, fmt.Sprintf(format, args...))
}

func (t MatchTrace) String() string {
	return strings.Join(t, " | ")
}

// matchOverride pins a complaint key to a named QA. These are one-off
// corrections for known bad reference data, not matching rules; keep the
// table short and date-scoped.
type matchOverride struct {
	Date    time.Time
	ItemHas string
	QA      string
	Note    string
}

var matchOverrides = []matchOverride{
	{
		Date:    time.Date(2025, 4, 26, 0, 0, 0, 0, time.UTC),
		ItemHas: "PRO CCT",
		QA:      "Hằng",
		Note:    "Special case for KKM PRO CCT on 26/04/2025",
	},
}

// Matcher resolves complaints against a read-only reference pool. Leaders
// maps shift-leader codes in the reference sheet to display names.
type Matcher struct {
	Pool    []ProductionRecord
	Leaders map[string]string
}

func (m *Matcher) mapLeader(raw string) string {
	if mapped, ok := m.Leaders[raw]; ok {
		return mapped
	}
	return raw
}

// Match finds at most one reference row for a complaint and explains how.
// It never fails; an unmatched complaint returns (nil, trace).
func (m *Matcher) Match(c ComplaintRecord) (*ProductionRecord, MatchTrace) {
	var trace MatchTrace

	if c.ProductionDate.IsZero() || c.ItemCode == "" || !c.HasTime {
		trace.Addf("Missing required data")
		return nil, trace
	}
	if c.ExtractedLine == 0 {
		trace.Addf("Missing line information")
		return nil, trace
	}

	hour, minute := c.ExtractedTime.Hour, c.ExtractedTime.Minute
	searchDate := dateOnly(c.ProductionDate)

	// Production logged after midnight is filed under the prior shift's
	// nominal date.
	if (hour < 6 || (hour == 6 && minute < 30)) && c.Shift == 3 {
		searchDate = searchDate.AddDate(0, 0, -1)
		trace.Addf("NIGHT SHIFT ADJUSTMENT: Looking for: Date=%s (adjusted from %s), Item=%s, Line=%d",
			formatDateDDMMYYYY(searchDate), formatDateDDMMYYYY(c.ProductionDate), c.ItemCode, c.ExtractedLine)
	} else {
		trace.Addf("Looking for: Date=%s, Item=%s, Line=%d",
			formatDateDDMMYYYY(searchDate), c.ItemCode, c.ExtractedLine)
	}

	dateItem := m.filter(func(r ProductionRecord) bool {
		return dateOnly(r.ProductionDate).Equal(searchDate) && r.ItemCode == c.ItemCode
	})
	trace.Addf("Date+Item matches: %d", len(dateItem))

	if len(dateItem) == 0 {
		dateOnlyCount := len(m.filter(func(r ProductionRecord) bool {
			return dateOnly(r.ProductionDate).Equal(searchDate)
		}))
		itemOnlyCount := len(m.filter(func(r ProductionRecord) bool {
			return r.ItemCode == c.ItemCode
		}))
		trace.Addf("Date-only matches: %d", dateOnlyCount)
		trace.Addf("Item-only matches: %d", itemOnlyCount)
		return nil, trace
	}

	rows := filterRecords(dateItem, func(r ProductionRecord) bool {
		return r.Line == c.ExtractedLine
	})
	trace.Addf("Date+Item+Line matches: %d", len(rows))

	if len(rows) == 0 {
		lines := map[int]bool{}
		for _, r := range dateItem {
			if r.Line != 0 {
				lines[r.Line] = true
			}
		}
		available := make([]int, 0, len(lines))
		for l := range lines {
			available = append(available, l)
		}
		sort.Ints(available)
		trace.Addf("Available lines for this date+item: %v", available)
		return nil, trace
	}

	rows = m.narrowByGroup(rows, c, &trace)
	rows = m.narrowByShiftCode(rows, c, &trace)

	var prevHour, nextHour int
	if minute == 0 && hour%2 == 0 {
		prevHour = hour
		nextHour = (hour + 2) % 24
	} else {
		prevHour = RoundToTwoHourBlock(c.ExtractedTime).Hour
		nextHour = (prevHour + 2) % 24
	}
	trace.Addf("Complaint at %d:%02d, checking %dh and %dh", hour, minute, prevHour, nextHour)

	prevCheck := filterRecords(rows, func(r ProductionRecord) bool {
		return r.HasTime && r.Time.Hour == prevHour && r.Time.Minute == 0
	})
	nextCheck := filterRecords(rows, func(r ProductionRecord) bool {
		return r.HasTime && r.Time.Hour == nextHour && r.Time.Minute == 0
	})
	trace.Addf("Prev hour (%dh) records: %d, Next hour (%dh) records: %d",
		prevHour, len(prevCheck), nextHour, len(nextCheck))

	times := map[string]bool{}
	for _, r := range rows {
		if r.HasTime {
			times[r.Time.String()] = true
		}
	}
	available := make([]string, 0, len(times))
	for s := range times {
		available = append(available, s)
	}
	sort.Strings(available)
	trace.Addf("Available times: %v", available)

	for _, ov := range matchOverrides {
		if !searchDate.Equal(ov.Date) || !strings.Contains(strings.ToUpper(c.ItemCode), ov.ItemHas) {
			continue
		}
		for i := range rows {
			if rows[i].QA == ov.QA {
				trace.Addf("%s", ov.Note)
				return &rows[i], trace
			}
		}
	}

	if len(prevCheck) > 0 {
		prev := &prevCheck[0]
		prevQA, prevLeader := prev.QA, m.mapLeader(prev.Leader)

		if len(nextCheck) > 0 {
			next := &nextCheck[0]
			nextQA, nextLeader := next.QA, m.mapLeader(next.Leader)

			if prevQA == nextQA && prevLeader == nextLeader {
				trace.Addf("Same QA (%s) and leader (%s) for both %dh and %dh",
					prevQA, prevLeader, prevHour, nextHour)
				return prev, trace
			}
			// The midnight check covers the tail of shift 3.
			if c.Shift == 3 && hour >= 22 {
				trace.Addf("Using next hour (%dh) QA (%s) and leader (%s) based on Shift 3 rule",
					nextHour, nextQA, nextLeader)
				return next, trace
			}
		}

		trace.Addf("Using previous hour (%dh) QA (%s) and leader (%s)", prevHour, prevQA, prevLeader)
		return prev, trace
	}

	if len(nextCheck) > 0 {
		next := &nextCheck[0]
		trace.Addf("Only next hour (%dh) data available - QA (%s) and leader (%s)",
			nextHour, next.QA, m.mapLeader(next.Leader))
		return next, trace
	}

	// Nearest time over the line-filtered pool; ties keep input order.
	var closest *ProductionRecord
	minDiff := -1
	complaintMinutes := c.ExtractedTime.Minutes()
	for i := range rows {
		if !rows[i].HasTime {
			continue
		}
		diff := rows[i].Time.Minutes() - complaintMinutes
		if diff < 0 {
			diff = -diff
		}
		if minDiff < 0 || diff < minDiff {
			minDiff = diff
			closest = &rows[i]
		}
	}
	if closest != nil {
		trace.Addf("Using closest time match at %s - QA (%s) and leader (%s)",
			closest.Time.String(), closest.QA, m.mapLeader(closest.Leader))
		return closest, trace
	}

	trace.Addf("No matching QA records found")
	return nil, trace
}

// Annotate runs Match and writes the outcome back onto the complaint.
func (m *Matcher) Annotate(c *ComplaintRecord) {
	matched, trace := m.Match(*c)
	c.Trace = trace
	if matched != nil {
		c.MatchedQA = matched.QA
		c.MatchedLeader = m.mapLeader(matched.Leader)
	}
}

// narrowByGroup keeps rows whose group codes can cover the complaint's.
// Group 1 crews also run group 2 (and 3 runs 4), so the complaint probes
// the canonical codes and rows are tested under their expansions. The
// filter is advisory: an empty intersection keeps the pool as-is rather
// than discarding an otherwise valid line match.
func (m *Matcher) narrowByGroup(rows []ProductionRecord, c ComplaintRecord, trace *MatchTrace) []ProductionRecord {
	if len(c.GroupCodes) == 0 {
		return rows
	}
	probe := map[int]bool{}
	for _, g := range c.GroupCodes {
		for _, p := range probeGroupCodes(g) {
			probe[p] = true
		}
	}

	sawCoded := false
	narrowed := filterRecords(rows, func(r ProductionRecord) bool {
		if len(r.GroupCodes) == 0 {
			return true
		}
		sawCoded = true
		for _, g := range r.GroupCodes {
			for _, e := range ExpandGroupCode(g) {
				if probe[e] {
					return true
				}
			}
		}
		return false
	})
	if !sawCoded {
		return rows
	}
	if len(narrowed) == 0 {
		trace.Addf("Group codes %v matched no rows, keeping %d", c.GroupCodes, len(rows))
		return rows
	}
	if len(narrowed) < len(rows) {
		trace.Addf("Group codes %v narrowed to %d rows", c.GroupCodes, len(narrowed))
	}
	return narrowed
}

// narrowByShiftCode tries the complaint time's candidate shift codes in
// priority order and keeps the first code with any rows. Like the group
// filter it never empties the pool.
func (m *Matcher) narrowByShiftCode(rows []ProductionRecord, c ComplaintRecord, trace *MatchTrace) []ProductionRecord {
	coded := false
	for _, r := range rows {
		if r.ShiftCode != 0 {
			coded = true
			break
		}
	}
	if !coded {
		return rows
	}

	for _, code := range CandidateShiftCodes(c.ExtractedTime) {
		narrowed := filterRecords(rows, func(r ProductionRecord) bool {
			return r.ShiftCode == code || r.ShiftCode == 0
		})
		hit := false
		for _, r := range narrowed {
			if r.ShiftCode == code {
				hit = true
				break
			}
		}
		if hit {
			if len(narrowed) < len(rows) {
				trace.Addf("Shift code %d narrowed to %d rows", code, len(narrowed))
			}
			return narrowed
		}
	}
	return rows
}

func (m *Matcher) filter(keep func(ProductionRecord) bool) []ProductionRecord {
	return filterRecords(m.Pool, keep)
}

func filterRecords(rows []ProductionRecord, keep func(ProductionRecord) bool) []ProductionRecord {
	var out []ProductionRecord
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
