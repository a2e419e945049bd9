package main

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

var (
	slashDateRe     = regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4})`)
	monthAbbrDateRe = regexp.MustCompile(`(\d{1,2}-[A-Za-z]{3}-\d{4})`)
	dashDateRe      = regexp.MustCompile(`(\d{1,2}-\d{1,2}-\d{4})`)
	strictSlashRe   = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)
)

var monthAbbrs = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Excel serial dates count from the 1900 epoch and inherit its leap-year
// bug, so day 1 maps to 1899-12-31 minus one more day of drift.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

const suspiciousDateWindowDays = 730

// CleanConcatenatedDate repairs pathological cells where a date string was
// pasted repeatedly without separators ("11/04/202511/04/202511/04/2025").
// It prefers the first DD/MM/YYYY match that is not more than a year in the
// future, then falls back through alternate separators and a prefix slice.
func CleanConcatenatedDate(raw string) string {
	if matches := slashDateRe.FindAllString(raw, -1); len(matches) > 0 {
		limit := time.Now().AddDate(0, 0, 365)
		for _, m := range matches {
			if d, err := time.Parse("2/1/2006", m); err == nil && !d.After(limit) {
				return m
			}
		}
		return matches[0]
	}

	if matches := monthAbbrDateRe.FindAllString(raw, -1); len(matches) > 0 {
		return matches[0]
	}
	if matches := dashDateRe.FindAllString(raw, -1); len(matches) > 0 {
		return matches[0]
	}

	if len(raw) >= 11 && strings.Contains(raw, "-") {
		prefix := raw[:11]
		for _, m := range monthAbbrs {
			if strings.Contains(prefix, m) {
				return prefix
			}
		}
	}
	if len(raw) >= 10 && (strings.Contains(raw[:10], "/") || strings.Contains(raw[:10], "-")) {
		return raw[:10]
	}
	return raw
}

// StandardizeDate parses a heterogeneous raw date value: DD/MM/YYYY first,
// then MM/DD/YYYY, DD-Mon-YYYY variants, a day-first flexible pass, and an
// Excel serial path for purely numeric values. Returns ok=false instead of
// failing; one malformed row must not abort a batch.
func StandardizeDate(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return dateOnly(v), true
	case nil:
		return time.Time{}, false
	}

	s := strings.TrimSpace(cast.ToString(raw))
	if s == "" {
		return time.Time{}, false
	}

	// Excel date serials arrive as bare numbers.
	if serialRe.MatchString(s) {
		if serial, err := cast.ToFloat64E(s); err == nil && serial > 1 && serial < 50000 {
			return checkSuspicious(excelEpoch.AddDate(0, 0, int(serial))), true
		}
		return time.Time{}, false
	}

	if strictSlashRe.MatchString(s) {
		if d, err := time.Parse("2/1/2006", s); err == nil {
			return checkSuspicious(d), true
		}
		if d, err := time.Parse("1/2/2006", s); err == nil {
			return checkSuspicious(d), true
		}
		return time.Time{}, false
	}

	if strings.Contains(s, "-") {
		for _, layout := range []string{"2-Jan-2006", "2-January-2006", "2-Jan-06", "2-January-06"} {
			if d, err := time.Parse(layout, s); err == nil {
				return checkSuspicious(d), true
			}
		}
	}

	// Day-first flexible pass.
	for _, layout := range []string{
		"2/1/2006 15:04:05",
		"2/1/2006 15:04",
		"2-1-2006",
		"2006-01-02",
		"2006/01/02",
		"2/1/06",
		"January 2, 2006",
		"2 Jan 2006",
	} {
		if d, err := time.Parse(layout, s); err == nil {
			return checkSuspicious(dateOnly(d)), true
		}
	}
	return time.Time{}, false
}

var serialRe = regexp.MustCompile(`^\d+(\.\d+)?$`)

func checkSuspicious(d time.Time) time.Time {
	delta := time.Until(d)
	if delta > suspiciousDateWindowDays*24*time.Hour || delta < -suspiciousDateWindowDays*24*time.Hour {
		log.Printf("suspicious parsed date %s (more than %d days from today)", d.Format("2006-01-02"), suspiciousDateWindowDays)
	}
	return d
}

// ParseTime accepts "HH:MM", "22h" and bare integer hours.
func ParseTime(raw string) (TimeOfDay, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return TimeOfDay{}, false
	}

	if strings.Contains(s, ":") {
		parts := strings.SplitN(s, ":", 2)
		hour, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		min, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 != nil || err2 != nil {
			return TimeOfDay{}, false
		}
		return clockValid(hour, min)
	}

	if strings.Contains(s, "h") {
		hour, err := strconv.Atoi(strings.TrimSpace(strings.Split(s, "h")[0]))
		if err != nil {
			return TimeOfDay{}, false
		}
		return clockValid(hour, 0)
	}

	if hour, err := strconv.Atoi(s); err == nil {
		return clockValid(hour, 0)
	}
	return TimeOfDay{}, false
}

func clockValid(hour, min int) (TimeOfDay, bool) {
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return TimeOfDay{}, false
	}
	return TimeOfDay{Hour: hour, Minute: min}, true
}

// RoundToTwoHourBlock floors a time to the even hour the QA check grid uses.
func RoundToTwoHourBlock(t TimeOfDay) TimeOfDay {
	return TimeOfDay{Hour: (t.Hour / 2) * 2}
}

// ParseLotDate decodes a DDMMYY lot code prefix into a production date.
func ParseLotDate(lot string) (time.Time, bool) {
	lot = strings.TrimSpace(lot)
	if len(lot) < 6 {
		return time.Time{}, false
	}
	day, err1 := strconv.Atoi(lot[0:2])
	month, err2 := strconv.Atoi(lot[2:4])
	year, err3 := strconv.Atoi(lot[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(2000+year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

// ParseScheduleDate parses a last-event date from a schedule sheet. Cells
// sometimes carry quotes and two-digit years; a date in the future is
// rejected outright because it can never yield a sane recurrence.
func ParseScheduleDate(raw string, today time.Time) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `'"`)
	if s == "" {
		return time.Time{}, false
	}

	var parsed time.Time
	found := false
	for _, layout := range []string{"2/1/06", "1/2/06", "2-1-06"} {
		if d, err := time.Parse(layout, s); err == nil {
			parsed, found = pivotYear(d), true
			break
		}
	}
	if !found {
		for _, layout := range []string{
			"2/1/2006", "1/2/2006", "2006-01-02", "January 2, 2006", "2-1-2006",
		} {
			if d, err := time.Parse(layout, s); err == nil {
				parsed, found = d, true
				break
			}
		}
	}
	if !found {
		log.Printf("could not parse schedule date: %s", s)
		return time.Time{}, false
	}
	if dateOnly(parsed).After(dateOnly(today)) {
		log.Printf("rejecting future last-event date %s", parsed.Format("2006-01-02"))
		return time.Time{}, false
	}
	return parsed, true
}

// Two-digit years pivot at 30: 29 -> 2029, 31 -> 1931. Go's own pivot sits
// at 69, so re-base anything it pushed past the threshold.
func pivotYear(d time.Time) time.Time {
	yy := d.Year() % 100
	want := 1900 + yy
	if yy < 30 {
		want = 2000 + yy
	}
	return d.AddDate(want-d.Year(), 0, 0)
}

// SplitDateCell breaks a cell holding several dates (newlines, commas,
// spaces) into individual tokens.
func SplitDateCell(raw string) []string {
	cleaned := strings.NewReplacer("\n", " ", ",", " ").Replace(raw)
	var out []string
	for _, tok := range strings.Fields(cleaned) {
		out = append(out, strings.TrimSpace(tok))
	}
	return out
}

func dateOnly(value time.Time) time.Time {
	if value.IsZero() {
		return value
	}
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

func monthOf(d time.Time) int {
	if d.IsZero() {
		return 0
	}
	return int(d.Month())
}

func yearOf(d time.Time) int {
	if d.IsZero() {
		return 0
	}
	return d.Year()
}

func isoWeekOf(d time.Time) int {
	if d.IsZero() {
		return 0
	}
	_, week := d.ISOWeek()
	return week
}

func formatDateMMDDYYYY(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("01/02/2006")
}

func formatDateDDMMYYYY(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("02/01/2006")
}

func formatIntOrEmpty(v int) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%d", v)
}
