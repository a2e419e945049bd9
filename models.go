package main

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time with minute precision. Production checks
// are logged on even hours; complaint times come from free text.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%d:%02d", t.Hour, t.Minute)
}

// Before reports whether t is strictly earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.Minutes() < other.Minutes()
}

// ComplaintRecord is one customer complaint line (KNKH sheet). Identity is
// the source row index; the matcher annotates MatchedQA/MatchedLeader/Trace
// in place and never deletes rows.
type ComplaintRecord struct {
	RowIndex int
	TicketID string

	ReceivedDate   time.Time // zero when unparseable
	ProductionDate time.Time // zero when unparseable

	Narrative        string
	ItemCode         string
	ProductName      string
	ShortProductName string
	Province         string
	Quantity         string
	DefectName       string
	DefectQty        string
	ResponsibleUnit  string

	GroupCodes []int

	ExtractedTime    TimeOfDay
	HasTime          bool
	ExtractedLine    int // 1-8, 0 when absent
	ExtractedMachine int // 0-9, -1 when absent
	PhoneNumber      string

	Shift         int // 1, 2 or 3; 0 when no time
	MatchedQA     string
	MatchedLeader string
	Trace         MatchTrace
}

// ProductionRecord is one reference AQL entry. (Date, ShiftCode, Line,
// GroupCodes) need not be unique; first match wins by input order.
type ProductionRecord struct {
	RowIndex int

	ProductionDate time.Time
	ShiftCode      int
	Line           int
	GroupCodes     []int

	Time    TimeOfDay
	HasTime bool

	ItemCode    string
	ProductName string
	QA          string
	Leader      string

	// Passthrough columns copied into match output untouched.
	Payload map[string]string
}

// ScheduleStatus buckets for recurring sampling/cleaning/testing tasks.
// "no data" and "frequency error" are deliberately distinct from "overdue":
// downstream reporting highlights only true overdue rows.
type ScheduleStatus int

const (
	StatusNormal ScheduleStatus = iota
	StatusComingDue
	StatusDue
	StatusOverdue
	StatusNoData
	StatusFrequencyError
)

func (s ScheduleStatus) String() string {
	switch s {
	case StatusNormal:
		return "Bình thường"
	case StatusComingDue:
		return "Sắp đến hạn"
	case StatusDue:
		return "Đến hạn"
	case StatusOverdue:
		return "Quá hạn"
	case StatusNoData:
		return "Chưa có dữ liệu"
	case StatusFrequencyError:
		return "Tần suất không hợp lệ"
	}
	return "?"
}

// ScheduleEntry is one row of a sampling/cleaning/testing plan.
type ScheduleEntry struct {
	RowIndex  int
	Area      string
	Equipment string
	Parameter string
	Method    string
	Line      string

	FrequencyRaw  string
	FrequencyDays int

	LastEventRaw  string
	LastEventDate time.Time
	HasLastEvent  bool

	NextDueDate time.Time
	Status      ScheduleStatus
}

// DaysUntilDue returns nextDueDate - today in whole days. Only meaningful
// for entries whose status is not a sentinel.
func (e ScheduleEntry) DaysUntilDue(today time.Time) int {
	return int(dateOnly(e.NextDueDate).Sub(dateOnly(today)).Hours() / 24)
}
