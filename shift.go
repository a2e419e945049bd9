package main

import (
	"strings"

	"github.com/spf13/cast"
)

// Shift boundaries. Handover happens on the half hour, so complaint
// classification uses 6:30/14:30/22:30; the reference sheet logs whole
// shifts and uses the coarse 6/14/22 grid.
var (
	shift1Start = TimeOfDay{Hour: 6, Minute: 30}
	shift2Start = TimeOfDay{Hour: 14, Minute: 30}
	shift3Start = TimeOfDay{Hour: 22, Minute: 30}
)

// DetermineShift classifies a complaint production time into shift 1, 2
// or 3. Times before 6:30 belong to the previous day's shift 3.
func DetermineShift(t TimeOfDay) int {
	switch {
	case !t.Before(shift1Start) && t.Before(shift2Start):
		return 1
	case !t.Before(shift2Start) && t.Before(shift3Start):
		return 2
	default:
		return 3
	}
}

// ShiftOfHour is the coarse whole-hour variant used against the
// reference sheet's own shift column.
func ShiftOfHour(hour int) int {
	switch {
	case hour >= 6 && hour < 14:
		return 1
	case hour >= 14 && hour < 22:
		return 2
	default:
		return 3
	}
}

// CandidateShiftCodes lists the shift-column values a production time can
// legitimately appear under. The sheet mixes plain shifts (1/2/3) with
// combined codes (14 covers shifts 1+2 day crews, 34 covers the late
// crews), so afternoon hours probe both.
func CandidateShiftCodes(t TimeOfDay) []int {
	h := t.Hour
	switch {
	case h >= 6 && h < 14:
		return []int{1, 14}
	case h >= 14 && h < 18:
		return []int{2, 14}
	case h >= 18 && h < 22:
		return []int{2, 34}
	default:
		return []int{3, 34}
	}
}

// ExpandGroupCode maps a reference-row group code to every complaint
// group it covers: crew 1 also runs group 2, crew 3 also runs group 4.
func ExpandGroupCode(code int) []int {
	switch code {
	case 1:
		return []int{1, 2}
	case 3:
		return []int{3, 4}
	default:
		return []int{code}
	}
}

// probeGroupCodes is the complaint-side inverse of ExpandGroupCode: a
// complaint tagged group 2 must also probe rows logged under group 1.
func probeGroupCodes(code int) []int {
	switch code {
	case 2:
		return []int{1, 2}
	case 4:
		return []int{3, 4}
	default:
		return []int{code}
	}
}

// ParseGroupCodes reads a group cell, tolerating comma lists ("1,2") and
// float renderings ("2.0").
func ParseGroupCodes(cell string) []int {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	var out []int
	for _, tok := range strings.Split(cell, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		f, err := cast.ToFloat64E(tok)
		if err != nil {
			continue
		}
		out = append(out, int(f))
	}
	return out
}
