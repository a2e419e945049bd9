package main

import (
	"reflect"
	"testing"
)

func TestDetermineShiftBoundaries(t *testing.T) {
	cases := []struct {
		hour, minute, want int
	}{
		{6, 30, 1},
		{14, 29, 1},
		{14, 30, 2},
		{22, 29, 2},
		{22, 30, 3},
		{2, 0, 3},
		{6, 29, 3},
		{0, 0, 3},
	}
	for _, c := range cases {
		got := DetermineShift(TimeOfDay{Hour: c.hour, Minute: c.minute})
		if got != c.want {
			t.Fatalf("DetermineShift(%d:%02d) = %d, want %d", c.hour, c.minute, got, c.want)
		}
	}
}

func TestShiftOfHourPartitionsDay(t *testing.T) {
	counts := map[int]int{}
	for hour := 0; hour < 24; hour++ {
		s := ShiftOfHour(hour)
		if s < 1 || s > 3 {
			t.Fatalf("hour %d fell outside shifts: %d", hour, s)
		}
		counts[s]++
	}
	if counts[1] != 8 || counts[2] != 8 || counts[3] != 8 {
		t.Fatalf("shifts should cover 8 hours each, got %v", counts)
	}
}

func TestCandidateShiftCodes(t *testing.T) {
	cases := []struct {
		hour int
		want []int
	}{
		{7, []int{1, 14}},
		{15, []int{2, 14}},
		{19, []int{2, 34}},
		{23, []int{3, 34}},
		{3, []int{3, 34}},
	}
	for _, c := range cases {
		got := CandidateShiftCodes(TimeOfDay{Hour: c.hour})
		if !reflect.DeepEqual(got, c.want) {
			t.Fatalf("CandidateShiftCodes(hour %d) = %v, want %v", c.hour, got, c.want)
		}
	}
}

func TestExpandGroupCode(t *testing.T) {
	if got := ExpandGroupCode(1); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("expand 1 = %v", got)
	}
	if got := ExpandGroupCode(3); !reflect.DeepEqual(got, []int{3, 4}) {
		t.Fatalf("expand 3 = %v", got)
	}
	if got := ExpandGroupCode(2); !reflect.DeepEqual(got, []int{2}) {
		t.Fatalf("expand 2 = %v", got)
	}

	// Every code must be a member of its own expansion.
	for code := 1; code <= 6; code++ {
		found := false
		for _, c := range ExpandGroupCode(code) {
			if c == code {
				found = true
			}
		}
		if !found {
			t.Fatalf("code %d missing from its own expansion", code)
		}
	}
}

func TestProbeGroupCodes(t *testing.T) {
	if got := probeGroupCodes(2); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("probe 2 = %v", got)
	}
	if got := probeGroupCodes(4); !reflect.DeepEqual(got, []int{3, 4}) {
		t.Fatalf("probe 4 = %v", got)
	}
	if got := probeGroupCodes(1); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("probe 1 = %v", got)
	}
}

func TestParseGroupCodes(t *testing.T) {
	if got := ParseGroupCodes("1,2"); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("comma list = %v", got)
	}
	if got := ParseGroupCodes("2.0"); !reflect.DeepEqual(got, []int{2}) {
		t.Fatalf("float rendering = %v", got)
	}
	if got := ParseGroupCodes(""); got != nil {
		t.Fatalf("empty cell = %v", got)
	}
	if got := ParseGroupCodes("1, x, 3"); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Fatalf("junk token should be skipped, got %v", got)
	}
}
