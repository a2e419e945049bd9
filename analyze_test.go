package main

import (
	"testing"
)

func TestCountByCategory(t *testing.T) {
	counts := CountByCategory([]string{"vỡ vụn", "sợi đen", "vỡ vụn", "", "sợi đen", "vỡ vụn"})
	if len(counts) != 2 {
		t.Fatalf("empty values should be dropped, got %v", counts)
	}
	if counts[0].Value != "vỡ vụn" || counts[0].Count != 3 {
		t.Fatalf("most frequent first, got %v", counts)
	}

	// Equal counts order by value for stable output.
	tied := CountByCategory([]string{"b", "a"})
	if tied[0].Value != "a" {
		t.Fatalf("ties should sort by value, got %v", tied)
	}
}

func TestFindUnusualCombinations(t *testing.T) {
	var pairs [][2]string
	for i := 0; i < 5; i++ {
		pairs = append(pairs, [2]string{"Omachi", "vỡ vụn"})
	}
	for i := 0; i < 3; i++ {
		pairs = append(pairs, [2]string{"Kokomi", "sợi đen"})
		pairs = append(pairs, [2]string{"Kokomi", "thiếu gói"})
		pairs = append(pairs, [2]string{"Chinsu", "sợi đen"})
		pairs = append(pairs, [2]string{"Chinsu", "thiếu gói"})
	}

	unusual := FindUnusualCombinations(pairs)
	if len(unusual) != 1 {
		t.Fatalf("want exactly one flagged combination, got %v", unusual)
	}
	u := unusual[0]
	if u.A != "Omachi" || u.B != "vỡ vụn" || u.Observed != 5 {
		t.Fatalf("wrong combination flagged: %+v", u)
	}
	if u.Expected >= float64(u.Observed)/anomalyRatioThreshold {
		t.Fatalf("flagged pair should exceed twice the expected count: %+v", u)
	}
}

func TestFindUnusualCombinationsMinObserved(t *testing.T) {
	pairs := [][2]string{
		{"Omachi", "vỡ vụn"}, {"Omachi", "vỡ vụn"},
		{"Kokomi", "sợi đen"}, {"Chinsu", "thiếu gói"},
	}
	if got := FindUnusualCombinations(pairs); got != nil {
		t.Fatalf("pairs below the observation floor must not be flagged: %v", got)
	}
	if got := FindUnusualCombinations(nil); got != nil {
		t.Fatalf("empty input: %v", got)
	}
}

func TestSummarizeComplaints(t *testing.T) {
	records := []ComplaintRecord{
		{ProductName: "Mì Omachi sườn 30gói x 90gr", ShortProductName: "Omachi sườn", DefectName: "vỡ vụn", DefectQty: "2", MatchedQA: "Lan", ExtractedLine: 2, Shift: 1},
		{ProductName: "Mì Omachi sườn 30gói x 90gr", ShortProductName: "Omachi sườn", DefectName: "vỡ vụn", DefectQty: "3.5", ExtractedLine: 2, Shift: 2},
		{ProductName: "Mì Kokomi đại", DefectName: "sợi đen", DefectQty: "x", MatchedQA: "Mai", ExtractedLine: 3, Shift: 1},
	}

	s := SummarizeComplaints(records, 5)
	if s.TotalComplaints != 3 || s.Matched != 2 || s.Unmatched != 1 {
		t.Fatalf("headline counts wrong: %+v", s)
	}
	if s.TotalDefectQty != 5.5 {
		t.Fatalf("defect qty should skip non-numeric cells, got %v", s.TotalDefectQty)
	}
	if s.TopDefects[0].Value != "vỡ vụn" || s.TopDefects[0].Count != 2 {
		t.Fatalf("top defect wrong: %v", s.TopDefects)
	}
	// Short name preferred, full name as fallback.
	if s.ByProduct[0].Value != "Omachi sườn" {
		t.Fatalf("short product name should be used: %v", s.ByProduct)
	}
	foundFull := false
	for _, c := range s.ByProduct {
		if c.Value == "Mì Kokomi đại" {
			foundFull = true
		}
	}
	if !foundFull {
		t.Fatalf("full name fallback missing: %v", s.ByProduct)
	}
}
