package main

import (
	"sort"

	"github.com/spf13/cast"
)

const (
	anomalyRatioThreshold = 2.0
	anomalyMinObserved    = 5
)

// CategoryCount is one value of a categorical column with its tally.
type CategoryCount struct {
	Value string
	Count int
}

// CountByCategory tallies non-empty values, most frequent first, ties by
// value so output is stable across runs.
func CountByCategory(values []string) []CategoryCount {
	tally := make(map[string]int)
	for _, v := range values {
		if v != "" {
			tally[v]++
		}
	}
	out := make([]CategoryCount, 0, len(tally))
	for v, n := range tally {
		out = append(out, CategoryCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

func topN(counts []CategoryCount, n int) []CategoryCount {
	if n > 0 && len(counts) > n {
		return counts[:n]
	}
	return counts
}

// UnusualCombination is a pair of category values occurring together far
// more often than the marginals predict under independence.
type UnusualCombination struct {
	A        string
	B        string
	Observed int
	Expected float64
}

// FindUnusualCombinations flags pairs observed at least anomalyMinObserved
// times and more than anomalyRatioThreshold times their expected count
// (marginalA * marginalB / total). This is a screening heuristic for the
// weekly review, not a significance test.
func FindUnusualCombinations(pairs [][2]string) []UnusualCombination {
	marginalA := make(map[string]int)
	marginalB := make(map[string]int)
	joint := make(map[[2]string]int)
	total := 0
	for _, p := range pairs {
		if p[0] == "" || p[1] == "" {
			continue
		}
		marginalA[p[0]]++
		marginalB[p[1]]++
		joint[p]++
		total++
	}
	if total == 0 {
		return nil
	}

	var out []UnusualCombination
	for p, observed := range joint {
		if observed < anomalyMinObserved {
			continue
		}
		expected := float64(marginalA[p[0]]) * float64(marginalB[p[1]]) / float64(total)
		if float64(observed) > anomalyRatioThreshold*expected {
			out = append(out, UnusualCombination{A: p[0], B: p[1], Observed: observed, Expected: expected})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Observed != out[j].Observed {
			return out[i].Observed > out[j].Observed
		}
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// ComplaintSummary is the aggregate view of one reconciliation run.
type ComplaintSummary struct {
	TotalComplaints int
	Matched         int
	Unmatched       int
	TotalDefectQty  float64

	TopDefects []CategoryCount
	ByProduct  []CategoryCount
	ByProvince []CategoryCount
	ByLine     []CategoryCount
	ByShift    []CategoryCount
	Unusual    []UnusualCombination
}

// SummarizeComplaints builds the aggregate counts the report and the
// Slack notification are rendered from.
func SummarizeComplaints(records []ComplaintRecord, top int) ComplaintSummary {
	s := ComplaintSummary{TotalComplaints: len(records)}

	defects := make([]string, 0, len(records))
	products := make([]string, 0, len(records))
	provinces := make([]string, 0, len(records))
	lines := make([]string, 0, len(records))
	shifts := make([]string, 0, len(records))
	pairs := make([][2]string, 0, len(records))

	for _, r := range records {
		if r.MatchedQA != "" {
			s.Matched++
		} else {
			s.Unmatched++
		}
		if qty, err := cast.ToFloat64E(r.DefectQty); err == nil {
			s.TotalDefectQty += qty
		}
		defects = append(defects, r.DefectName)
		name := r.ShortProductName
		if name == "" {
			name = r.ProductName
		}
		products = append(products, name)
		provinces = append(provinces, r.Province)
		lines = append(lines, formatIntOrEmpty(r.ExtractedLine))
		shifts = append(shifts, formatIntOrEmpty(r.Shift))
		if name != "" && r.DefectName != "" {
			pairs = append(pairs, [2]string{name, r.DefectName})
		}
	}

	s.TopDefects = topN(CountByCategory(defects), top)
	s.ByProduct = topN(CountByCategory(products), top)
	s.ByProvince = topN(CountByCategory(provinces), top)
	s.ByLine = CountByCategory(lines)
	s.ByShift = CountByCategory(shifts)
	s.Unusual = FindUnusualCombinations(pairs)
	return s
}
