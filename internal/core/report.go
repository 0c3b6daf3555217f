package core

import (
	"fmt"
	"sort"
)

// Correction is one repair applied to a cell, or to a whole row when Column
// is WildcardColumn.
type Correction struct {
	Column string         `json:"column"`
	Kind   CorrectionKind `json:"kind"`
}

// CorrectionReport accumulates the corrections applied during a cleaning run.
// Counters always equal the number of corrections of the matching kind.
type CorrectionReport struct {
	Corrections map[RowID][]Correction `json:"corrections"`
	Counters    map[string]int         `json:"counters"`
}

// NewCorrectionReport returns an empty report with every known counter at zero.
func NewCorrectionReport() *CorrectionReport {
	r := &CorrectionReport{
		Corrections: make(map[RowID][]Correction),
		Counters:    make(map[string]int, len(CounterKeys)),
	}
	for _, k := range CounterKeys {
		r.Counters[k] = 0
	}
	return r
}

// Record appends a correction for a row and bumps the matching counter.
func (r *CorrectionReport) Record(id RowID, column string, kind CorrectionKind) {
	r.Corrections[id] = append(r.Corrections[id], Correction{Column: column, Kind: kind})
	if name := counterFor(kind); name != "" {
		r.Counters[name]++
	}
}

// Merge appends other's corrections after r's, row by row, and sums counters.
// Keys absent from either side count as zero.
func (r *CorrectionReport) Merge(other *CorrectionReport) {
	if other == nil {
		return
	}
	for id, list := range other.Corrections {
		r.Corrections[id] = append(r.Corrections[id], list...)
	}
	for k, v := range other.Counters {
		r.Counters[k] += v
	}
}

// Total returns the number of corrections across all rows.
func (r *CorrectionReport) Total() int {
	n := 0
	for _, list := range r.Corrections {
		n += len(list)
	}
	return n
}

// Empty reports whether no correction has been recorded.
func (r *CorrectionReport) Empty() bool {
	return r.Total() == 0
}

// Rows returns the corrected row IDs in ascending order.
func (r *CorrectionReport) Rows() []RowID {
	ids := make([]RowID, 0, len(r.Corrections))
	for id := range r.Corrections {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Check verifies that every counter is non-negative and matches the number
// of corrections of its kind.
func (r *CorrectionReport) Check() error {
	want := make(map[string]int, len(CounterKeys))
	for _, list := range r.Corrections {
		for _, c := range list {
			want[counterFor(c.Kind)]++
		}
	}
	for k, v := range r.Counters {
		if v < 0 {
			return fmt.Errorf("counter %s is negative: %d", k, v)
		}
		if v != want[k] {
			return fmt.Errorf("counter %s = %d, but %d corrections recorded", k, v, want[k])
		}
	}
	for k, v := range want {
		if _, ok := r.Counters[k]; !ok && v > 0 {
			return fmt.Errorf("counter %s missing for %d corrections", k, v)
		}
	}
	return nil
}
