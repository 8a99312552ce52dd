package table

import (
	"cmp"
	"slices"
)

// ActiveBins returns the indices of the bins that are rendered, in
// ascending order. The slice is owned by the table.
func (t *Table) ActiveBins() []int {
	return t.active
}

// ApplyThreshold deactivates every bin whose envelope peak is below level.
func (t *Table) ApplyThreshold(level float32) {
	t.threshold = level
	t.RefreshActiveBins()
}

// LimitActiveBins keeps at most n of the loudest bins active.
// n <= 0 removes the limit.
func (t *Table) LimitActiveBins(n int) {
	t.limit = max(n, 0)
	t.RefreshActiveBins()
}

// UnlimitActiveBins removes the limit set by LimitActiveBins.
func (t *Table) UnlimitActiveBins() {
	t.LimitActiveBins(0)
}

// RefreshActiveBins recomputes the active bin list from the current
// threshold and limit.
func (t *Table) RefreshActiveBins() {
	t.active = t.active[:0]
	peaks := make([]float32, len(t.Bins))
	for i := range t.Bins {
		peaks[i] = envelopePeak(t.Bins[i].Envelope)
		if t.threshold > 0 && peaks[i] < t.threshold {
			continue
		}
		t.active = append(t.active, i)
	}

	if t.limit == 0 || len(t.active) <= t.limit {
		return
	}
	slices.SortStableFunc(t.active, func(a, b int) int {
		return cmp.Compare(peaks[b], peaks[a])
	})
	t.active = t.active[:t.limit]
	slices.Sort(t.active)
}

// Threshold returns the level set by ApplyThreshold.
func (t *Table) Threshold() float32 {
	return t.threshold
}

// Limit returns the bin limit set by LimitActiveBins, or 0.
func (t *Table) Limit() int {
	return t.limit
}
