package models

import (
	"fmt"
	"math"
)

// BatchProgress is the derived progress snapshot of a batch job's children.
// Invariant: Succeeded + Failed <= Total.
type BatchProgress struct {
	Total     int64 `json:"total"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
}

// NewBatchProgress builds a progress snapshot, validating the count invariants.
func NewBatchProgress(total, succeeded, failed int64) (*BatchProgress, error) {
	if total < 0 || succeeded < 0 || failed < 0 {
		return nil, fmt.Errorf("batch progress counts must not be negative (total=%d succeeded=%d failed=%d)",
			total, succeeded, failed)
	}
	if succeeded+failed > total {
		return nil, fmt.Errorf("batch progress succeeded+failed (%d) exceeds total (%d)",
			succeeded+failed, total)
	}
	return &BatchProgress{Total: total, Succeeded: succeeded, Failed: failed}, nil
}

// Pending returns the number of children not yet in a terminal state.
func (p *BatchProgress) Pending() int64 {
	return p.Total - p.Succeeded - p.Failed
}

// Processed returns the number of children in a terminal state.
func (p *BatchProgress) Processed() int64 {
	return p.Succeeded + p.Failed
}

// Progress returns completion as a percentage rounded to one decimal place.
// A batch with no children reports 0.
func (p *BatchProgress) Progress() float64 {
	if p.Total == 0 {
		return 0.0
	}
	pct := float64(p.Succeeded+p.Failed) / float64(p.Total) * 100.0
	return math.Round(pct*10.0) / 10.0
}

func (p *BatchProgress) String() string {
	return fmt.Sprintf("BatchProgress{total=%d succeeded=%d failed=%d pending=%d progress=%.1f%%}",
		p.Total, p.Succeeded, p.Failed, p.Pending(), p.Progress())
}
