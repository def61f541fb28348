package inference

import "math"

// Result is the outcome of a single inference: the top label, its confidence
// as a percentage, and the full per-label confidence table. Results are
// ephemeral; the history ledger persists only the top label and confidence.
type Result struct {
	Label       Label             `json:"label"`
	Confidence  float64           `json:"confidence"`
	Confidences map[Label]float64 `json:"confidences"`
}

// Resolve converts a raw score vector into a ranked Result. The top label is
// the maximum score, ties broken by lowest index so resolution stays
// deterministic. Every confidence is score*100 rounded to two decimals; the
// top confidence is rounded once from the raw score, never re-derived from
// the rounded table.
func Resolve(scores []float32, labels []Label) (*Result, error) {
	if len(scores) != len(labels) || len(scores) == 0 {
		return nil, ErrScoreMismatch
	}

	top := 0
	for i, s := range scores {
		if s > scores[top] {
			top = i
		}
	}

	confidences := make(map[Label]float64, len(labels))
	for i, label := range labels {
		confidences[label] = round2(float64(scores[i]) * 100)
	}

	return &Result{
		Label:       labels[top],
		Confidence:  round2(float64(scores[top]) * 100),
		Confidences: confidences,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
