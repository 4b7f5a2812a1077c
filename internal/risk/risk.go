// Package risk turns a scan profile into a bounded heuristic score and a
// three-tier level.
package risk

import (
	"math"

	"github.com/kevin-ch-day/Nethira/internal/scan"
)

// Weights per counted signal and the score ceiling.
const (
	SuspiciousWeight = 1.0
	ExportedWeight   = 0.5
	ActionWeight     = 0.2
	MaxScore         = 10.0

	HighThreshold   = 7.0
	MediumThreshold = 4.0
)

// Level is the classification label.
type Level string

const (
	Low    Level = "LOW"
	Medium Level = "MEDIUM"
	High   Level = "HIGH"
)

// Assessment pairs a score with its level.
type Assessment struct {
	Score float64 `json:"score"`
	Level Level   `json:"level"`
}

// ScoreCounts computes the score from raw signal counts.
func ScoreCounts(suspicious, exported, actions int) float64 {
	s := float64(suspicious)*SuspiciousWeight +
		float64(exported)*ExportedWeight +
		float64(actions)*ActionWeight
	return math.Min(MaxScore, s)
}

// Score computes the score of a scan result.
func Score(r scan.Result) float64 {
	return ScoreCounts(len(r.Suspicious), len(r.ExportedComponents), len(r.IntentActions))
}

// Classify maps a score to its level.
func Classify(score float64) Level {
	switch {
	case score >= HighThreshold:
		return High
	case score >= MediumThreshold:
		return Medium
	default:
		return Low
	}
}

// Assess scores and classifies r.
func Assess(r scan.Result) Assessment {
	s := Score(r)
	return Assessment{Score: s, Level: Classify(s)}
}
