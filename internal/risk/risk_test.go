package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kevin-ch-day/Nethira/internal/scan"
)

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  Level
	}{
		{0, Low},
		{3.999, Low},
		{4.0, Medium},
		{6.999, Medium},
		{7.0, High},
		{10.0, High},
	}
	for _, tt := range tests {
		if got := Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestScoreCounts(t *testing.T) {
	assert.InDelta(t, 0.0, ScoreCounts(0, 0, 0), 1e-9)
	assert.InDelta(t, 2.9, ScoreCounts(2, 1, 2), 1e-9)
	assert.InDelta(t, 7.0, ScoreCounts(5, 4, 0), 1e-9)
	assert.Equal(t, MaxScore, ScoreCounts(12, 30, 50), "clamped")
}

func TestScoreMonotonic(t *testing.T) {
	for s := 0; s < 12; s++ {
		for e := 0; e < 12; e++ {
			for a := 0; a < 12; a++ {
				base := ScoreCounts(s, e, a)
				assert.LessOrEqual(t, base, MaxScore)
				assert.GreaterOrEqual(t, ScoreCounts(s+1, e, a), base)
				assert.GreaterOrEqual(t, ScoreCounts(s, e+1, a), base)
				assert.GreaterOrEqual(t, ScoreCounts(s, e, a+1), base)
			}
		}
	}
}

func TestAssess(t *testing.T) {
	r := scan.Empty("com.example")
	r.Suspicious = []string{"android.permission.CAMERA", "android.permission.READ_SMS"}
	r.ExportedComponents = []scan.ExportedComponent{{Kind: "activity", Name: ".Main"}}
	r.IntentActions = []string{"a", "b"}

	got := Assess(r)
	assert.InDelta(t, 2.9, got.Score, 1e-9)
	assert.Equal(t, Low, got.Level)

	assert.Equal(t, Assessment{Score: 0, Level: Low}, Assess(scan.Empty("com.example.empty")))
}
