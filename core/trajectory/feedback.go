package trajectory

import (
	"math"
	"slices"

	"github.com/huangsam/historian/schema"
)

// DeriveFeedback compares the risk maps of two consecutive analyses.
// Lower risk is rewarded, higher risk is penalized, and a file that vanished
// counts as resolved. The magnitude is round(|delta| * 10), at least 1.
// Files whose risk did not move yield no event. Events are sorted by filename.
func DeriveFeedback(prev, cur schema.RiskMap) []schema.Feedback {
	paths := make([]string, 0, len(prev))
	for p := range prev {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	feedback := []schema.Feedback{}
	for _, p := range paths {
		now, ok := cur[p]
		if !ok {
			feedback = append(feedback, schema.Feedback{Filename: p, Change: schema.Resolved, Reinforcement: 1})
			continue
		}
		switch delta := now.Risk - prev[p].Risk; {
		case delta < 0:
			feedback = append(feedback, schema.Feedback{Filename: p, Change: schema.RiskDown, Reinforcement: magnitude(delta)})
		case delta > 0:
			feedback = append(feedback, schema.Feedback{Filename: p, Change: schema.RiskUp, Reinforcement: -magnitude(delta)})
		}
	}
	return feedback
}

func magnitude(delta float64) int {
	return max(1, int(math.Round(math.Abs(delta)*10)))
}
