package sentiment

import "context"

// Bucket is a coarse sentiment category
type Bucket string

const (
	Positive Bucket = "positive"
	Neutral  Bucket = "neutral"
	Negative Bucket = "negative"
)

// Buckets lists every bucket in reporting order
var Buckets = []Bucket{Positive, Neutral, Negative}

// NeutralScore is substituted when a scorer fails
const NeutralScore = 0.5

// Scorer returns the probability in [0,1] that text is positive
type Scorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// ScorerFunc adapts a plain function to Scorer
type ScorerFunc func(ctx context.Context, text string) (float64, error)

// Score implements Scorer
func (f ScorerFunc) Score(ctx context.Context, text string) (float64, error) { return f(ctx, text) }

// Thresholds splits scores into buckets. Both bounds are exclusive: a score equal to
// either bound is neutral.
type Thresholds struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
}

// DefaultThresholds is the three-way 0.65 / 0.35 split
var DefaultThresholds = Thresholds{Positive: 0.65, Negative: 0.35}

// Bucket maps a score to its bucket
func (t Thresholds) Bucket(score float64) Bucket {
	switch {
	case score > t.Positive:
		return Positive
	case score < t.Negative:
		return Negative
	default:
		return Neutral
	}
}

// ScoredText is one classified input
type ScoredText struct {
	Text   string  `json:"text"`
	Bucket Bucket  `json:"sentiment"`
	Score  float64 `json:"score"`
}

// Tally holds three-way counts and their percentages of Total
type Tally struct {
	Counts      map[Bucket]int     `json:"counts"`
	Percentages map[Bucket]float64 `json:"percentages"`
	Total       int                `json:"total"`
}
