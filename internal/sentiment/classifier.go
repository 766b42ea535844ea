package sentiment

import (
	"context"
	"fmt"
	"math"
	"strings"

	"sjsage522/bilisentiment/logger"
	"sjsage522/bilisentiment/pkg/errors"
)

// Classifier scores texts and assigns buckets. A scorer failure on one text yields the
// neutral score for that text and never aborts a batch.
type Classifier struct {
	scorer     Scorer
	thresholds Thresholds
	log        *logger.Logger
}

// NewClassifier creates a classifier
func NewClassifier(scorer Scorer, thresholds Thresholds) *Classifier {
	return &Classifier{
		scorer:     scorer,
		thresholds: thresholds,
		log:        logger.ForClassifier(),
	}
}

// Thresholds returns the active threshold pair
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Classify scores text and returns its bucket and score
func (c *Classifier) Classify(ctx context.Context, text string) (Bucket, float64) {
	score := c.score(ctx, text)
	return c.thresholds.Bucket(score), score
}

func (c *Classifier) score(ctx context.Context, text string) float64 {
	score, err := c.scorer.Score(ctx, text)
	if err == nil && (math.IsNaN(score) || score < 0 || score > 1) {
		err = fmt.Errorf("score %v outside [0,1]", score)
	}
	if err != nil {
		c.log.Warn().
			Err(errors.NewScoring("text", "scorer failed, using neutral score", err)).
			Str("text", truncate(text, 40)).
			Msg("Sentiment scoring failed")
		return NeutralScore
	}
	return score
}

// Batch is the result of classifying a corpus
type Batch struct {
	Buckets map[Bucket][]string
	Scored  []ScoredText
}

// ClassifyAll partitions texts into buckets, preserving input order within each bucket.
// Blank texts are skipped entirely.
func (c *Classifier) ClassifyAll(ctx context.Context, texts []string) Batch {
	batch := Batch{Buckets: make(map[Bucket][]string, len(Buckets))}
	for _, b := range Buckets {
		batch.Buckets[b] = []string{}
	}

	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		bucket, score := c.Classify(ctx, text)
		batch.Buckets[bucket] = append(batch.Buckets[bucket], text)
		batch.Scored = append(batch.Scored, ScoredText{Text: text, Bucket: bucket, Score: score})
	}
	return batch
}

// Tally counts the batch per bucket
func (b Batch) Tally() Tally {
	counts := make(map[Bucket]int, len(Buckets))
	for _, bucket := range Buckets {
		counts[bucket] = len(b.Buckets[bucket])
	}
	return NewTally(counts)
}

// NewTally computes percentages for the given counts; all percentages are 0 when empty
func NewTally(counts map[Bucket]int) Tally {
	t := Tally{
		Counts:      make(map[Bucket]int, len(Buckets)),
		Percentages: make(map[Bucket]float64, len(Buckets)),
	}
	for _, bucket := range Buckets {
		t.Counts[bucket] = counts[bucket]
		t.Total += counts[bucket]
	}
	for _, bucket := range Buckets {
		if t.Total > 0 {
			t.Percentages[bucket] = 100 * float64(t.Counts[bucket]) / float64(t.Total)
		} else {
			t.Percentages[bucket] = 0
		}
	}
	return t
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
