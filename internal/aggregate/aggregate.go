package aggregate

import (
	"sort"

	"sjsage522/bilisentiment/internal/sentiment"
)

// AllSentiments labels table rows computed over a whole scope without a sentiment split
const AllSentiments sentiment.Bucket = "all"

// Normalizer turns raw text into words
type Normalizer interface {
	Normalize(raw string, filterTerms ...string) []string
}

// WordCount is one counted word
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Counts is a word multiset that remembers first-seen order
type Counts struct {
	order []string
	index map[string]int
	total int
}

// NewCounts creates an empty multiset
func NewCounts() *Counts {
	return &Counts{index: make(map[string]int)}
}

// Add records one occurrence of each word
func (c *Counts) Add(words ...string) {
	for _, w := range words {
		if _, ok := c.index[w]; !ok {
			c.order = append(c.order, w)
		}
		c.index[w]++
		c.total++
	}
}

// Get returns the count for word
func (c *Counts) Get(word string) int { return c.index[word] }

// Len is the vocabulary size
func (c *Counts) Len() int { return len(c.order) }

// Total is the sum of all counts
func (c *Counts) Total() int { return c.total }

// Ranked returns every word by descending count, ties in first-seen order
func (c *Counts) Ranked() []WordCount {
	out := make([]WordCount, len(c.order))
	for i, w := range c.order {
		out[i] = WordCount{Word: w, Count: c.index[w]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Top returns at most n ranked words
func (c *Counts) Top(n int) []WordCount {
	ranked := c.Ranked()
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Aggregator counts words over normalized text
type Aggregator struct {
	norm    Normalizer
	filters []string
}

// New creates an aggregator; filterTerms are applied to every text it normalizes
func New(norm Normalizer, filterTerms ...string) *Aggregator {
	return &Aggregator{norm: norm, filters: filterTerms}
}

// Count normalizes texts in order and counts every token
func (a *Aggregator) Count(texts []string, extraFilters ...string) *Counts {
	filters := append(append([]string{}, a.filters...), extraFilters...)
	counts := NewCounts()
	for _, t := range texts {
		counts.Add(a.norm.Normalize(t, filters...)...)
	}
	return counts
}

// TopWords returns the n most frequent words across texts
func (a *Aggregator) TopWords(texts []string, n int, extraFilters ...string) []WordCount {
	if n <= 0 {
		return []WordCount{}
	}
	return a.Count(texts, extraFilters...).Top(n)
}

// PercentageRow is one line of a frequency table
type PercentageRow struct {
	Rank       int     `json:"rank"`
	Word       string  `json:"word"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// PercentageTable ranks every word of counts. Percentages are relative to the whole
// vocabulary, so a truncated table sums to less than 100.
func PercentageTable(counts *Counts) []PercentageRow {
	rows := []PercentageRow{}
	if counts == nil || counts.Total() == 0 {
		return rows
	}
	for i, wc := range counts.Ranked() {
		rows = append(rows, PercentageRow{
			Rank:       i + 1,
			Word:       wc.Word,
			Count:      wc.Count,
			Percentage: 100 * float64(wc.Count) / float64(counts.Total()),
		})
	}
	return rows
}

// WordFrequencyEntry is one ranked word for a (scope, sentiment) pair
type WordFrequencyEntry struct {
	Scope      string           `json:"scope"`
	Sentiment  sentiment.Bucket `json:"sentiment"`
	Word       string           `json:"word"`
	Frequency  int              `json:"frequency"`
	Rank       int              `json:"rank"`
	Percentage float64          `json:"percentage"`
}

// BuildTables produces the top-n rows of scope for every bucket of batch, followed by the
// rows over the whole scope labelled AllSentiments.
func (a *Aggregator) BuildTables(scope string, batch sentiment.Batch, n int) []WordFrequencyEntry {
	entries := []WordFrequencyEntry{}
	if n <= 0 {
		return entries
	}

	var all []string
	for _, s := range batch.Scored {
		all = append(all, s.Text)
	}

	for _, bucket := range append(append([]sentiment.Bucket{}, sentiment.Buckets...), AllSentiments) {
		texts := batch.Buckets[bucket]
		if bucket == AllSentiments {
			texts = all
		}
		for _, row := range top(PercentageTable(a.Count(texts)), n) {
			entries = append(entries, WordFrequencyEntry{
				Scope:      scope,
				Sentiment:  bucket,
				Word:       row.Word,
				Frequency:  row.Count,
				Rank:       row.Rank,
				Percentage: row.Percentage,
			})
		}
	}
	return entries
}

func top(rows []PercentageRow, n int) []PercentageRow {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}
