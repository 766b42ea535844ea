package text

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	urlPattern        = regexp.MustCompile(`(?i)(https?://|www\.)[a-z0-9\-._~:/?#@!$&'()*+,;=%]+`)
	// nested replies open with "回复 @name :", where name may be CJK but always ends at the colon
	replyToPattern    = regexp.MustCompile(`回复\s*@[^\s@:：]+\s*[:：]`)
	// a bare mention stops at the first non-ASCII-word rune so adjoining CJK text survives
	mentionPattern    = regexp.MustCompile(`@[\w\-]+`)
	annotationPattern = regexp.MustCompile(`\[[^\[\]]*\]|【[^【】]*】`)
	disallowedPattern = regexp.MustCompile(`[^\p{Han}a-zA-Z0-9\s]+`)
	spacePattern      = regexp.MustCompile(`\s+`)
)

// Options configures a Normalizer
type Options struct {
	// ExtraStopwords supplement the baseline stopword set
	ExtraStopwords []string
	// MinRunes drops tokens shorter than this many characters; 0 means 2
	MinRunes int
}

// Normalizer cleans short social text and turns it into a bag of words
type Normalizer struct {
	seg       Segmenter
	stopwords Stopwords
	minRunes  int
}

// NewNormalizer creates a Normalizer. Each Normalizer owns its stopword set.
func NewNormalizer(seg Segmenter, opts Options) *Normalizer {
	if seg == nil {
		seg = Whitespace
	}
	stop := DefaultStopwords()
	stop.Add(opts.ExtraStopwords...)

	minRunes := opts.MinRunes
	if minRunes <= 0 {
		minRunes = 2
	}
	return &Normalizer{seg: seg, stopwords: stop, minRunes: minRunes}
}

// Clean strips URLs, @mentions, bracketed emote codes and every character other than
// CJK ideographs, ASCII letters, digits and whitespace.
func Clean(raw string) string {
	s := urlPattern.ReplaceAllString(raw, " ")
	s = replyToPattern.ReplaceAllString(s, " ")
	s = mentionPattern.ReplaceAllString(s, " ")
	s = annotationPattern.ReplaceAllString(s, " ")
	s = disallowedPattern.ReplaceAllString(s, " ")
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Normalize cleans raw and returns its words in order. Stopwords, tokens shorter than the
// configured minimum, and tokens containing any of filterTerms (case-insensitive) are
// dropped.
func (n *Normalizer) Normalize(raw string, filterTerms ...string) []string {
	cleaned := Clean(raw)
	if cleaned == "" {
		return nil
	}

	filters := lowerAll(filterTerms)

	var tokens []string
	for _, tok := range n.seg.Cut(cleaned) {
		tok = strings.TrimSpace(tok)
		if utf8.RuneCountInString(tok) < n.minRunes {
			continue
		}
		if n.stopwords.Contains(tok) || containsAny(strings.ToLower(tok), filters) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func lowerAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func containsAny(tok string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(tok, t) {
			return true
		}
	}
	return false
}
