package text

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// baselineStopwords are function words and filler common in danmaku and comments
var baselineStopwords = []string{
	"的", "了", "是", "在", "我", "你", "他", "她", "它", "们",
	"这", "那", "有", "和", "就", "不", "也", "都", "要", "会",
	"可以", "没有", "什么", "一个", "我们", "你们", "自己", "他们", "没", "很",
	"到", "说", "对", "吗", "啊", "呢", "吧", "嗯", "哦", "呀",
	"嘛", "哎", "唉", "把", "被", "让", "给", "从", "去", "来",
	"个", "人", "还", "能", "看", "想", "知道", "时候", "现在", "因为",
	"所以", "但是", "如果", "这个", "那个", "已经", "可能", "应该", "怎么", "为什么",
	"这样", "那样", "一下", "一些", "然后", "或者", "而且", "虽然", "不过", "只是",
	"其实", "觉得", "比较", "一样", "就是", "还是", "这么", "那么", "真的", "回复",
	"the", "a", "an", "and", "is", "are", "to", "of", "in", "it",
}

// Stopwords is a case-insensitive word set
type Stopwords map[string]struct{}

// DefaultStopwords returns a fresh copy of the baseline set
func DefaultStopwords() Stopwords {
	s := make(Stopwords, len(baselineStopwords))
	s.Add(baselineStopwords...)
	return s
}

// Add inserts words into the set
func (s Stopwords) Add(words ...string) {
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			s[w] = struct{}{}
		}
	}
}

// Contains reports whether word is a stopword, ignoring case
func (s Stopwords) Contains(word string) bool {
	_, ok := s[strings.ToLower(word)]
	return ok
}

// ReadStopwords reads one word per line; blank lines and lines starting with # are ignored
func ReadStopwords(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words, scanner.Err()
}

// LoadStopwordsFile reads a stopword file, see ReadStopwords
func LoadStopwordsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadStopwords(f)
}
