package sentiment

import (
	"context"
	"math"
	"strings"
)

var positiveWords = []string{
	"好看", "好听", "好评", "好活", "喜欢", "爱了", "爱死", "厉害", "牛逼", "牛",
	"棒", "优秀", "精彩", "感动", "支持", "哈哈", "开心", "快乐", "可爱", "绝了",
	"神作", "神曲", "封神", "太强", "强", "太好", "真好", "赞", "完美", "漂亮", "舒服", "治愈",
	"期待", "温柔", "帅", "美", "泪目", "加油", "感谢", "谢谢", "不错", "respect",
	"yyds", "awsl", "nb", "有趣", "有意思", "良心", "用心", "震撼", "燃", "高能",
	"上头", "惊艳", "满分", "经典", "值得", "推荐", "幸福", "甜", "妙", "笑死",
}

var negativeWords = []string{
	"难看", "难听", "垃圾", "讨厌", "恶心", "无聊", "失望", "差评", "烂", "尴尬",
	"辣眼睛", "生气", "难受", "拉胯", "离谱", "无语", "抄袭", "骗", "差",
	"丑", "烦", "退钱", "取关", "滚", "坑", "傻", "可惜", "伤心",
	"难过", "不好", "糟糕", "敷衍", "智障", "无趣", "劝退", "吐了",
	"下头", "翻车", "割韭菜", "遗憾", "痛苦", "心疼", "呵呵", "不行", "弱", "迷惑",
}

var negationWords = []string{"不", "没", "别", "无", "非", "未", "没有", "不是", "不太", "并不"}

var intensifierWords = map[string]float64{
	"很": 1.5, "太": 1.8, "非常": 1.8, "超": 1.6, "超级": 1.8, "真": 1.4,
	"特别": 1.6, "好": 1.3, "最": 1.8, "十分": 1.6, "巨": 1.6, "贼": 1.6,
	"有点": 0.6, "稍微": 0.5, "略": 0.6,
}

// negationReach is how many characters after a negation word a sentiment word is flipped
const negationReach = 3

// LexiconScorer scores short Chinese text offline from a polarity lexicon with negation
// and degree-adverb handling. Texts with no lexicon hits score exactly 0.5.
type LexiconScorer struct {
	polarity     map[string]float64
	negations    map[string]bool
	intensifiers map[string]float64
	maxLen       int
}

// NewLexiconScorer creates a scorer from the built-in lexicon, optionally extended with
// extra positive and negative words.
func NewLexiconScorer(extraPositive, extraNegative []string) *LexiconScorer {
	s := &LexiconScorer{
		polarity:     make(map[string]float64),
		negations:    make(map[string]bool),
		intensifiers: make(map[string]float64),
	}
	for _, w := range append(positiveWords, extraPositive...) {
		s.addPolarity(w, 1)
	}
	for _, w := range append(negativeWords, extraNegative...) {
		s.addPolarity(w, -1)
	}
	for _, w := range negationWords {
		s.negations[w] = true
		s.track(w)
	}
	for w, m := range intensifierWords {
		s.intensifiers[w] = m
		s.track(w)
	}
	return s
}

func (s *LexiconScorer) addPolarity(w string, v float64) {
	w = strings.ToLower(strings.TrimSpace(w))
	if w == "" {
		return
	}
	s.polarity[w] = v
	s.track(w)
}

func (s *LexiconScorer) track(w string) {
	if n := len([]rune(w)); n > s.maxLen {
		s.maxLen = n
	}
}

// Score implements Scorer
func (s *LexiconScorer) Score(_ context.Context, text string) (float64, error) {
	return squash(s.Raw(text)), nil
}

// Raw returns the unsquashed polarity sum of text
func (s *LexiconScorer) Raw(text string) float64 {
	runes := []rune(strings.ToLower(text))

	sum := 0.0
	boost := 1.0
	negateFor := 0

	for i := 0; i < len(runes); {
		w, n := s.longest(runes, i)
		if n == 0 {
			if negateFor > 0 {
				negateFor--
			}
			if !isCJK(runes[i]) {
				boost, negateFor = 1, 0
			}
			i++
			continue
		}

		switch {
		case s.polarity[w] != 0:
			v := s.polarity[w] * boost
			if negateFor > 0 {
				v = -v
			}
			sum += v
			boost, negateFor = 1, 0
		case s.negations[w]:
			negateFor = negationReach
		default:
			boost = s.intensifiers[w]
		}
		i += n
	}
	return sum
}

// longest returns the longest lexicon entry of any kind starting at i
func (s *LexiconScorer) longest(runes []rune, i int) (string, int) {
	max := s.maxLen
	if rest := len(runes) - i; rest < max {
		max = rest
	}
	for n := max; n > 0; n-- {
		w := string(runes[i : i+n])
		if s.polarity[w] != 0 || s.negations[w] {
			return w, n
		}
		if _, ok := s.intensifiers[w]; ok {
			return w, n
		}
	}
	return "", 0
}

func squash(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func isCJK(r rune) bool {
	return r >= 0x4e00 && r <= 0x9fff
}
