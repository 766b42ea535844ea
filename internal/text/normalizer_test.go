package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	assert.Equal(t, "的 真好看", Clean("[doge]http://x.com 的 真好看@user"))
	assert.Equal(t, "哈哈 awsl 233", Clean("哈哈！！awsl～233【笑哭】"))
	assert.Equal(t, "前排", Clean("www.bilibili.com/video/BV1xx 前排"))
	assert.Equal(t, "", Clean("[打call][doge] ……"))
	assert.Equal(t, "", Clean("   "))
}

func TestCleanKeepsTextAfterMention(t *testing.T) {
	assert.Equal(t, "真好看", Clean("@user真好看"))
	assert.Equal(t, "同意 太对了", Clean("@bili_fan-01 同意，@abc太对了"))
	assert.Equal(t, "说得好", Clean("回复 @小明同学 :说得好"))
	assert.Equal(t, "笑死", Clean("回复 @路人甲：笑死"))
}

func TestNormalizeDropsNoise(t *testing.T) {
	n := NewNormalizer(Whitespace, Options{})

	tokens := n.Normalize("[doge]http://x.com 的 真好看@user")
	assert.Contains(t, tokens, "真好看")
	assert.NotContains(t, tokens, "的")
	assert.NotContains(t, tokens, "doge")
	for _, tok := range tokens {
		assert.NotContains(t, tok, "x.com")
		assert.Greater(t, len([]rune(tok)), 1)
	}

	assert.Empty(t, n.Normalize("[doge]"))
	assert.Empty(t, n.Normalize(""))
}

func TestNormalizeUsesSegmenter(t *testing.T) {
	seg := SegmenterFunc(func(s string) []string {
		// pretend dictionary segmentation: split every two runes
		var out []string
		for _, field := range strings.Fields(s) {
			r := []rune(field)
			for i := 0; i < len(r); i += 2 {
				end := i + 2
				if end > len(r) {
					end = len(r)
				}
				out = append(out, string(r[i:end]))
			}
		}
		return out
	})
	n := NewNormalizer(seg, Options{})

	assert.Equal(t, []string{"画面", "好看", "音乐"}, n.Normalize("画面好看音乐"))
	assert.Equal(t, []string{"画面"}, n.Normalize("画面好"), "single rune remainder is dropped")
}

func TestNormalizeStopwordsAndFilters(t *testing.T) {
	n := NewNormalizer(Whitespace, Options{ExtraStopwords: []string{"AWSL", " 前排 "}})

	tokens := n.Normalize("awsl 前排 生日快乐呀 祝生日快乐 好听 THE")
	assert.Equal(t, []string{"生日快乐呀", "祝生日快乐", "好听"}, tokens)

	filtered := n.Normalize("awsl 前排 生日快乐呀 祝生日快乐 好听 Happy", "生日快乐", "HAPPY")
	assert.Equal(t, []string{"好听"}, filtered)
}

func TestNormalizeMinRunes(t *testing.T) {
	n := NewNormalizer(Whitespace, Options{MinRunes: 1})
	assert.Equal(t, []string{"好", "好听"}, n.Normalize("好 好听 的"))

	n = NewNormalizer(Whitespace, Options{MinRunes: 3})
	assert.Equal(t, []string{"真好听"}, n.Normalize("好听 真好听"))
}

func TestStopwordsAreIndependent(t *testing.T) {
	a := NewNormalizer(Whitespace, Options{ExtraStopwords: []string{"好听"}})
	b := NewNormalizer(Whitespace, Options{})

	assert.Empty(t, a.Normalize("好听"))
	assert.Equal(t, []string{"好听"}, b.Normalize("好听"))
}

func TestReadStopwords(t *testing.T) {
	words, err := ReadStopwords(strings.NewReader("# comment\n哈哈\n\n  doge \n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"哈哈", "doge"}, words)
}

func TestGseSegmenter(t *testing.T) {
	seg, err := NewGseSegmenter()
	if err != nil {
		t.Skipf("gse dictionary not available: %v", err)
	}

	n := NewNormalizer(seg, Options{})
	tokens := n.Normalize("这个视频的画面真好看")
	assert.NotEmpty(t, tokens)
	assert.NotContains(t, tokens, "的")
}
