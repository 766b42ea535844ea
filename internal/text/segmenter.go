package text

import (
	"strings"

	"github.com/go-ego/gse"
)

// Segmenter splits text into words. Chinese has no whitespace word boundaries, so this
// is a dictionary-backed segmenter in production.
type Segmenter interface {
	Cut(text string) []string
}

// SegmenterFunc adapts a plain function to Segmenter
type SegmenterFunc func(text string) []string

// Cut implements Segmenter
func (f SegmenterFunc) Cut(text string) []string { return f(text) }

// Whitespace splits on whitespace only
var Whitespace Segmenter = SegmenterFunc(strings.Fields)

// GseSegmenter wraps a gse dictionary segmenter with HMM enabled for unknown words
type GseSegmenter struct {
	seg gse.Segmenter
}

// NewGseSegmenter loads the given dictionaries, or the embedded Chinese dictionary when
// none are given.
func NewGseSegmenter(dictFiles ...string) (*GseSegmenter, error) {
	seg, err := gse.New(dictFiles...)
	if err != nil {
		return nil, err
	}
	return &GseSegmenter{seg: seg}, nil
}

// Cut implements Segmenter
func (g *GseSegmenter) Cut(text string) []string {
	return g.seg.Cut(text, true)
}
