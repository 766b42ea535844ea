package worker

import (
	"time"

	"sjsage522/bilisentiment/internal/aggregate"
	"sjsage522/bilisentiment/internal/crawler"
	"sjsage522/bilisentiment/internal/segment"
	"sjsage522/bilisentiment/internal/sentiment"
)

// Scope kinds
const (
	KindSegment  = "segment"
	KindComments = "comments"
	KindOverall  = "overall"
)

// Scope names of the non-segment scopes
const (
	CommentsScope = segment.CommentsName
	OverallScope  = segment.OverallName
)

// ScopeReport is the analysis of one body of text
type ScopeReport struct {
	Name   string                         `json:"name"`
	Kind   string                         `json:"kind"`
	Window *segment.WindowRange           `json:"window,omitempty"`
	Range  *segment.SecondsRange          `json:"range,omitempty"`
	// InRange counts the texts inside Range; the analysis itself covers the whole window
	InRange int `json:"in_range,omitempty"`
	Texts  []string                       `json:"texts"`
	Tally  sentiment.Tally                `json:"sentiment"`
	Scored []sentiment.ScoredText         `json:"scored"`
	Words  []aggregate.WordFrequencyEntry `json:"words"`
}

// Report is the result of one pipeline run
type Report struct {
	BVID        string               `json:"bvid"`
	AID         int64                `json:"aid"`
	Title       string               `json:"title"`
	GeneratedAt time.Time            `json:"generated_at"`
	Thresholds  sentiment.Thresholds `json:"thresholds"`

	// Rejections are segment rows or ranges that could not be used as given
	Rejections []segment.Rejection `json:"rejections"`
	// Skipped are segments whose track does not exist
	Skipped []segment.Rejection `json:"skipped"`

	CommentPages int                `json:"comment_pages"`
	CommentStop  crawler.StopReason `json:"comment_stop"`

	Scopes []ScopeReport `json:"scopes"`
}

// Scope returns the scope with the given name
func (r *Report) Scope(name string) (*ScopeReport, bool) {
	for i := range r.Scopes {
		if r.Scopes[i].Name == name {
			return &r.Scopes[i], true
		}
	}
	return nil, false
}
