package crawler

import (
	"context"

	"sjsage522/bilisentiment/internal/provider"
)

// DanmakuSource is the part of the provider client the danmaku fetcher needs
type DanmakuSource interface {
	GetOverlayWindowCount(ctx context.Context, cid int64) (int, error)
	GetWindowedOverlayComments(ctx context.Context, cid int64, from, to int) ([]provider.OverlayComment, error)
	GetAllOverlayComments(ctx context.Context, cid int64) ([]provider.OverlayComment, error)
}

// CommentSource is the part of the provider client the comment crawler needs
type CommentSource interface {
	GetCommentPage(ctx context.Context, aid int64, kind int, page int) (*provider.CommentPage, error)
}

// DanmakuRecord is one overlay comment attributed to the segment it was fetched for
type DanmakuRecord struct {
	Text       string `json:"text"`
	Segment    string `json:"segment"`
	ProgressMs int    `json:"progress_ms"`
	// InRange is false for danmaku that share a window with the segment but fall outside it
	InRange bool `json:"in_range"`
}

// CommentRecord is one discussion comment; top-level and nested replies share this shape
type CommentRecord struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// StopReason tells why comment pagination ended
type StopReason string

const (
	StopEmptyPage    StopReason = "empty_page"
	StopEndOfList    StopReason = "end_of_list"
	StopTotalReached StopReason = "total_reached"
	StopNoNewIDs     StopReason = "no_new_ids"
	StopRequestError StopReason = "request_error"
	StopNoContentID  StopReason = "no_content_id"
	StopCanceled     StopReason = "canceled"
)
