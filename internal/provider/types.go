package provider

// ResourceVideo is the comment-area kind of an ordinary video
const ResourceVideo = 1

// CommentPageSize is the number of top-level replies requested per page
const CommentPageSize = 20

// Page is one sub-video (track) of a content item
type Page struct {
	Index    int    `json:"index"` // 0-based
	CID      int64  `json:"cid"`
	Duration int    `json:"duration"` // seconds
	Part     string `json:"part"`
}

// ContentInfo describes a video and its tracks
type ContentInfo struct {
	BVID  string `json:"bvid"`
	AID   int64  `json:"aid"`
	Title string `json:"title"`
	Pages []Page `json:"pages"`
}

// Track returns the page with the given 0-based index
func (c *ContentInfo) Track(index int) (Page, bool) {
	for _, p := range c.Pages {
		if p.Index == index {
			return p, true
		}
	}
	return Page{}, false
}

// OverlayComment is one danmaku
type OverlayComment struct {
	Text       string `json:"text"`
	ProgressMs int    `json:"progress_ms"`
}

// ReplyNode is a comment with its first-level nested replies
type ReplyNode struct {
	ID      int64       `json:"id"`
	Message string      `json:"message"`
	Replies []ReplyNode `json:"replies,omitempty"`
}

// Cursor is the pagination state reported with a comment page
type Cursor struct {
	IsEnd      bool `json:"is_end"`
	TotalCount int  `json:"total_count"`
}

// CommentPage is one page of top-level replies
type CommentPage struct {
	Replies []ReplyNode `json:"replies"`
	Cursor  Cursor      `json:"cursor"`
}
