package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

// envelope is the common Bilibili JSON response wrapper
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// rateLimitCode is returned in the envelope when a session is throttled
const rateLimitCode = -412

type viewData struct {
	BVID  string `json:"bvid"`
	AID   int64  `json:"aid"`
	Title string `json:"title"`
	Pages []struct {
		Page     int    `json:"page"`
		CID      int64  `json:"cid"`
		Duration int    `json:"duration"`
		Part     string `json:"part"`
	} `json:"pages"`
}

func (v viewData) toContentInfo() *ContentInfo {
	info := &ContentInfo{BVID: v.BVID, AID: v.AID, Title: v.Title}
	for _, p := range v.Pages {
		info.Pages = append(info.Pages, Page{
			Index:    p.Page - 1,
			CID:      p.CID,
			Duration: p.Duration,
			Part:     p.Part,
		})
	}
	return info
}

type replyData struct {
	Cursor struct {
		IsEnd    bool `json:"is_end"`
		AllCount int  `json:"all_count"`
	} `json:"cursor"`
	Replies []rawReply `json:"replies"`
}

// rawReply keeps required fields as pointers so an absent field can be told apart from
// a zero value
type rawReply struct {
	RPID    *int64 `json:"rpid"`
	Content *struct {
		Message *string `json:"message"`
	} `json:"content"`
	Replies []rawReply `json:"replies"`
}

func (r rawReply) node() (ReplyNode, bool) {
	if r.RPID == nil || r.Content == nil || r.Content.Message == nil {
		return ReplyNode{}, false
	}
	return ReplyNode{ID: *r.RPID, Message: *r.Content.Message}, true
}

// toCommentPage converts the payload, dropping replies that miss an id or message.
// Nested replies are kept one level deep.
func (d replyData) toCommentPage() (CommentPage, int) {
	page := CommentPage{
		Replies: []ReplyNode{},
		Cursor:  Cursor{IsEnd: d.Cursor.IsEnd, TotalCount: d.Cursor.AllCount},
	}
	dropped := 0
	for _, r := range d.Replies {
		node, ok := r.node()
		if !ok {
			dropped++
			continue
		}
		for _, nested := range r.Replies {
			child, ok := nested.node()
			if !ok {
				dropped++
				continue
			}
			node.Replies = append(node.Replies, child)
		}
		page.Replies = append(page.Replies, node)
	}
	return page, dropped
}

// Field numbers of DmSegMobileReply and DanmakuElem
const (
	fieldSegElems     protowire.Number = 1
	fieldElemProgress protowire.Number = 2
	fieldElemContent  protowire.Number = 7
)

// decodeSegment decodes a DmSegMobileReply protobuf payload
func decodeSegment(b []byte) ([]OverlayComment, error) {
	var out []OverlayComment
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("segment tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		if num == fieldSegElems && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("segment element: %w", protowire.ParseError(n))
			}
			elem, err := decodeElem(v)
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
			b = b[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return nil, fmt.Errorf("segment field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return out, nil
}

func decodeElem(b []byte) (OverlayComment, error) {
	var c OverlayComment
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return c, fmt.Errorf("element tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldElemProgress && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return c, fmt.Errorf("element progress: %w", protowire.ParseError(n))
			}
			c.ProgressMs = int(int32(v))
			b = b[n:]
		case num == fieldElemContent && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return c, fmt.Errorf("element content: %w", protowire.ParseError(n))
			}
			c.Text = string(v)
			b = b[n:]
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return c, fmt.Errorf("element field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return c, nil
}

// parseProgress reads the first field of a legacy <d p="..."> attribute (seconds, float)
func parseProgress(p string) int {
	first, _, _ := strings.Cut(p, ",")
	var secs float64
	if _, err := fmt.Sscanf(first, "%g", &secs); err != nil {
		return 0
	}
	return int(secs * 1000)
}
