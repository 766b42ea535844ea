package crawler

import (
	"context"
	"fmt"

	"sjsage522/bilisentiment/helpers"
	"sjsage522/bilisentiment/internal/pacing"
	"sjsage522/bilisentiment/internal/provider"
	"sjsage522/bilisentiment/logger"
)

// CrawlResult is the outcome of one comment crawl. Comments are always the ones collected
// before the crawl stopped, whatever the reason.
type CrawlResult struct {
	Comments      []CommentRecord `json:"comments"`
	Pages         int             `json:"pages"`
	TotalReported int             `json:"total_reported"`
	Stop          StopReason      `json:"stop"`
}

// Texts returns the comment texts in collection order
func (r CrawlResult) Texts() []string {
	out := make([]string, len(r.Comments))
	for i, c := range r.Comments {
		out[i] = c.Text
	}
	return out
}

// CommentCrawler walks the comment pages of one content item
type CommentCrawler struct {
	base
	src  CommentSource
	kind int
}

// NewCommentCrawler creates a crawler for video comment areas; pacer spaces pages
func NewCommentCrawler(src CommentSource, pacer pacing.Pacer, diag helpers.LoggerInterface) *CommentCrawler {
	return &CommentCrawler{
		base: newBase(pacer, diag, logger.ForCrawler()),
		src:  src,
		kind: provider.ResourceVideo,
	}
}

// Crawl fetches pages 1, 2, ... until a page is empty, the list ends, the reported total
// is reached, a later page brings no unseen ids, or a request fails.
func (c *CommentCrawler) Crawl(ctx context.Context, aid int64) CrawlResult {
	var result CrawlResult
	if aid == 0 {
		c.log.Warn().Msg("Content id not resolved, comments not crawled")
		result.Stop = StopNoContentID
		return result
	}

	seen := make(map[int64]bool)
	add := func(node provider.ReplyNode) bool {
		if seen[node.ID] {
			return false
		}
		seen[node.ID] = true
		result.Comments = append(result.Comments, CommentRecord{ID: node.ID, Text: node.Message})
		return true
	}

	for page := 1; result.Stop == ""; page++ {
		if err := c.wait(ctx); err != nil {
			result.Stop = StopCanceled
			break
		}

		resp, err := c.src.GetCommentPage(ctx, aid, c.kind, page)
		result.Pages = page
		if err != nil {
			c.recovered(fmt.Sprintf("comments:page:%d", page), err, "Comment page failed, keeping collected comments")
			result.Stop = StopRequestError
			break
		}
		if resp == nil || len(resp.Replies) == 0 {
			result.Stop = StopEmptyPage
			break
		}

		fresh := 0
		for _, reply := range resp.Replies {
			if add(reply) {
				fresh++
			}
			for _, nested := range reply.Replies {
				if add(nested) {
					fresh++
				}
			}
		}
		result.TotalReported = resp.Cursor.TotalCount

		switch {
		case resp.Cursor.IsEnd:
			result.Stop = StopEndOfList
		case len(seen) >= resp.Cursor.TotalCount:
			result.Stop = StopTotalReached
		case page > 1 && fresh == 0:
			result.Stop = StopNoNewIDs
		}

		c.log.Debug().
			Int("page", page).
			Int("new", fresh).
			Int("collected", len(seen)).
			Int("total", resp.Cursor.TotalCount).
			Msg("Comment page fetched")
	}

	c.log.Info().
		Int64("aid", aid).
		Int("comments", len(result.Comments)).
		Int("pages", result.Pages).
		Str("stop", string(result.Stop)).
		Msg("Comment crawl finished")
	return result
}
