package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/bilisentiment/internal/pacing"
	"sjsage522/bilisentiment/internal/provider"
)

func ids(comments []CommentRecord) []int64 {
	out := make([]int64, len(comments))
	for i, c := range comments {
		out[i] = c.ID
	}
	return out
}

func TestCrawlDeduplicatesAcrossNesting(t *testing.T) {
	parent := provider.ReplyNode{ID: 1, Message: "楼主", Replies: []provider.ReplyNode{
		{ID: 2, Message: "回复一"},
		{ID: 1, Message: "楼主"},
	}}
	src := &fakeComments{pages: []*provider.CommentPage{
		{Replies: []provider.ReplyNode{parent, {ID: 3, Message: "三楼"}}, Cursor: provider.Cursor{TotalCount: 10}},
		{Replies: []provider.ReplyNode{{ID: 2, Message: "回复一"}, {ID: 4, Message: "四楼"}}, Cursor: provider.Cursor{TotalCount: 10}},
	}}

	res := NewCommentCrawler(src, nil, nil).Crawl(context.Background(), 170001)

	assert.Equal(t, []int64{1, 2, 3, 4}, ids(res.Comments))
	assert.Equal(t, []string{"楼主", "回复一", "三楼", "四楼"}, res.Texts())
	assert.Equal(t, StopEmptyPage, res.Stop)
	assert.Equal(t, []int{1, 2, 3}, src.requests)
}

func TestCrawlStopsAtReportedTotal(t *testing.T) {
	total := 45
	src := &fakeComments{pages: []*provider.CommentPage{
		{Replies: replies(1, 20), Cursor: provider.Cursor{TotalCount: total}},
		{Replies: replies(21, 20), Cursor: provider.Cursor{TotalCount: total}},
		{Replies: replies(41, 5), Cursor: provider.Cursor{TotalCount: total}},
		{Replies: replies(100, 20), Cursor: provider.Cursor{TotalCount: total}},
	}}
	pacer := &recordingPacer{}

	res := NewCommentCrawler(src, pacer, nil).Crawl(context.Background(), 170001)

	assert.Equal(t, StopTotalReached, res.Stop)
	assert.Len(t, res.Comments, total)
	assert.Equal(t, 3, res.Pages)
	assert.LessOrEqual(t, res.Pages, (total+provider.CommentPageSize-1)/provider.CommentPageSize+1)
	assert.Equal(t, 3, pacer.waits)
	assert.Equal(t, total, res.TotalReported)
}

func TestCrawlStopsOnEndOfList(t *testing.T) {
	src := &fakeComments{pages: []*provider.CommentPage{
		{Replies: replies(1, 20), Cursor: provider.Cursor{TotalCount: 500}},
		{Replies: replies(21, 3), Cursor: provider.Cursor{IsEnd: true, TotalCount: 500}},
	}}

	res := NewCommentCrawler(src, nil, nil).Crawl(context.Background(), 170001)
	assert.Equal(t, StopEndOfList, res.Stop)
	assert.Len(t, res.Comments, 23)
	assert.Equal(t, []int{1, 2}, src.requests)
}

func TestCrawlStopsWhenPageRepeats(t *testing.T) {
	same := &provider.CommentPage{Replies: replies(1, 20), Cursor: provider.Cursor{TotalCount: 1000}}
	src := &fakeComments{pages: []*provider.CommentPage{same, same, same, same}}

	res := NewCommentCrawler(src, nil, nil).Crawl(context.Background(), 170001)
	assert.Equal(t, StopNoNewIDs, res.Stop)
	assert.Equal(t, 2, res.Pages)
	assert.Len(t, res.Comments, 20)
}

func TestCrawlKeepsCommentsOnError(t *testing.T) {
	src := &fakeComments{
		pages: []*provider.CommentPage{
			{Replies: replies(1, 20), Cursor: provider.Cursor{TotalCount: 100}},
		},
		failAt: 2,
	}
	diag := &recordingDiag{}

	res := NewCommentCrawler(src, nil, diag).Crawl(context.Background(), 170001)
	assert.Equal(t, StopRequestError, res.Stop)
	assert.Len(t, res.Comments, 20)
	assert.Equal(t, []string{"comments:page:2"}, diag.units)
}

func TestCrawlFirstPageEmpty(t *testing.T) {
	src := &fakeComments{}
	res := NewCommentCrawler(src, nil, nil).Crawl(context.Background(), 170001)

	assert.Equal(t, StopEmptyPage, res.Stop)
	assert.Empty(t, res.Comments)
	assert.Equal(t, []int{1}, src.requests)
}

func TestCrawlWithoutContentID(t *testing.T) {
	src := &fakeComments{pages: []*provider.CommentPage{{Replies: replies(1, 1)}}}
	res := NewCommentCrawler(src, nil, nil).Crawl(context.Background(), 0)

	assert.Equal(t, StopNoContentID, res.Stop)
	assert.Empty(t, res.Comments)
	assert.Empty(t, src.requests)
}

func TestCrawlCanceledBetweenPages(t *testing.T) {
	src := &fakeComments{pages: []*provider.CommentPage{
		{Replies: replies(1, 20), Cursor: provider.Cursor{TotalCount: 100}},
	}}

	res := NewCommentCrawler(src, &cancelAfterPacer{allowed: 1}, nil).Crawl(context.Background(), 170001)
	require.Equal(t, StopCanceled, res.Stop)
	assert.Len(t, res.Comments, 20)
	assert.Equal(t, []int{1}, src.requests)
}

func TestCrawlCanceledBeforeFirstPage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &fakeComments{pages: []*provider.CommentPage{{Replies: replies(1, 20)}}}

	res := NewCommentCrawler(src, &recordingPacer{}, nil).Crawl(ctx, 170001)
	assert.Equal(t, StopCanceled, res.Stop)
	assert.Empty(t, src.requests)
	assert.Empty(t, res.Comments)
}

func TestCrawlPacesFirstTwoPages(t *testing.T) {
	gap := 80 * time.Millisecond
	src := &timedComments{fakeComments: fakeComments{pages: []*provider.CommentPage{
		{Replies: replies(1, 20), Cursor: provider.Cursor{TotalCount: 60}},
		{Replies: replies(21, 20), Cursor: provider.Cursor{TotalCount: 60}},
		{Replies: replies(41, 20), Cursor: provider.Cursor{TotalCount: 60}},
	}}}

	res := NewCommentCrawler(src, pacing.NewIntervalPacer(gap, gap), nil).Crawl(context.Background(), 170001)

	require.Equal(t, StopTotalReached, res.Stop)
	require.Len(t, src.at, 3)
	for i := 1; i < len(src.at); i++ {
		assert.GreaterOrEqual(t, src.at[i].Sub(src.at[i-1]), gap-10*time.Millisecond, "gap before page %d", i+1)
	}
}
