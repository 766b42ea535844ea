package crawler

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"sjsage522/bilisentiment/internal/provider"
)

// recordingPacer counts waits and never sleeps
type recordingPacer struct {
	mu    sync.Mutex
	waits int
}

func (p *recordingPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	p.waits++
	p.mu.Unlock()
	return ctx.Err()
}

// cancelAfterPacer lets the first allowed waits through and fails every later one
type cancelAfterPacer struct {
	allowed int
	waits   int
}

func (p *cancelAfterPacer) Wait(ctx context.Context) error {
	p.waits++
	if p.waits > p.allowed {
		return context.Canceled
	}
	return ctx.Err()
}

// recordingDiag collects diagnostics
type recordingDiag struct {
	units []string
}

func (d *recordingDiag) LogError(unit string, err error) { d.units = append(d.units, unit) }
func (d *recordingDiag) LogInfo(format string, args ...interface{}) {}

type windowCall struct {
	CID      int64
	From, To int
}

// fakeDanmaku serves danmaku per cid
type fakeDanmaku struct {
	counts   map[int64]int
	windows  map[int64][][]string // per window texts
	dumps    map[int64][]string
	failing  map[int64]bool
	progress map[string]int // text to progress ms
	calls    []windowCall
	dumpHits []int64
}

func (f *fakeDanmaku) GetOverlayWindowCount(_ context.Context, cid int64) (int, error) {
	return f.counts[cid], nil
}

func (f *fakeDanmaku) GetWindowedOverlayComments(_ context.Context, cid int64, from, to int) ([]provider.OverlayComment, error) {
	f.calls = append(f.calls, windowCall{CID: cid, From: from, To: to})
	if f.failing[cid] {
		return nil, stderrors.New("connection reset")
	}
	var out []provider.OverlayComment
	for w := from; w <= to && w < len(f.windows[cid]); w++ {
		for _, text := range f.windows[cid][w] {
			out = append(out, provider.OverlayComment{Text: text, ProgressMs: f.progress[text]})
		}
	}
	return out, nil
}

func (f *fakeDanmaku) GetAllOverlayComments(_ context.Context, cid int64) ([]provider.OverlayComment, error) {
	f.dumpHits = append(f.dumpHits, cid)
	var out []provider.OverlayComment
	for _, text := range f.dumps[cid] {
		out = append(out, provider.OverlayComment{Text: text})
	}
	return out, nil
}

// fakeComments serves scripted comment pages; pages beyond the script are empty
type fakeComments struct {
	pages    []*provider.CommentPage
	failAt   int
	requests []int
}

func (f *fakeComments) GetCommentPage(_ context.Context, _ int64, _ int, page int) (*provider.CommentPage, error) {
	f.requests = append(f.requests, page)
	if page == f.failAt {
		return nil, fmt.Errorf("page %d: timeout", page)
	}
	if page-1 < len(f.pages) {
		return f.pages[page-1], nil
	}
	return &provider.CommentPage{}, nil
}

// replies builds top-level replies with consecutive ids starting at first
func replies(first, n int) []provider.ReplyNode {
	out := make([]provider.ReplyNode, n)
	for i := range out {
		id := int64(first + i)
		out[i] = provider.ReplyNode{ID: id, Message: fmt.Sprintf("comment %d", id)}
	}
	return out
}

// timedComments stamps the time of every page request
type timedComments struct {
	fakeComments
	at []time.Time
}

func (f *timedComments) GetCommentPage(ctx context.Context, aid int64, kind int, page int) (*provider.CommentPage, error) {
	f.at = append(f.at, time.Now())
	return f.fakeComments.GetCommentPage(ctx, aid, kind, page)
}

// timedDanmaku stamps the time of every windowed request
type timedDanmaku struct {
	fakeDanmaku
	at []time.Time
}

func (f *timedDanmaku) GetWindowedOverlayComments(ctx context.Context, cid int64, from, to int) ([]provider.OverlayComment, error) {
	f.at = append(f.at, time.Now())
	return f.fakeDanmaku.GetWindowedOverlayComments(ctx, cid, from, to)
}
