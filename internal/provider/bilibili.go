package provider

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/bilisentiment/helpers"
	"sjsage522/bilisentiment/internal/pacing"
	"sjsage522/bilisentiment/logger"
	"sjsage522/bilisentiment/pkg/errors"
	"sjsage522/bilisentiment/services/cache"
)

// Endpoint families used for rate-limit blocking
const (
	familyView    = "view"
	familyDanmaku = "dm"
	familyReply   = "reply"
)

// Options configures a Client
type Options struct {
	APIBase     string
	CommentBase string
	Cookie      string
	HTTPClient  *http.Client

	// Cache stores view responses and rate-limit block flags; nil disables both
	Cache     cache.CacheService
	CacheTTL  time.Duration
	BlockTime time.Duration

	Retry pacing.RetryPolicy
	// WindowPacer is waited on before every danmaku window request
	WindowPacer pacing.Pacer
}

// Client talks to the Bilibili web API
type Client struct {
	opts Options
	log  *logger.Logger

	mu           sync.Mutex
	durations    map[int64]int
	blockedUntil map[string]time.Time
	now          func() time.Time
}

// NewClient creates a new Bilibili client
func NewClient(opts Options) *Client {
	opts.APIBase = strings.TrimRight(opts.APIBase, "/")
	opts.CommentBase = strings.TrimRight(opts.CommentBase, "/")
	if opts.WindowPacer == nil {
		opts.WindowPacer = pacing.None
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = pacing.NoRetry
	}
	return &Client{
		opts:         opts,
		log:          logger.ForProvider(),
		durations:    make(map[int64]int),
		blockedUntil: make(map[string]time.Time),
		now:          time.Now,
	}
}

// GetContentInfo looks up a video's title, aid and page table
func (c *Client) GetContentInfo(ctx context.Context, bvid string) (*ContentInfo, error) {
	unit := "content:" + bvid

	data, cached := c.cached(cache.ContentKey(bvid))
	if !cached {
		var err error
		data, err = c.getJSON(ctx, familyView, unit, c.opts.APIBase+"/x/web-interface/view?"+url.Values{"bvid": {bvid}}.Encode())
		if err != nil {
			return nil, err
		}
	}

	var view viewData
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, errors.NewDecode(unit, "malformed view payload", err)
	}
	if view.AID == 0 {
		return nil, errors.NewLookup(unit, "content has no numeric id")
	}
	if !cached {
		c.store(cache.ContentKey(bvid), data)
	}

	info := view.toContentInfo()
	c.mu.Lock()
	for _, p := range info.Pages {
		c.durations[p.CID] = p.Duration
	}
	c.mu.Unlock()

	c.log.Debug().
		Str("bvid", bvid).
		Int64("aid", info.AID).
		Int("pages", len(info.Pages)).
		Bool("cached", cached).
		Msg("Content info loaded")
	return info, nil
}

// GetOverlayWindowCount returns how many 6-minute danmaku windows a track spans, or 0 when
// the track's duration is unknown.
func (c *Client) GetOverlayWindowCount(_ context.Context, cid int64) (int, error) {
	c.mu.Lock()
	d, ok := c.durations[cid]
	c.mu.Unlock()
	if !ok || d <= 0 {
		return 0, nil
	}
	return (d + windowSeconds - 1) / windowSeconds, nil
}

const windowSeconds = 360

// GetWindowedOverlayComments fetches the danmaku of windows from..to inclusive (0-based).
// A window that fails after retries ends the range and returns what was collected with
// the error.
func (c *Client) GetWindowedOverlayComments(ctx context.Context, cid int64, from, to int) ([]OverlayComment, error) {
	var out []OverlayComment
	for w := from; w <= to; w++ {
		if err := c.opts.WindowPacer.Wait(ctx); err != nil {
			return out, err
		}

		unit := fmt.Sprintf("cid:%d:window:%d", cid, w)
		q := url.Values{
			"type":          {"1"},
			"oid":           {fmt.Sprint(cid)},
			"segment_index": {fmt.Sprint(w + 1)},
		}
		body, err := c.fetch(ctx, familyDanmaku, unit, c.opts.APIBase+"/x/v2/dm/web/seg.so?"+q.Encode())
		if err != nil {
			return out, err
		}

		comments, err := decodeSegment(body)
		if err != nil {
			return out, errors.NewDecode(unit, "malformed danmaku segment", err)
		}
		out = append(out, comments...)
	}
	return out, nil
}

// GetAllOverlayComments fetches the legacy XML dump of a track's danmaku
func (c *Client) GetAllOverlayComments(ctx context.Context, cid int64) ([]OverlayComment, error) {
	unit := fmt.Sprintf("cid:%d:xml", cid)
	if err := c.checkBlocked(familyDanmaku, unit); err != nil {
		return nil, err
	}

	var out []OverlayComment
	err := c.opts.Retry.Do(ctx, func(int) error {
		reader, err := helpers.FetchUTF8(ctx, c.opts.HTTPClient, fmt.Sprintf("%s/%d.xml", c.opts.CommentBase, cid), helpers.BrowserHeaders(c.opts.Cookie))
		if err != nil {
			return classify(unit, err)
		}

		doc, err := goquery.NewDocumentFromReader(reader)
		if err != nil {
			return errors.NewDecode(unit, "malformed danmaku dump", err)
		}

		out = out[:0]
		doc.Find("d").Each(func(_ int, s *goquery.Selection) {
			p, _ := s.Attr("p")
			out = append(out, OverlayComment{Text: s.Text(), ProgressMs: parseProgress(p)})
		})
		return nil
	})
	if err != nil {
		c.noteRateLimit(familyDanmaku, err)
		return nil, err
	}
	return out, nil
}

// GetCommentPage fetches one page of top-level replies, each with its nested replies
func (c *Client) GetCommentPage(ctx context.Context, aid int64, kind int, page int) (*CommentPage, error) {
	unit := fmt.Sprintf("comments:%d:page:%d", aid, page)
	q := url.Values{
		"oid":  {fmt.Sprint(aid)},
		"type": {fmt.Sprint(kind)},
		"mode": {"3"},
		"next": {fmt.Sprint(page)},
		"ps":   {fmt.Sprint(CommentPageSize)},
	}
	data, err := c.getJSON(ctx, familyReply, unit, c.opts.APIBase+"/x/v2/reply/main?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var raw replyData
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, errors.NewDecode(unit, "malformed reply payload", err)
		}
	}

	result, dropped := raw.toCommentPage()
	if dropped > 0 {
		c.log.Warn().Str("unit", unit).Int("dropped", dropped).Msg("Replies without id or message dropped")
	}
	return &result, nil
}

// getJSON fetches an enveloped JSON endpoint and returns its data field
func (c *Client) getJSON(ctx context.Context, family, unit, rawURL string) (json.RawMessage, error) {
	var data json.RawMessage
	err := c.do(ctx, family, unit, rawURL, func(body []byte) error {
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return errors.NewDecode(unit, "malformed response envelope", err)
		}
		switch {
		case env.Code == rateLimitCode:
			return errors.NewRateLimit(unit, c.opts.BlockTime)
		case env.Code != 0:
			return errors.NewLookup(unit, fmt.Sprintf("api code %d: %s", env.Code, env.Message))
		}
		data = env.Data
		return nil
	})
	return data, err
}

// fetch returns the raw body of a GET request
func (c *Client) fetch(ctx context.Context, family, unit, rawURL string) ([]byte, error) {
	var out []byte
	err := c.do(ctx, family, unit, rawURL, func(body []byte) error {
		out = body
		return nil
	})
	return out, err
}

// do runs one request under the block check and retry policy
func (c *Client) do(ctx context.Context, family, unit, rawURL string, handle func([]byte) error) error {
	if err := c.checkBlocked(family, unit); err != nil {
		return err
	}

	err := c.opts.Retry.Do(ctx, func(attempt int) error {
		body, err := helpers.FetchBytes(ctx, c.opts.HTTPClient, rawURL, helpers.BrowserHeaders(c.opts.Cookie))
		if err != nil {
			c.log.Debug().Str("unit", unit).Int("attempt", attempt).Err(err).Msg("Request failed")
			return classify(unit, err)
		}
		return handle(body)
	})
	if err != nil {
		c.noteRateLimit(family, err)
	}
	return err
}

// classify maps fetch failures onto pipeline error types
func classify(unit string, err error) error {
	var statusErr *helpers.StatusError
	switch {
	case stderrors.Is(err, helpers.ErrRateLimited):
		return errors.New(errors.ErrorTypeRateLimit, unit, "provider throttled the request", err)
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return err
	case stderrors.As(err, &statusErr) && statusErr.Code < 500:
		return errors.NewLookup(unit, statusErr.Error())
	default:
		return errors.NewTransport(unit, "request failed", err)
	}
}

func (c *Client) checkBlocked(family, unit string) error {
	c.mu.Lock()
	until, ok := c.blockedUntil[family]
	c.mu.Unlock()
	if ok && c.now().Before(until) {
		return errors.NewRateLimit(unit, until.Sub(c.now()).Round(time.Second))
	}

	if c.opts.Cache != nil {
		if _, err := c.opts.Cache.Get(cache.BlockKey(family)); err == nil {
			return errors.NewRateLimit(unit, c.opts.BlockTime)
		}
	}
	return nil
}

// noteRateLimit blocks the family for BlockTime after a rate-limit failure
func (c *Client) noteRateLimit(family string, err error) {
	if !errors.IsType(err, errors.ErrorTypeRateLimit) || c.opts.BlockTime <= 0 {
		return
	}

	c.mu.Lock()
	c.blockedUntil[family] = c.now().Add(c.opts.BlockTime)
	c.mu.Unlock()

	c.log.Warn().Str("family", family).Dur("block", c.opts.BlockTime).Msg("Provider rate limit hit, blocking requests")

	if c.opts.Cache != nil {
		value := []byte(fmt.Sprintf("%d", c.opts.BlockTime/time.Second))
		if cerr := c.opts.Cache.Set(cache.BlockKey(family), value, c.opts.BlockTime); cerr != nil {
			c.log.Debug().Err(errors.NewCache(family, "failed to set block flag", cerr)).Msg("Cache write failed")
		}
	}
}

func (c *Client) cached(key string) (json.RawMessage, bool) {
	if c.opts.Cache == nil {
		return nil, false
	}
	data, err := c.opts.Cache.Get(key)
	if err != nil {
		if !stderrors.Is(err, cache.ErrMiss) {
			c.log.Debug().Err(errors.NewCache(key, "cache read failed", err)).Msg("Cache read failed")
		}
		return nil, false
	}
	return data, true
}

func (c *Client) store(key string, data []byte) {
	if c.opts.Cache == nil || c.opts.CacheTTL <= 0 {
		return
	}
	if err := c.opts.Cache.Set(key, data, c.opts.CacheTTL); err != nil {
		c.log.Debug().Err(errors.NewCache(key, "cache write failed", err)).Msg("Cache write failed")
	}
}
