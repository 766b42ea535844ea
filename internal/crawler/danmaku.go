package crawler

import (
	"context"
	"fmt"
	"strings"

	"sjsage522/bilisentiment/helpers"
	"sjsage522/bilisentiment/internal/pacing"
	"sjsage522/bilisentiment/internal/provider"
	"sjsage522/bilisentiment/internal/segment"
	"sjsage522/bilisentiment/logger"
	"sjsage522/bilisentiment/pkg/errors"
)

// DanmakuResult holds the danmaku of every processed segment
type DanmakuResult struct {
	// BySegment has an entry, possibly empty, for every segment processed
	BySegment map[string][]DanmakuRecord
	// Ordered is every record in segment processing order
	Ordered []DanmakuRecord
	// Skipped lists segments whose track could not be found
	Skipped []segment.Rejection
}

// DanmakuFetcher retrieves the overlay comments of resolved segments, one segment at a time
type DanmakuFetcher struct {
	base
	src DanmakuSource
}

// NewDanmakuFetcher creates a fetcher; pacer is waited on before every segment request
func NewDanmakuFetcher(src DanmakuSource, pacer pacing.Pacer, diag helpers.LoggerInterface) *DanmakuFetcher {
	return &DanmakuFetcher{
		base: newBase(pacer, diag, logger.ForFetcher()),
		src:  src,
	}
}

// Fetch collects danmaku for segments of info in order. A failing segment yields an
// empty result for that segment only.
func (f *DanmakuFetcher) Fetch(ctx context.Context, info *provider.ContentInfo, segments []segment.Resolved) DanmakuResult {
	result := DanmakuResult{BySegment: make(map[string][]DanmakuRecord, len(segments))}

	for _, seg := range segments {
		unit := "segment:" + seg.Name
		result.BySegment[seg.Name] = []DanmakuRecord{}

		track, ok := info.Track(seg.PageIndex)
		if !ok {
			err := errors.NewLookup(unit, fmt.Sprintf("content has no page %d", seg.PageIndex+1))
			f.recovered(unit, err, "Segment track not found, skipping")
			result.Skipped = append(result.Skipped, segment.Rejection{Name: seg.Name, Reason: err.Message})
			continue
		}

		if err := f.wait(ctx); err != nil {
			f.log.Warn().Err(err).Str("segment", seg.Name).Msg("Danmaku fetch interrupted")
			delete(result.BySegment, seg.Name)
			break
		}

		comments, err := f.fetchTrack(ctx, track.CID, seg.Window)
		if err != nil {
			f.recovered(unit, err, "Danmaku retrieval failed, segment left empty")
			continue
		}

		records := make([]DanmakuRecord, 0, len(comments))
		for _, c := range comments {
			text := strings.TrimSpace(c.Text)
			if text == "" {
				continue
			}
			records = append(records, DanmakuRecord{
				Text:       text,
				Segment:    seg.Name,
				ProgressMs: c.ProgressMs,
				InRange:    seg.Contains(c.ProgressMs),
			})
		}
		result.BySegment[seg.Name] = records
		result.Ordered = append(result.Ordered, records...)

		f.log.Info().
			Str("segment", seg.Name).
			Int64("cid", track.CID).
			Int("danmaku", len(records)).
			Msg("Segment danmaku fetched")
	}
	return result
}

// fetchTrack fetches the window range, or the whole track when window is nil
func (f *DanmakuFetcher) fetchTrack(ctx context.Context, cid int64, window *segment.WindowRange) ([]provider.OverlayComment, error) {
	if window != nil {
		return f.src.GetWindowedOverlayComments(ctx, cid, window.From, window.To)
	}

	count, err := f.src.GetOverlayWindowCount(ctx, cid)
	if err != nil || count <= 0 {
		f.log.Debug().Int64("cid", cid).Err(err).Msg("Window count unknown, using full danmaku dump")
		return f.src.GetAllOverlayComments(ctx, cid)
	}
	return f.src.GetWindowedOverlayComments(ctx, cid, 0, count-1)
}

// Texts returns the text of every record in order
func Texts(records []DanmakuRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Text
	}
	return out
}
