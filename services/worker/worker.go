package worker

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"sjsage522/bilisentiment/helpers"
	"sjsage522/bilisentiment/internal/aggregate"
	"sjsage522/bilisentiment/internal/crawler"
	"sjsage522/bilisentiment/internal/provider"
	"sjsage522/bilisentiment/internal/segment"
	"sjsage522/bilisentiment/internal/sentiment"
	"sjsage522/bilisentiment/logger"
	"sjsage522/bilisentiment/pkg/errors"
	"sjsage522/bilisentiment/services/publisher"
)

// ReportKey is the stream field a published report is stored under
const ReportKey = "b64_report"

// ContentSource looks up the content being analysed
type ContentSource interface {
	GetContentInfo(ctx context.Context, bvid string) (*provider.ContentInfo, error)
}

// Options configures a Worker
type Options struct {
	BVID string
	// Segments are the definitions to resolve; empty means the whole video
	Segments []segment.Definition
	// Rejections are rows already dropped while loading the segment source
	Rejections []segment.Rejection
	TopN       int
	// OutputDir receives <bvid>_report.json; empty disables the file
	OutputDir string
}

// Worker runs the acquisition and analysis pipeline
type Worker struct {
	content    ContentSource
	fetcher    *crawler.DanmakuFetcher
	comments   *crawler.CommentCrawler
	classifier *sentiment.Classifier
	aggregator *aggregate.Aggregator
	publisher  publisher.Publisher
	logger     helpers.LoggerInterface
	opts       Options
	log        *logger.Logger
	now        func() time.Time
}

// NewWorker creates a new worker. pub may be nil.
func NewWorker(
	content ContentSource,
	fetcher *crawler.DanmakuFetcher,
	comments *crawler.CommentCrawler,
	classifier *sentiment.Classifier,
	aggregator *aggregate.Aggregator,
	pub publisher.Publisher,
	diag helpers.LoggerInterface,
	opts Options,
) *Worker {
	if opts.TopN <= 0 {
		opts.TopN = 50
	}
	return &Worker{
		content:    content,
		fetcher:    fetcher,
		comments:   comments,
		classifier: classifier,
		aggregator: aggregator,
		publisher:  pub,
		logger:     diag,
		opts:       opts,
		log:        logger.ForPipeline(),
		now:        time.Now,
	}
}

// Start runs the pipeline every interval until ctx is done
func (w *Worker) Start(ctx context.Context, interval time.Duration) {
	for {
		start := time.Now()
		if _, err := w.Run(ctx); err != nil {
			w.logger.LogError("pipeline", err)
		}
		w.logger.LogInfo("Analysis run took %s", time.Since(start))

		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// Run performs one full analysis. Only a failed content lookup is returned as an error;
// every other failure leaves a partial report.
func (w *Worker) Run(ctx context.Context) (*Report, error) {
	info, err := w.content.GetContentInfo(ctx, w.opts.BVID)
	if err != nil {
		return nil, err
	}
	w.log.Info().Str("bvid", w.opts.BVID).Str("title", info.Title).Int("pages", len(info.Pages)).Msg("Analysing content")

	defs := w.opts.Segments
	if len(defs) == 0 {
		defs = segment.Whole()
	}
	resolution := segment.Resolve(defs)

	danmaku := w.fetcher.Fetch(ctx, info, resolution.Segments)
	crawl := w.comments.Crawl(ctx, info.AID)

	report := &Report{
		BVID:         w.opts.BVID,
		AID:          info.AID,
		Title:        info.Title,
		GeneratedAt:  w.now(),
		Thresholds:   w.classifier.Thresholds(),
		Rejections:   append(append([]segment.Rejection{}, w.opts.Rejections...), resolution.Rejections...),
		Skipped:      append([]segment.Rejection{}, danmaku.Skipped...),
		CommentPages: crawl.Pages,
		CommentStop:  crawl.Stop,
	}

	for _, seg := range resolution.Segments {
		records, ok := danmaku.BySegment[seg.Name]
		if !ok {
			continue
		}
		scope := w.analyse(ctx, seg.Name, KindSegment, crawler.Texts(records))
		scope.Window = seg.Window
		scope.Range = seg.Range()
		scope.InRange = countInRange(records)
		report.Scopes = append(report.Scopes, scope)
	}

	commentTexts := crawl.Texts()
	report.Scopes = append(report.Scopes, w.analyse(ctx, CommentsScope, KindComments, commentTexts))

	overall := append(crawler.Texts(danmaku.Ordered), commentTexts...)
	report.Scopes = append(report.Scopes, w.analyse(ctx, OverallScope, KindOverall, overall))

	w.write(report)
	w.publish(ctx, report)
	return report, nil
}

func countInRange(records []crawler.DanmakuRecord) int {
	n := 0
	for _, r := range records {
		if r.InRange {
			n++
		}
	}
	return n
}

func (w *Worker) analyse(ctx context.Context, name, kind string, texts []string) ScopeReport {
	batch := w.classifier.ClassifyAll(ctx, texts)
	tally := batch.Tally()

	w.log.Info().
		Str("scope", name).
		Int("texts", tally.Total).
		Int("positive", tally.Counts[sentiment.Positive]).
		Int("neutral", tally.Counts[sentiment.Neutral]).
		Int("negative", tally.Counts[sentiment.Negative]).
		Msg("Scope classified")

	if texts == nil {
		texts = []string{}
	}
	scored := batch.Scored
	if scored == nil {
		scored = []sentiment.ScoredText{}
	}
	return ScopeReport{
		Name:   name,
		Kind:   kind,
		Texts:  texts,
		Tally:  tally,
		Scored: scored,
		Words:  w.aggregator.BuildTables(name, batch, w.opts.TopN),
	}
}

// write stores the report as JSON; failures are logged only
func (w *Worker) write(report *Report) {
	if w.opts.OutputDir == "" {
		return
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		w.logger.LogError("report", err)
		return
	}
	if err := os.MkdirAll(w.opts.OutputDir, 0o755); err != nil {
		w.logger.LogError("report", err)
		return
	}
	path := filepath.Join(w.opts.OutputDir, report.BVID+"_report.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		w.logger.LogError("report", err)
		return
	}
	w.log.Info().Str("path", path).Msg("Report written")
}

// publish sends the report to the stream and trims it; failures are logged only
func (w *Worker) publish(ctx context.Context, report *Report) {
	if w.publisher == nil {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		w.logger.LogError("publish", err)
		return
	}
	if err := w.publisher.Publish(ctx, ReportKey, data); err != nil {
		w.logger.LogError("publish", errors.NewPublisher(report.BVID, "failed to publish report", err))
		return
	}
	if err := w.publisher.TrimStreams(ctx); err != nil {
		w.logger.LogError("StreamTrimming", err)
	}
	logger.ForPublisher().Info().Str("bvid", report.BVID).Int("bytes", len(data)).Msg("Report published")
}
