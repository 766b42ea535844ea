package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"sjsage522/bilisentiment/config"
	"sjsage522/bilisentiment/helpers"
	"sjsage522/bilisentiment/internal/aggregate"
	"sjsage522/bilisentiment/internal/crawler"
	"sjsage522/bilisentiment/internal/pacing"
	"sjsage522/bilisentiment/internal/provider"
	"sjsage522/bilisentiment/internal/segment"
	"sjsage522/bilisentiment/internal/sentiment"
	"sjsage522/bilisentiment/internal/text"
	"sjsage522/bilisentiment/logger"
	"sjsage522/bilisentiment/pkg/errors"
	"sjsage522/bilisentiment/services/cache"
	"sjsage522/bilisentiment/services/publisher"
	"sjsage522/bilisentiment/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("bvid", cfg.BVID).
		Str("sentiment_backend", cfg.SentimentBackend).
		Dur("run_interval", cfg.RunInterval).
		Msg("Starting application")

	// Cancel on SIGINT / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services := initializeServices(ctx, cfg)
	defer services.Cleanup()

	var segmenter text.Segmenter = text.Whitespace
	if gseSeg, err := text.NewGseSegmenter(); err != nil {
		log.Warn().Err(err).Msg("Failed to load word segmentation dictionary, splitting on whitespace")
	} else {
		segmenter = gseSeg
	}

	w, err := buildWorker(cfg, services, segmenter)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build pipeline")
	}

	if cfg.RunInterval > 0 {
		log.Info().Msg("Starting scheduled analysis")
		w.Start(ctx, cfg.RunInterval)
		log.Info().Msg("Shutting down gracefully...")
		return
	}

	report, err := w.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}

	for _, scope := range report.Scopes {
		log.Info().
			Str("scope", scope.Name).
			Int("texts", scope.Tally.Total).
			Float64("positive_pct", scope.Tally.Percentages[sentiment.Positive]).
			Float64("neutral_pct", scope.Tally.Percentages[sentiment.Neutral]).
			Float64("negative_pct", scope.Tally.Percentages[sentiment.Negative]).
			Msg("Scope summary")
	}
	log.Info().Str("title", report.Title).Msg("Analysis finished")
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices connects the optional cache and publisher; an unreachable service is
// disabled rather than fatal
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := cacheService.Ping(); err != nil {
			logger.ForCache().Warn().Err(errors.NewCache(cfg.MemcacheAddr, "memcache unreachable, caching disabled", err)).Msg("Cache disabled")
		} else {
			services.Cache = cacheService
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(publisher.RedisOptions{
			Addr:      cfg.RedisAddr,
			DB:        cfg.RedisDB,
			Stream:    cfg.RedisStream,
			Count:     cfg.RedisStreamCount,
			MaxLength: cfg.RedisStreamMaxLength,
		})
		if err := redisPublisher.Ping(ctx); err != nil {
			logger.ForPublisher().Warn().Err(errors.NewPublisher(cfg.RedisAddr, "redis unreachable, publishing disabled", err)).Msg("Publisher disabled")
			redisPublisher.Close()
		} else {
			services.Publisher = redisPublisher
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
				cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	return services
}

// buildWorker wires the pipeline from configuration
func buildWorker(cfg *config.Config, services *Services, segmenter text.Segmenter) (*worker.Worker, error) {
	var defs []segment.Definition
	var rejections []segment.Rejection
	if cfg.SegmentsFile != "" {
		var err error
		defs, rejections, err = segment.LoadFile(cfg.SegmentsFile)
		if err != nil {
			return nil, errors.NewConfiguration("cannot read SEGMENTS_FILE", err)
		}
	}

	var extraStopwords []string
	if cfg.StopwordsFile != "" {
		words, err := text.LoadStopwordsFile(cfg.StopwordsFile)
		if err != nil {
			return nil, errors.NewConfiguration("cannot read STOPWORDS_FILE", err)
		}
		extraStopwords = words
	}

	client := provider.NewClient(provider.Options{
		APIBase:     cfg.APIBase,
		CommentBase: cfg.CommentBase,
		Cookie:      sessionCookie(cfg),
		Cache:       services.Cache,
		CacheTTL:    cfg.CacheTTL,
		BlockTime:   cfg.RateLimitBlock,
		Retry: pacing.RetryPolicy{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
		},
		WindowPacer: pacing.NewIntervalPacer(cfg.CommentPacing, cfg.CommentPacing),
	})

	var scorer sentiment.Scorer
	switch cfg.SentimentBackend {
	case "openai":
		scorer = sentiment.NewOpenAIScorer(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	default:
		scorer = sentiment.NewLexiconScorer(nil, nil)
	}

	diag := helpers.NewLogger(cfg.ErrorLogFile)
	normalizer := text.NewNormalizer(segmenter, text.Options{
		ExtraStopwords: extraStopwords,
		MinRunes:       cfg.MinTokenRunes,
	})

	return worker.NewWorker(
		client,
		crawler.NewDanmakuFetcher(client, pacing.NewIntervalPacer(cfg.PacingMin, cfg.PacingMax), diag),
		crawler.NewCommentCrawler(client, pacing.NewIntervalPacer(cfg.CommentPacing, cfg.CommentPacing), diag),
		sentiment.NewClassifier(scorer, sentiment.Thresholds{
			Positive: cfg.PositiveThreshold,
			Negative: cfg.NegativeThreshold,
		}),
		aggregate.New(normalizer, cfg.FilterTerms...),
		services.Publisher,
		diag,
		worker.Options{
			BVID:       cfg.BVID,
			Segments:   defs,
			Rejections: rejections,
			TopN:       cfg.TopN,
			OutputDir:  cfg.OutputDir,
		},
	), nil
}

// sessionCookie builds the Cookie header from SESSDATA or a saved cookie file
func sessionCookie(cfg *config.Config) string {
	if cfg.CookieFile != "" {
		header, err := helpers.LoadCookieHeader(cfg.CookieFile)
		if err != nil {
			logger.Warn("Failed to load cookie file %s: %v", cfg.CookieFile, err)
		} else if header != "" {
			return header
		}
	}
	if cfg.SessData != "" {
		return "SESSDATA=" + cfg.SessData
	}
	return ""
}
