package publisher

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
)

// PublishedAtField is written next to every report so consumers can order late deliveries
const PublishedAtField = "published_at"

// RedisOptions configures the stream fan-out of a RedisPublisher
type RedisOptions struct {
	Addr string
	DB   int
	// Stream is the stream name prefix; reports go to Stream:0 .. Stream:Count-1
	Stream    string
	Count     int
	MaxLength int
}

// RedisPublisher publishes reports onto a set of Redis streams
type RedisPublisher struct {
	client *redis.Client
	opts   RedisOptions
	now    func() time.Time
}

// NewRedisPublisher creates a publisher; Count below 1 is treated as a single stream
func NewRedisPublisher(opts RedisOptions) *RedisPublisher {
	if opts.Count < 1 {
		opts.Count = 1
	}
	return &RedisPublisher{
		client: redis.NewClient(&redis.Options{Addr: opts.Addr, DB: opts.DB}),
		opts:   opts,
		now:    time.Now,
	}
}

// Ping checks the connection
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *RedisPublisher) streamName(i int) string {
	return fmt.Sprintf("%s:%d", p.opts.Stream, i)
}

// Stream picks the stream the next report goes to
func (p *RedisPublisher) Stream() string {
	return p.streamName(rand.IntN(p.opts.Count))
}

// Publish adds message, base64 encoded, under the field key
func (p *RedisPublisher) Publish(ctx context.Context, key string, message []byte) error {
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.Stream(),
		Values: map[string]interface{}{
			key:              base64.StdEncoding.EncodeToString(message),
			PublishedAtField: p.now().UTC().Format(time.RFC3339),
		},
	}).Err()
}

// TrimStreams caps every stream at MaxLength entries; it is a no-op without a limit
func (p *RedisPublisher) TrimStreams(ctx context.Context) error {
	if p.opts.MaxLength <= 0 {
		return nil
	}
	for i := 0; i < p.opts.Count; i++ {
		if err := p.client.XTrimMaxLen(ctx, p.streamName(i), int64(p.opts.MaxLength)).Err(); err != nil {
			return fmt.Errorf("trim %s: %w", p.streamName(i), err)
		}
	}
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
