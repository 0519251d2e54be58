package providers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/shaiso/Stepwall/internal/domain"
	"github.com/shaiso/Stepwall/internal/engine"
	"github.com/shaiso/Stepwall/internal/mq"
)

const defaultHistory = 50

type tweetOptions struct {
	// History — сколько непоказанных сообщений хранить. Старые вытесняются.
	History int `mapstructure:"history"`

	// Queue — AMQP очередь входящих сообщений (пусто — без очереди).
	Queue string `mapstructure:"queue"`

	// StopWords — сообщения с этими словами не показываются.
	StopWords []string `mapstructure:"stop_words"`

	// Seed — тексты, которые сразу попадают в буфер.
	Seed []string `mapstructure:"seed"`

	// WordKey — sorted set в Redis, куда считаются слова сообщений.
	WordKey string `mapstructure:"word_key"`
}

// TweetProvider — буфер сообщений для показа.
//
// Сообщения приходят через Push (из очереди RabbitMQ или напрямую),
// шаги забирают их по одному через Next.
type TweetProvider struct {
	history int
	stop    *StopList
	logger  *slog.Logger

	conn  *mq.Connection
	queue string
	words *WordCounter

	mu      sync.Mutex
	pending []domain.Tweet
	current *domain.Tweet
	dropped int
}

// NewTweetProvider создаёт TweetProvider из опций.
func NewTweetProvider(opts engine.Options, infra Infra) (*TweetProvider, error) {
	cfg := tweetOptions{History: defaultHistory}
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	if cfg.History <= 0 {
		return nil, fmt.Errorf("%w: history must be positive", engine.ErrInvalidOptions)
	}

	p := &TweetProvider{
		history: cfg.History,
		stop:    NewStopList(cfg.StopWords...),
		logger:  infra.logger().With("provider", CapabilityTweets),
		queue:   cfg.Queue,
	}

	if cfg.Queue != "" {
		if infra.MQ == nil {
			p.logger.Warn("queue configured but RabbitMQ is not available", "queue", cfg.Queue)
		}
		p.conn = infra.MQ
	}

	if cfg.WordKey != "" {
		if infra.Redis == nil {
			return nil, fmt.Errorf("%w: word_key requires redis", ErrNoRedis)
		}
		p.words = NewWordCounter(infra.Redis, cfg.WordKey, DefaultStopList())
	}

	for i, text := range cfg.Seed {
		p.Push(domain.Tweet{
			ID:   fmt.Sprintf("seed-%d", i+1),
			Text: text,
			User: domain.User{Name: "Stepwall", ScreenName: "stepwall"},
		})
	}

	return p, nil
}

// Name реализует engine.DataProvider.
func (p *TweetProvider) Name() string {
	return string(CapabilityTweets)
}

// Push добавляет сообщение в буфер. Возвращает false, если сообщение
// отброшено стоп-листом.
func (p *TweetProvider) Push(tweet domain.Tweet) bool {
	if p.stop.Matches(tweet.Origin().Text) {
		p.logger.Debug("tweet dropped by stop list", "tweet_id", tweet.ID)
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending = append(p.pending, tweet)
	if over := len(p.pending) - p.history; over > 0 {
		p.pending = p.pending[over:]
		p.dropped += over
	}
	return true
}

// Next делает следующее непоказанное сообщение текущим.
// false — буфер пуст, текущее сообщение не меняется.
func (p *TweetProvider) Next() (domain.Tweet, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pending) == 0 {
		return domain.Tweet{}, false
	}

	tweet := p.pending[0]
	p.pending = p.pending[1:]
	p.current = &tweet
	return tweet, true
}

// Current возвращает текущее сообщение.
func (p *TweetProvider) Current() (domain.Tweet, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return domain.Tweet{}, false
	}
	return *p.current, true
}

// Pending возвращает количество непоказанных сообщений.
func (p *TweetProvider) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Dropped возвращает количество сообщений, вытесненных из переполненного буфера.
func (p *TweetProvider) Dropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Start потребляет очередь входящих сообщений до отмены ctx.
// Без очереди сразу возвращается.
func (p *TweetProvider) Start(ctx context.Context) error {
	if p.conn == nil || p.queue == "" {
		return nil
	}

	consumer := mq.NewConsumer(p.conn, p.logger, mq.ConsumerConfig{
		Queue:    p.queue,
		Handler:  p.handle,
		Prefetch: 10,
	})
	return consumer.Start(ctx)
}

// handle обрабатывает сообщение из очереди.
func (p *TweetProvider) handle(ctx context.Context, d *mq.Delivery) error {
	if d.Message.Type != mq.MessageTypeTweetReceived {
		p.logger.Warn("unexpected message type", "type", d.Message.Type)
		return nil
	}

	tweet, err := mq.ParsePayload[domain.Tweet](&d.Message)
	if err != nil {
		return err
	}

	p.accept(ctx, tweet)
	return nil
}

// PublishTweet кладёт сообщение прямо в буфер, минуя очередь.
// Сообщение из стоп-листа молча отбрасывается.
func (p *TweetProvider) PublishTweet(ctx context.Context, tweet domain.Tweet) error {
	p.accept(ctx, tweet)
	return nil
}

// Queue возвращает очередь, из которой provider получает сообщения ("" — без очереди).
func (p *TweetProvider) Queue() string {
	if p.conn == nil {
		return ""
	}
	return p.queue
}

// accept добавляет сообщение в буфер и считает его слова.
func (p *TweetProvider) accept(ctx context.Context, tweet domain.Tweet) {
	if !p.Push(tweet) {
		return
	}

	if p.words != nil {
		if err := p.words.Record(ctx, tweet.Origin().Text); err != nil {
			p.logger.Warn("failed to count words", "tweet_id", tweet.ID, "error", err)
		}
	}
}

// WordCounter считает слова сообщений в sorted set Redis.
type WordCounter struct {
	client *redis.Client
	key    string
	stop   *StopList
}

// NewWordCounter создаёт WordCounter.
func NewWordCounter(client *redis.Client, key string, stop *StopList) *WordCounter {
	return &WordCounter{client: client, key: key, stop: stop}
}

// Record увеличивает счётчики слов текста.
func (w *WordCounter) Record(ctx context.Context, text string) error {
	words := w.stop.Tokenize(text)
	if len(words) == 0 {
		return nil
	}

	pipe := w.client.Pipeline()
	for _, word := range words {
		pipe.ZIncrBy(ctx, w.key, 1, word)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record words: %w", err)
	}
	return nil
}
