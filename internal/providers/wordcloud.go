package providers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shaiso/Stepwall/internal/engine"
	"github.com/shaiso/Stepwall/internal/scheduler"
)

// Значения по умолчанию для wordcloud.
const (
	DefaultWordKey          = "stepwall:words"
	defaultWordLimit        = 40
	defaultWordCloudRefresh = 30 * time.Second
)

// Word — слово облака с весом.
type Word struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type wordCloudOptions struct {
	Key             string        `mapstructure:"key"`
	Limit           int           `mapstructure:"limit"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	RefreshCron     string        `mapstructure:"refresh_cron"`
	Timezone        string        `mapstructure:"timezone"`
}

// WordCloudProvider — самые частые слова из sorted set Redis.
type WordCloudProvider struct {
	client   *redis.Client
	key      string
	limit    int
	schedule scheduler.Schedule
	logger   *slog.Logger

	mu    sync.RWMutex
	words []Word
}

// NewWordCloudProvider создаёт WordCloudProvider из опций.
func NewWordCloudProvider(opts engine.Options, infra Infra) (*WordCloudProvider, error) {
	if infra.Redis == nil {
		return nil, ErrNoRedis
	}

	cfg := wordCloudOptions{
		Key:             DefaultWordKey,
		Limit:           defaultWordLimit,
		RefreshInterval: defaultWordCloudRefresh,
	}
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	if cfg.Limit <= 0 || cfg.Key == "" {
		return nil, fmt.Errorf("%w: key and limit are required", engine.ErrInvalidOptions)
	}
	sched, err := scheduler.New(cfg.RefreshCron, cfg.Timezone, cfg.RefreshInterval)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrInvalidOptions, err)
	}

	return &WordCloudProvider{
		client:   infra.Redis,
		key:      cfg.Key,
		limit:    cfg.Limit,
		schedule: sched,
		logger:   infra.logger().With("provider", CapabilityWordCloud),
	}, nil
}

// Name реализует engine.DataProvider.
func (p *WordCloudProvider) Name() string {
	return string(CapabilityWordCloud)
}

// Refresh перечитывает верхушку sorted set.
func (p *WordCloudProvider) Refresh(ctx context.Context) error {
	members, err := p.client.ZRevRangeWithScores(ctx, p.key, 0, int64(p.limit-1)).Result()
	if err != nil {
		return fmt.Errorf("load words: %w", err)
	}

	words := make([]Word, 0, len(members))
	for _, m := range members {
		text, ok := m.Member.(string)
		if !ok {
			continue
		}
		words = append(words, Word{Text: text, Weight: m.Score})
	}

	p.mu.Lock()
	p.words = words
	p.mu.Unlock()

	return nil
}

// Start обновляет слова сразу и затем по расписанию.
func (p *WordCloudProvider) Start(ctx context.Context) error {
	return scheduler.NewRunner(scheduler.Config{
		Schedule: p.schedule,
		Job:      p.Refresh,
		Name:     "word cloud refresh",
		Logger:   p.logger,
	}).Run(ctx)
}

// Words возвращает копию текущих слов, по убыванию веса.
func (p *WordCloudProvider) Words() []Word {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Word(nil), p.words...)
}
