package steps

import (
	"context"
	"time"

	"github.com/shaiso/Stepwall/internal/engine"
	"github.com/shaiso/Stepwall/internal/providers"
)

const (
	// StepTypeNextTweet — тип шага выбора следующего сообщения.
	StepTypeNextTweet = "next-tweet"
	// StepTypeShowTweet — тип шага показа сообщения.
	StepTypeShowTweet = "show-tweet"

	defaultTweetDuration = 5 * time.Second
)

// NextTweetStep берёт следующее сообщение из буфера и кладёт его
// в scratch state под ключом "tweet". Завершается синхронно.
type NextTweetStep struct{}

// NewNextTweetStep создаёт NextTweetStep.
func NewNextTweetStep(engine.Options) (engine.Step, error) {
	return &NextTweetStep{}, nil
}

// ShouldSkip пропускает шаг, если новых сообщений нет.
func (s *NextTweetStep) ShouldSkip(mc *engine.MachineContext) (bool, error) {
	tweets, err := engine.ProviderAs[*providers.TweetProvider](mc, providers.CapabilityTweets)
	if err != nil {
		return false, err
	}
	return tweets.Pending() == 0, nil
}

// PreferredDuration — шаг мгновенный.
func (s *NextTweetStep) PreferredDuration(*engine.MachineContext) time.Duration {
	return 0
}

// DoStep сохраняет следующее сообщение в state и сразу завершается.
func (s *NextTweetStep) DoStep(_ context.Context, mc *engine.MachineContext) error {
	tweets, err := engine.ProviderAs[*providers.TweetProvider](mc, providers.CapabilityTweets)
	if err != nil {
		return err
	}

	if tweet, ok := tweets.Next(); ok {
		mc.Set(StateTweet, tweet)
	}
	mc.Proceed()
	return nil
}

type showOptions struct {
	Duration time.Duration `mapstructure:"duration"`
}

// ShowTweetStep показывает текущее сообщение и завершается через duration.
//
// Конфигурация:
//
//	duration: 5s
type ShowTweetStep struct {
	display  Display
	duration time.Duration
}

// NewShowTweetStep создаёт ShowTweetStep.
func NewShowTweetStep(display Display, opts engine.Options) (engine.Step, error) {
	cfg := showOptions{Duration: defaultTweetDuration}
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	return &ShowTweetStep{display: display, duration: cfg.Duration}, nil
}

// ShouldSkip пропускает шаг, если показывать нечего.
func (s *ShowTweetStep) ShouldSkip(mc *engine.MachineContext) (bool, error) {
	tweets, err := engine.ProviderAs[*providers.TweetProvider](mc, providers.CapabilityTweets)
	if err != nil {
		return false, err
	}
	_, ok := tweets.Current()
	return !ok, nil
}

// PreferredDuration возвращает duration из конфигурации.
func (s *ShowTweetStep) PreferredDuration(*engine.MachineContext) time.Duration {
	return s.duration
}

// DoStep показывает текущее сообщение и завершается через duration.
func (s *ShowTweetStep) DoStep(ctx context.Context, mc *engine.MachineContext) error {
	tweets, err := engine.ProviderAs[*providers.TweetProvider](mc, providers.CapabilityTweets)
	if err != nil {
		return err
	}

	tweet, ok := tweets.Current()
	if !ok {
		return ErrNothingToShow
	}

	err = s.display.Show(ctx, Frame{
		Kind:     FrameTweet,
		Step:     StepTypeShowTweet,
		Duration: s.duration,
		Tweet:    &tweet,
	})
	if err != nil {
		return err
	}

	proceedAfter(ctx, mc, s.duration)
	return nil
}
