package steps

import (
	"context"
	"time"

	"github.com/shaiso/Stepwall/internal/engine"
	"github.com/shaiso/Stepwall/internal/providers"
)

const (
	// StepTypeShowWordCloud — тип шага показа облака слов.
	StepTypeShowWordCloud = "show-wordcloud"

	defaultWordCloudDuration = 10 * time.Second
)

// ShowWordCloudStep показывает облако слов.
type ShowWordCloudStep struct {
	display  Display
	duration time.Duration
}

// NewShowWordCloudStep создаёт ShowWordCloudStep.
func NewShowWordCloudStep(display Display, opts engine.Options) (engine.Step, error) {
	cfg := showOptions{Duration: defaultWordCloudDuration}
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	return &ShowWordCloudStep{display: display, duration: cfg.Duration}, nil
}

func words(mc *engine.MachineContext) ([]providers.Word, error) {
	cloud, err := engine.ProviderAs[*providers.WordCloudProvider](mc, providers.CapabilityWordCloud)
	if err != nil {
		return nil, err
	}
	return cloud.Words(), nil
}

// ShouldSkip пропускает шаг, пока облако пустое.
func (s *ShowWordCloudStep) ShouldSkip(mc *engine.MachineContext) (bool, error) {
	list, err := words(mc)
	if err != nil {
		return false, err
	}
	return len(list) == 0, nil
}

// PreferredDuration возвращает duration из конфигурации.
func (s *ShowWordCloudStep) PreferredDuration(*engine.MachineContext) time.Duration {
	return s.duration
}

// DoStep показывает облако и завершается через duration.
func (s *ShowWordCloudStep) DoStep(ctx context.Context, mc *engine.MachineContext) error {
	list, err := words(mc)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return ErrNothingToShow
	}

	err = s.display.Show(ctx, Frame{
		Kind:     FrameWordCloud,
		Step:     StepTypeShowWordCloud,
		Duration: s.duration,
		Words:    list,
	})
	if err != nil {
		return err
	}

	proceedAfter(ctx, mc, s.duration)
	return nil
}
