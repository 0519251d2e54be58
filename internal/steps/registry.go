package steps

import (
	"github.com/shaiso/Stepwall/internal/engine"
	"github.com/shaiso/Stepwall/internal/providers"
)

// Register регистрирует все шаги пакета. Шаги показа выводят кадры в display.
//
// Любой шаг принимает опцию skip_when (см. SkipGuard).
func Register(reg *engine.Registry, display Display) {
	withDisplay := func(build func(Display, engine.Options) (engine.Step, error)) func(engine.Options) (engine.Step, error) {
		return func(opts engine.Options) (engine.Step, error) {
			return build(display, opts)
		}
	}

	factories := []engine.StepFactory{
		{
			ID:       StepTypeNextTweet,
			Requires: []engine.Capability{providers.CapabilityTweets},
			New:      NewNextTweetStep,
		},
		{
			ID:       StepTypeShowTweet,
			Requires: []engine.Capability{providers.CapabilityTweets},
			New:      withDisplay(NewShowTweetStep),
		},
		{
			ID:       StepTypeNextSessions,
			Requires: []engine.Capability{providers.CapabilitySessions},
			New:      NewNextSessionsStep,
		},
		{
			ID:  StepTypeShowSessions,
			New: withDisplay(NewShowSessionsStep),
		},
		{
			ID:       StepTypeShowWordCloud,
			Requires: []engine.Capability{providers.CapabilityWordCloud},
			New:      withDisplay(NewShowWordCloudStep),
		},
		{ID: StepTypePause, New: NewPauseStep},
		{ID: StepTypeRestartCycle, New: NewRestartCycleStep},
		{ID: StepTypeStopAfter, New: NewStopAfterStep},
	}

	for _, f := range factories {
		f.New = withSkipWhen(f.New)
		reg.RegisterStep(f)
	}
}
