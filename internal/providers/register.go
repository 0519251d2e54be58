package providers

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shaiso/Stepwall/internal/engine"
	"github.com/shaiso/Stepwall/internal/mq"
)

// Capability, которые предоставляют provider'ы пакета.
const (
	CapabilityTweets    engine.Capability = "tweets"
	CapabilitySessions  engine.Capability = "sessions"
	CapabilityWordCloud engine.Capability = "wordcloud"
)

// Infra — внешние ресурсы для provider'ов. Любое поле может быть nil:
// provider, которому ресурс обязателен, вернёт ошибку при создании.
type Infra struct {
	MQ       *mq.Connection
	Sessions SlotSource
	Redis    *redis.Client
	Logger   *slog.Logger

	// Clock — источник времени (по умолчанию time.Now).
	Clock func() time.Time
}

func (i Infra) logger() *slog.Logger {
	if i.Logger == nil {
		return slog.Default()
	}
	return i.Logger
}

func (i Infra) clock() func() time.Time {
	if i.Clock == nil {
		return time.Now
	}
	return i.Clock
}

// Register регистрирует фабрики provider'ов пакета.
func Register(reg *engine.Registry, infra Infra) {
	reg.RegisterProvider(engine.ProviderFactory{
		ID:       "tweets",
		Provides: []engine.Capability{CapabilityTweets},
		New: func(opts engine.Options) (engine.DataProvider, error) {
			p, err := NewTweetProvider(opts, infra)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
	})

	reg.RegisterProvider(engine.ProviderFactory{
		ID:       "sessions",
		Provides: []engine.Capability{CapabilitySessions},
		New: func(opts engine.Options) (engine.DataProvider, error) {
			p, err := NewSessionProvider(opts, infra)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
	})

	reg.RegisterProvider(engine.ProviderFactory{
		ID:       "wordcloud",
		Provides: []engine.Capability{CapabilityWordCloud},
		New: func(opts engine.Options) (engine.DataProvider, error) {
			p, err := NewWordCloudProvider(opts, infra)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
	})
}
