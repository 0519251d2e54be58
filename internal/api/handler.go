package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/Stepwall/internal/domain"
	"github.com/shaiso/Stepwall/internal/engine"
	"github.com/shaiso/Stepwall/internal/steps"
)

// Engine — управление step engine (*engine.Engine).
type Engine interface {
	Status() engine.Status
	Start(ctx context.Context) error
	RequestStop()
	Reset() error
}

// FrameSource — последние показанные кадры (*steps.RecordingDisplay).
type FrameSource interface {
	Frames() []steps.Frame
	Last() (steps.Frame, bool)
}

// TweetSink принимает сообщения для стены (*mq.Publisher или буфер provider'а).
type TweetSink interface {
	PublishTweet(ctx context.Context, tweet domain.Tweet) error
}

// ScheduleStore — расписание (*repo.SessionRepo).
type ScheduleStore interface {
	GetSlot(ctx context.Context, id string) (*domain.ScheduleSlot, error)
	SaveSlot(ctx context.Context, slot domain.ScheduleSlot) error
	UpdateFavorites(ctx context.Context, id string, favorites int) error
}

// Handler — обработчик admin API с зависимостями.
type Handler struct {
	engine   Engine
	frames   FrameSource
	tweets   TweetSink
	schedule ScheduleStore
	gatherer prometheus.Gatherer
	runCtx   context.Context
	clock    func() time.Time
	logger   *slog.Logger
}

// Config — конфигурация для создания Handler.
// Frames, Tweets и Schedule опциональны: без них маршруты отвечают 503.
type Config struct {
	Engine   Engine
	Frames   FrameSource
	Tweets   TweetSink
	Schedule ScheduleStore

	// Gatherer — источник метрик для /metrics (по умолчанию prometheus.DefaultGatherer).
	Gatherer prometheus.Gatherer

	// RunContext — контекст, в котором запускается engine по POST /engine/start.
	RunContext context.Context

	Clock  func() time.Time
	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	h := &Handler{
		engine:   cfg.Engine,
		frames:   cfg.Frames,
		tweets:   cfg.Tweets,
		schedule: cfg.Schedule,
		gatherer: cfg.Gatherer,
		runCtx:   cfg.RunContext,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	}

	if h.gatherer == nil {
		h.gatherer = prometheus.DefaultGatherer
	}
	if h.runCtx == nil {
		h.runCtx = context.Background()
	}
	if h.clock == nil {
		h.clock = time.Now
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}
