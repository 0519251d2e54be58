package steps

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Stepwall/internal/domain"
	"github.com/shaiso/Stepwall/internal/providers"
)

// FrameKind — что показывает кадр.
type FrameKind string

const (
	FrameTweet     FrameKind = "tweet"
	FrameSessions  FrameKind = "sessions"
	FrameWordCloud FrameKind = "wordcloud"
)

// Frame — содержимое, которое шаг передаёт на экран.
type Frame struct {
	Kind     FrameKind        `json:"kind"`
	Step     string           `json:"step"`
	Duration time.Duration    `json:"duration"`
	Tweet    *domain.Tweet    `json:"tweet,omitempty"`
	Sessions []domain.Session `json:"sessions,omitempty"`
	Words    []providers.Word `json:"words,omitempty"`
}

// Display — поверхность, на которую шаги выводят кадры.
// Show не должен блокироваться на время показа кадра.
type Display interface {
	Show(ctx context.Context, frame Frame) error
}

// LogDisplay пишет кадры в лог. Используется без графического вывода.
type LogDisplay struct {
	logger *slog.Logger
}

// NewLogDisplay создаёт LogDisplay.
func NewLogDisplay(logger *slog.Logger) *LogDisplay {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDisplay{logger: logger.With("component", "display")}
}

// Show логирует кадр.
func (d *LogDisplay) Show(ctx context.Context, frame Frame) error {
	attrs := []any{
		"kind", frame.Kind,
		"step", frame.Step,
		"duration", frame.Duration,
	}

	switch frame.Kind {
	case FrameTweet:
		if frame.Tweet != nil {
			origin := frame.Tweet.Origin()
			attrs = append(attrs, "user", origin.User.ScreenName, "text", origin.Text)
		}
	case FrameSessions:
		attrs = append(attrs, "sessions", len(frame.Sessions))
	case FrameWordCloud:
		attrs = append(attrs, "words", len(frame.Words))
	}

	d.logger.InfoContext(ctx, "frame", attrs...)
	return nil
}

// RecordingDisplay запоминает показанные кадры. Последний кадр отдаёт
// admin сервер, тесты проверяют последовательность.
type RecordingDisplay struct {
	next Display
	max  int

	mu     sync.Mutex
	frames []Frame
}

// NewRecordingDisplay создаёт RecordingDisplay, хранящий до max кадров
// и передающий их дальше в next (может быть nil).
func NewRecordingDisplay(next Display, max int) *RecordingDisplay {
	if max <= 0 {
		max = 1
	}
	return &RecordingDisplay{next: next, max: max}
}

// Show запоминает кадр и передаёт его дальше.
func (d *RecordingDisplay) Show(ctx context.Context, frame Frame) error {
	d.mu.Lock()
	d.frames = append(d.frames, frame)
	if over := len(d.frames) - d.max; over > 0 {
		d.frames = d.frames[over:]
	}
	d.mu.Unlock()

	if d.next != nil {
		return d.next.Show(ctx, frame)
	}
	return nil
}

// Frames возвращает копию запомненных кадров.
func (d *RecordingDisplay) Frames() []Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Frame(nil), d.frames...)
}

// Last возвращает последний кадр.
func (d *RecordingDisplay) Last() (Frame, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.frames) == 0 {
		return Frame{}, false
	}
	return d.frames[len(d.frames)-1], true
}
