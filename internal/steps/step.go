package steps

import (
	"context"
	"errors"
	"time"

	"github.com/shaiso/Stepwall/internal/engine"
)

// Ошибки шагов.
var (
	// ErrNothingToShow — шаг запущен, хотя показывать нечего
	// (данные исчезли между ShouldSkip и DoStep).
	ErrNothingToShow = errors.New("nothing to show")

	// ErrInvalidScript — выражение skip_when не компилируется.
	ErrInvalidScript = errors.New("invalid skip_when expression")
)

// Ключи scratch state, которыми обмениваются шаги.
const (
	StateTweet    = "tweet"
	StateSessions = "sessions"
	StateRestart  = "restart"
)

// proceedAfter завершает активацию mc через d.
// Отмена ctx завершает шаг досрочно.
func proceedAfter(ctx context.Context, mc *engine.MachineContext, d time.Duration) {
	completion := mc.Completion()
	if completion == nil {
		return
	}

	if d <= 0 {
		completion.Proceed()
		return
	}

	go func() {
		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-ctx.Done():
		case <-timer.C:
		}
		completion.Proceed()
	}()
}
