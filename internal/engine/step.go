package engine

import (
	"context"
	"time"
)

// Capability — тип данных, который предоставляет data provider
// и который может требовать шаг (например, "tweets", "sessions").
type Capability string

// Step — единица работы в цикле стены.
//
// Engine не знает, что делает шаг. Он только спрашивает, нужно ли его
// пропустить, запускает его и ждёт сигнала завершения.
type Step interface {
	// ShouldSkip решает, пропустить ли шаг в этом проходе.
	// Не должен иметь побочных эффектов: вызывается каждый раз,
	// когда цикл доходит до шага.
	ShouldSkip(mc *MachineContext) (bool, error)

	// PreferredDuration — желаемая длительность шага.
	// Используется для диагностики и темпа, engine не прерывает шаг по ней.
	PreferredDuration(mc *MachineContext) time.Duration

	// DoStep выполняет работу шага.
	//
	// Шаг обязан ровно один раз подать сигнал завершения через
	// mc.Proceed() (или Restart/Terminate): либо до возврата из DoStep,
	// либо позже из горутины, таймера или callback'а. mc привязан к этой
	// активации: повторный или поздний сигнал игнорируется и не
	// завершает следующий шаг.
	//
	// Возврат ошибки означает, что шаг не выполнен; engine логирует её
	// и переходит к следующему шагу, как если бы шаг завершился.
	DoStep(ctx context.Context, mc *MachineContext) error
}

// DataProvider — источник данных, общий для всех шагов одного engine.
//
// Экземпляр создаётся один раз при старте и живёт до Engine.Close.
// Если provider обновляется в фоне, он сам отвечает за свою потокобезопасность.
type DataProvider interface {
	// Name возвращает идентификатор provider'а для логов.
	Name() string
}

// Refresher — data provider, обновляющий данные в фоне.
// Start вызывается один раз перед первым циклом и должен вернуться,
// когда ctx отменён.
type Refresher interface {
	Start(ctx context.Context) error
}

// StepFactory — фабрика шагов одного типа.
type StepFactory struct {
	// ID — идентификатор, по которому шаг указывается в конфигурации.
	ID string

	// Requires — capability, без которых шаг не может работать.
	Requires []Capability

	// New создаёт экземпляр шага из его конфигурации.
	New func(opts Options) (Step, error)
}

// ProviderFactory — фабрика data provider'ов одного типа.
type ProviderFactory struct {
	// ID — идентификатор, по которому provider указывается в конфигурации.
	ID string

	// Provides — capability, под которыми регистрируется экземпляр.
	Provides []Capability

	// New создаёт экземпляр provider'а из его конфигурации.
	New func(opts Options) (DataProvider, error)
}
