package domain

// EngineState — состояние step engine.
//
// Жизненный цикл:
//
//	IDLE → EVALUATING ⇄ ACTIVE
//	         ↘ STOPPED (по запросу остановки или terminate от шага)
//
// STOPPED — финальное состояние для экземпляра engine.
// Повторный запуск возможен только после Reset.
type EngineState string

const (
	// EngineStateIdle — engine создан, но цикл ещё не запущен.
	EngineStateIdle EngineState = "IDLE"

	// EngineStateEvaluating — engine решает, нужно ли пропустить текущий шаг.
	EngineStateEvaluating EngineState = "EVALUATING"

	// EngineStateActive — шаг запущен и engine ждёт сигнала завершения.
	EngineStateActive EngineState = "ACTIVE"

	// EngineStateStopped — engine остановлен.
	EngineStateStopped EngineState = "STOPPED"
)

// IsTerminal возвращает true, если состояние финальное.
func (s EngineState) IsTerminal() bool {
	return s == EngineStateStopped
}

// IsRunning возвращает true, если цикл выполняется.
func (s EngineState) IsRunning() bool {
	switch s {
	case EngineStateEvaluating, EngineStateActive:
		return true
	default:
		return false
	}
}
