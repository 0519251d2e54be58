package engine

import "errors"

// Ошибки конфигурации. Фатальны при старте: engine не начинает цикл.
var (
	// ErrNoSteps — конфигурация не содержит шагов.
	ErrNoSteps = errors.New("step engine has no steps")

	// ErrUnknownStep — нет фабрики шага с таким идентификатором.
	ErrUnknownStep = errors.New("unknown step")

	// ErrUnknownProvider — нет фабрики data provider'а с таким идентификатором.
	ErrUnknownProvider = errors.New("unknown data provider")

	// ErrDuplicateProvider — две фабрики предоставляют одну и ту же capability.
	ErrDuplicateProvider = errors.New("duplicate data provider registration")

	// ErrUnmetDependency — шаг требует capability, которую никто не предоставляет.
	ErrUnmetDependency = errors.New("unmet data provider dependency")

	// ErrStepConstruction — фабрика шага вернула ошибку.
	ErrStepConstruction = errors.New("step construction failed")

	// ErrProviderConstruction — фабрика data provider'а вернула ошибку.
	ErrProviderConstruction = errors.New("data provider construction failed")

	// ErrInvalidOptions — конфигурация шага или provider'а не разбирается.
	ErrInvalidOptions = errors.New("invalid options")
)

// Ошибки выполнения.
var (
	// ErrMissingProvider — шаг запросил capability, которой нет в MachineContext.
	// При успешном Resolve возникает только при ошибке в коде шага.
	ErrMissingProvider = errors.New("missing data provider")

	// ErrProviderType — provider не реализует ожидаемый шагом тип.
	ErrProviderType = errors.New("data provider has unexpected type")

	// ErrStepPanic — шаг запаниковал в ShouldSkip или DoStep.
	ErrStepPanic = errors.New("step panicked")

	// ErrEngineRunning — операция невозможна, пока цикл выполняется.
	ErrEngineRunning = errors.New("step engine is running")

	// ErrEngineStopped — engine остановлен; для повторного запуска нужен Reset.
	ErrEngineStopped = errors.New("step engine is stopped")
)

// ConfigError — ошибка конфигурации с контекстом.
type ConfigError struct {
	StepID     string     // идентификатор шага (если ошибка относится к шагу)
	StepIndex  int        // позиция шага в списке, -1 если не относится к шагу
	ProviderID string     // идентификатор provider'а (если относится к provider'у)
	Capability Capability // capability (для ErrUnmetDependency и ErrDuplicateProvider)
	Message    string     // описание ошибки
	Err        error      // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ConfigError) Error() string {
	switch {
	case e.StepID != "":
		return "step " + e.StepID + ": " + e.Message
	case e.ProviderID != "":
		return "data provider " + e.ProviderID + ": " + e.Message
	default:
		return e.Message
	}
}

// Unwrap возвращает базовую ошибку.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// newStepError создаёт ошибку конфигурации шага.
func newStepError(stepID string, index int, capability Capability, message string, err error) *ConfigError {
	return &ConfigError{
		StepID:     stepID,
		StepIndex:  index,
		Capability: capability,
		Message:    message,
		Err:        err,
	}
}

// newProviderError создаёт ошибку конфигурации provider'а.
func newProviderError(providerID string, capability Capability, message string, err error) *ConfigError {
	return &ConfigError{
		StepIndex:  -1,
		ProviderID: providerID,
		Capability: capability,
		Message:    message,
		Err:        err,
	}
}
