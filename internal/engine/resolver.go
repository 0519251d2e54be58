package engine

import (
	"fmt"
	"log/slog"

	"github.com/shaiso/Stepwall/internal/domain"
)

// ResolvedStep — шаг, готовый к запуску.
type ResolvedStep struct {
	// Index — позиция в цикле.
	Index int

	// ID — идентификатор реализации (StepDefinition.Step).
	ID string

	// Name — имя для логов и метрик.
	Name string

	// Requires — capability, которые шаг объявил.
	Requires []Capability

	// Step — экземпляр шага.
	Step Step
}

// Resolution — результат Resolve: шаги в порядке конфигурации и MachineContext.
type Resolution struct {
	Steps   []ResolvedStep
	Context *MachineContext
}

// Resolve превращает конфигурацию в живые экземпляры шагов и provider'ов.
//
//  1. Создаёт provider'ы и регистрирует их под объявленными capability.
//     Две регистрации одной capability — ErrDuplicateProvider.
//  2. Для каждого шага находит фабрику, запоминает требуемые capability,
//     создаёт экземпляр.
//  3. Проверяет, что каждая требуемая capability предоставлена.
//  4. Строит MachineContext.
//
// Любая ошибка возвращается до запуска цикла; уже созданные provider'ы
// при этом закрываются.
func Resolve(settings domain.Settings, registry *Registry, logger *slog.Logger) (*Resolution, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if len(settings.Steps) == 0 {
		return nil, &ConfigError{StepIndex: -1, Message: "no steps configured", Err: ErrNoSteps}
	}

	// 1. Provider'ы
	providers, created, err := resolveProviders(settings.DataProviders, registry)
	if err != nil {
		closeProviders(created)
		return nil, err
	}

	// 2. Шаги
	steps := make([]ResolvedStep, 0, len(settings.Steps))
	for i, def := range settings.Steps {
		rs, err := resolveStep(i, def, registry)
		if err != nil {
			closeProviders(created)
			return nil, err
		}
		steps = append(steps, rs)
	}

	// 3. Зависимости
	for i := range steps {
		rs := &steps[i]
		for _, capability := range rs.Requires {
			if _, ok := providers[capability]; !ok {
				closeProviders(created)
				return nil, newStepError(rs.ID, rs.Index, capability,
					fmt.Sprintf("requires data provider %q which is not configured", capability),
					ErrUnmetDependency)
			}
		}
	}

	// 4. MachineContext
	mc := NewMachineContext(providers, logger)

	logger.Info("step engine configuration resolved",
		"steps", len(steps),
		"providers", len(created),
	)

	return &Resolution{Steps: steps, Context: mc}, nil
}

// resolveProviders создаёт provider'ы. Возвращает карту capability → provider
// и список созданных экземпляров (для закрытия при ошибке).
func resolveProviders(defs []domain.DataProviderDefinition, registry *Registry) (map[Capability]DataProvider, []DataProvider, error) {
	providers := make(map[Capability]DataProvider)
	owners := make(map[Capability]string)
	created := make([]DataProvider, 0, len(defs))

	for _, def := range defs {
		factory, err := registry.Provider(def.DataProvider)
		if err != nil {
			return nil, created, newProviderError(def.DataProvider, "",
				fmt.Sprintf("unknown data provider %q", def.DataProvider), err)
		}

		// Проверяем дубликаты до создания: лишний provider не должен открывать соединения
		for _, capability := range factory.Provides {
			if owner, exists := owners[capability]; exists {
				return nil, created, newProviderError(def.DataProvider, capability,
					fmt.Sprintf("capability %q already provided by %q", capability, owner),
					ErrDuplicateProvider)
			}
		}

		provider, err := factory.New(Options(def.Config))
		if err != nil {
			return nil, created, newProviderError(def.DataProvider, "",
				"construction failed: "+err.Error(),
				fmt.Errorf("%w: %w", ErrProviderConstruction, err))
		}
		if provider == nil {
			return nil, created, newProviderError(def.DataProvider, "",
				"factory returned no provider", ErrProviderConstruction)
		}
		created = append(created, provider)

		for _, capability := range factory.Provides {
			providers[capability] = provider
			owners[capability] = def.DataProvider
		}
	}

	return providers, created, nil
}

// resolveStep создаёт один шаг.
func resolveStep(index int, def domain.StepDefinition, registry *Registry) (ResolvedStep, error) {
	factory, err := registry.Step(def.Step)
	if err != nil {
		return ResolvedStep{}, newStepError(def.Step, index, "",
			fmt.Sprintf("unknown step %q at position %d", def.Step, index), err)
	}

	step, err := factory.New(Options(def.Config))
	if err != nil {
		return ResolvedStep{}, newStepError(def.Step, index, "",
			"construction failed: "+err.Error(),
			fmt.Errorf("%w: %w", ErrStepConstruction, err))
	}
	if step == nil {
		return ResolvedStep{}, newStepError(def.Step, index, "",
			"factory returned no step", ErrStepConstruction)
	}

	return ResolvedStep{
		Index:    index,
		ID:       def.Step,
		Name:     def.DisplayName(),
		Requires: append([]Capability(nil), factory.Requires...),
		Step:     step,
	}, nil
}

// Check проверяет конфигурацию без создания шагов и provider'ов:
// известны ли идентификаторы, нет ли дубликатов capability, все ли
// зависимости шагов предоставлены. Опции экземпляров не проверяются.
func Check(settings domain.Settings, registry *Registry) error {
	if len(settings.Steps) == 0 {
		return &ConfigError{StepIndex: -1, Message: "no steps configured", Err: ErrNoSteps}
	}

	owners := make(map[Capability]string)
	for _, def := range settings.DataProviders {
		factory, err := registry.Provider(def.DataProvider)
		if err != nil {
			return newProviderError(def.DataProvider, "",
				fmt.Sprintf("unknown data provider %q", def.DataProvider), err)
		}
		for _, capability := range factory.Provides {
			if owner, exists := owners[capability]; exists {
				return newProviderError(def.DataProvider, capability,
					fmt.Sprintf("capability %q already provided by %q", capability, owner),
					ErrDuplicateProvider)
			}
			owners[capability] = def.DataProvider
		}
	}

	for i, def := range settings.Steps {
		factory, err := registry.Step(def.Step)
		if err != nil {
			return newStepError(def.Step, i, "",
				fmt.Sprintf("unknown step %q at position %d", def.Step, i), err)
		}
		for _, capability := range factory.Requires {
			if _, ok := owners[capability]; !ok {
				return newStepError(def.Step, i, capability,
					fmt.Sprintf("requires data provider %q which is not configured", capability),
					ErrUnmetDependency)
			}
		}
	}

	return nil
}
