package engine

import (
	"fmt"
	"sort"
	"sync"
)

// Registry — реестр фабрик шагов и data provider'ов.
//
// Заполняется при старте процесса явными вызовами Register*,
// затем используется Resolve. Потокобезопасен.
type Registry struct {
	mu        sync.RWMutex
	steps     map[string]StepFactory
	providers map[string]ProviderFactory
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		steps:     make(map[string]StepFactory),
		providers: make(map[string]ProviderFactory),
	}
}

// RegisterStep регистрирует фабрику шага.
// Если фабрика с таким ID уже существует, она будет перезаписана.
func (r *Registry) RegisterStep(f StepFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[f.ID] = f
}

// RegisterProvider регистрирует фабрику data provider'а.
// Если фабрика с таким ID уже существует, она будет перезаписана.
func (r *Registry) RegisterProvider(f ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[f.ID] = f
}

// Step возвращает фабрику шага по ID.
// Возвращает ErrUnknownStep, если фабрика не найдена.
func (r *Registry) Step(id string) (StepFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, exists := r.steps[id]
	if !exists {
		return StepFactory{}, fmt.Errorf("%w: %s", ErrUnknownStep, id)
	}
	return f, nil
}

// Provider возвращает фабрику data provider'а по ID.
// Возвращает ErrUnknownProvider, если фабрика не найдена.
func (r *Registry) Provider(id string) (ProviderFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, exists := r.providers[id]
	if !exists {
		return ProviderFactory{}, fmt.Errorf("%w: %s", ErrUnknownProvider, id)
	}
	return f, nil
}

// HasStep проверяет, зарегистрирован ли шаг.
func (r *Registry) HasStep(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.steps[id]
	return exists
}

// HasProvider проверяет, зарегистрирован ли data provider.
func (r *Registry) HasProvider(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.providers[id]
	return exists
}

// StepFactories возвращает все фабрики шагов, отсортированные по ID.
func (r *Registry) StepFactories() []StepFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]StepFactory, 0, len(r.steps))
	for _, f := range r.steps {
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// ProviderFactories возвращает все фабрики provider'ов, отсортированные по ID.
func (r *Registry) ProviderFactories() []ProviderFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ProviderFactory, 0, len(r.providers))
	for _, f := range r.providers {
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// UnregisterStep удаляет фабрику шага.
func (r *Registry) UnregisterStep(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.steps, id)
}

// UnregisterProvider удаляет фабрику data provider'а.
func (r *Registry) UnregisterProvider(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.providers, id)
}
