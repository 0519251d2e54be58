package domain

// ConfigKey — ключ корневой секции настроек step engine в YAML файле.
const ConfigKey = "stepEngine"

// Settings — конфигурация step engine.
//
// Settings — это "программа" для стены: упорядоченный список шагов,
// которые engine проходит по кругу, и список data provider'ов,
// которые шаги используют.
type Settings struct {
	// Steps — упорядоченный список шагов.
	// Порядок фиксирован на всё время работы engine.
	Steps []StepDefinition `yaml:"steps" json:"steps"`

	// DataProviders — определения data provider'ов.
	DataProviders []DataProviderDefinition `yaml:"dataProviderSettings" json:"dataProviderSettings"`
}

// StepDefinition — определение шага в конфигурации.
type StepDefinition struct {
	// Step — идентификатор реализации шага (например, "show-tweet").
	Step string `yaml:"step" json:"step"`

	// Name — человекочитаемое имя шага (опционально).
	// Если не задано, используется Step.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Config — конфигурация экземпляра шага.
	Config map[string]any `yaml:"config,omitempty" json:"config,omitempty"`
}

// DisplayName возвращает имя шага для логов и метрик.
func (d StepDefinition) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Step
}

// DataProviderDefinition — определение data provider'а в конфигурации.
type DataProviderDefinition struct {
	// DataProvider — идентификатор реализации provider'а (например, "tweets").
	DataProvider string `yaml:"dataProvider" json:"dataProvider"`

	// Config — конфигурация provider'а.
	Config map[string]any `yaml:"config,omitempty" json:"config,omitempty"`
}
