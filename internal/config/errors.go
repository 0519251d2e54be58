package config

import "errors"

var (
	// ErrInvalidYAML — файл не разбирается как YAML.
	ErrInvalidYAML = errors.New("invalid yaml")

	// ErrMissingSection — в файле нет секции stepEngine.
	ErrMissingSection = errors.New("missing stepEngine section")

	// ErrNoSteps — секция stepEngine не содержит шагов.
	ErrNoSteps = errors.New("stepEngine has no steps")

	// ErrMissingStepID — у записи шага не указан step.
	ErrMissingStepID = errors.New("step entry without step id")

	// ErrMissingProviderID — у записи provider'а не указан dataProvider.
	ErrMissingProviderID = errors.New("data provider entry without dataProvider id")
)
