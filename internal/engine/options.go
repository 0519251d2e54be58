package engine

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Options — конфигурация экземпляра шага или provider'а.
//
// Значения приходят из YAML как есть: числа, строки, вложенные map.
// Фабрики разбирают их через Decode в типизированную структуру
// или точечно через String.
type Options map[string]any

// Decode разбирает опции в out (указатель на структуру с тегами mapstructure).
//
// Строки вида "5s" и числа миллисекунд приводятся к time.Duration, "10" к числам.
// Неизвестные ключи — ошибка: опечатка в конфиге не должна молча игнорироваться.
func (o Options) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			millisToDurationHook,
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	if err := decoder.Decode(map[string]any(o)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}

// millisToDurationHook трактует числа как миллисекунды, если поле — time.Duration.
func millisToDurationHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}

	switch n := data.(type) {
	case int:
		return time.Duration(n) * time.Millisecond, nil
	case int64:
		return time.Duration(n) * time.Millisecond, nil
	case uint64:
		return time.Duration(n) * time.Millisecond, nil
	case float64:
		return time.Duration(n * float64(time.Millisecond)), nil
	}
	return data, nil
}

// Without возвращает копию опций без указанных ключей.
func (o Options) Without(keys ...string) Options {
	result := make(Options, len(o))
	for k, v := range o {
		result[k] = v
	}
	for _, k := range keys {
		delete(result, k)
	}
	return result
}

// String извлекает строковое значение. Отсутствующий ключ — пустая строка,
// значение другого типа — ErrInvalidOptions.
func (o Options) String(key string) (string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidOptions, key, v)
	}
	return s, nil
}
