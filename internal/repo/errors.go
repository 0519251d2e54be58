package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrInvalidSlot — слот расписания не проходит проверку перед записью.
	ErrInvalidSlot = errors.New("invalid schedule slot")
)
