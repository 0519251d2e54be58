// Package cli реализует команды управления стеной через admin API.
//
// # Обзор
//
// Команды работают через HTTP и не импортируют внутренние пакеты системы:
// их можно запускать с любой машины, где доступен admin порт.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для admin API. Инкапсулирует запросы, парсинг ответов
// (DataResponse, ListResponse, ErrorResponse) и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8090")
//	resp, err := client.Engine(ctx)
//
// ## Output
//
// Форматирование вывода: таблицы (text/tabwriter) по умолчанию,
// JSON с флагом --json. Данные идут в stdout, сообщения в stderr:
//
//	stepwall engine frames --json | jq .
//
// ## Commands
//
//   - engine: status, start, stop, frames
//   - tweet: post
//   - slot: show, save, favorite
//
// Каждая группа создаётся фабричной функцией (NewEngineCmd и т.д.),
// принимающей clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
