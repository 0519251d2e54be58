// Package steps содержит шаги стены: выбор и показ сообщений, расписания,
// облака слов, паузы и управление циклом.
//
// # Обзор
//
// Шаги реализуют engine.Step и регистрируются в engine.Registry через Register.
// Шаги показа не рисуют сами: они передают Frame в Display
// (LogDisplay, RecordingDisplay или внешний рендерер).
//
// Шаги обмениваются данными через scratch state MachineContext:
//
//	next-tweet    → state["tweet"]
//	next-sessions → state["sessions"] → show-sessions
//
// # Типы шагов
//
//	next-tweet      берёт следующее сообщение из provider'а tweets
//	show-tweet      показывает текущее сообщение (duration, по умолчанию 5s)
//	next-sessions   выбирает ближайшие доклады
//	show-sessions   показывает доклады (duration 8s, limit)
//	show-wordcloud  показывает облако слов (duration 10s)
//	pause           пауза (duration 1s)
//	restart-cycle   начинает цикл заново, если state["restart"] == true
//	stop-after      останавливает engine после cycles проходов
//
// Длительность задаётся строкой ("1500ms", "5s") или числом миллисекунд.
//
// # skip_when
//
// Любой шаг принимает опцию skip_when — JavaScript выражение (goja).
// Если выражение истинно, шаг пропускается:
//
//	- step: show-wordcloud
//	  config:
//	    skip_when: "cycle % 3 != 0"
//
// # Завершение
//
// Синхронные шаги (next-*, restart-cycle, stop-after) подают сигнал до
// возврата из DoStep. Шаги показа и pause захватывают handle завершения
// и подают Proceed по таймеру; отмена контекста завершает их досрочно.
//
// # Файлы пакета
//
//   - step.go      — ошибки, ключи state, proceedAfter
//   - display.go   — Frame, Display, LogDisplay, RecordingDisplay
//   - guard.go     — SkipGuard и опция skip_when
//   - tweets.go    — next-tweet, show-tweet
//   - sessions.go  — next-sessions, show-sessions
//   - wordcloud.go — show-wordcloud
//   - pause.go     — pause
//   - control.go   — restart-cycle, stop-after
//   - registry.go  — Register
package steps
