// Package providers содержит data provider'ы стены.
//
// Provider'ы:
//   - tweets    — буфер сообщений; наполняется из RabbitMQ или seed'ом
//   - sessions  — расписание конференции из Postgres
//   - wordcloud — частые слова из sorted set Redis
//
// Provider'ы с фоновым обновлением реализуют engine.Refresher:
// engine запускает их один раз перед первым циклом. sessions и wordcloud
// обновляются через scheduler.Runner: refresh_interval или refresh_cron.
package providers
