// Package config загружает настройки Stepwall.
//
// Два источника:
//   - YAML файл с секцией stepEngine: список шагов и data provider'ов
//   - переменные окружения: адреса Postgres, RabbitMQ, Redis и порт admin сервера
//
// Пример файла:
//
//	stepEngine:
//	  dataProviderSettings:
//	    - dataProvider: tweets
//	      config:
//	        history: 50
//	  steps:
//	    - step: next-tweet
//	    - step: show-tweet
//	      config:
//	        duration: 5s
//
// Config проверяет только структуру. Что шаги и provider'ы существуют
// и зависимости между ними выполнены, проверяет engine.Resolve.
package config
