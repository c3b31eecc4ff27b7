// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go        — Handler с DI (Store Gateway, publisher, logger)
//   - routes.go         — регистрация маршрутов
//   - middleware.go     — middleware (logging, recovery)
//   - response.go       — унифицированные JSON-ответы, {message, reference} и обработка ошибок
//   - submit_handler.go — /submit (любой HTTP-метод)
//   - status_handler.go — GET /message
//
// API предоставляет внешний HTTP контракт прокси: приём запроса на
// доставку и опрос его статуса.
package api
