// Package reconciler реализует периодические воркеры, которые возвращают
// застрявшие activities к прогрессу: Requeue, Retry-Reply и Cleanup.
//
// Структура:
//   - requeue.go    — SENT_FAILED → SCHEDULED
//   - retryreply.go — повторная доставка reply для REPLY_FAILED
//   - cleanup.go    — удаление просроченных COMPLETED activities и их Response
//   - cron.go       — драйвер тиков на robfig/cron/v3
//
// Все три воркера работают батчами и идемпотентны: повторный тик без новых
// кандидатов не меняет множество состояний. Это позволяет запускать
// reconciler на нескольких узлах без leader election — каждая операция
// просто перечитывает текущее множество кандидатов и переписывает его,
// так что параллельный запуск того же воркера на двух узлах не портит
// результат, в отличие от планировщика с понятием "due time", где два
// узла могли бы продублировать один и тот же запуск.
package reconciler
