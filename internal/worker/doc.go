// Package worker реализует Send Worker и логику доставки reply, общую
// с Retry-Reply Worker'ом.
//
// Структура:
//   - send.go   — лизинг activity, вызов target, классификация результата
//   - reply.go  — доставка Response на reply URL; используется и Send
//                 Worker'ом (инлайн), и Retry-Reply Worker'ом
//   - retry.go  — повторная доставка reply для уже сохранённого Response,
//                 используется Retry-Reply Worker'ом из пакета reconciler
//   - http.go   — построение/выполнение http.Request из Activity/Response
//   - store.go  — интерфейсы Store Gateway, нужные этому пакету
//   - errors.go — таксономия ошибок воркера
//
// Send Worker — stateless компонент, который:
//   - на каждом тике (по умолчанию 0.5s) лизингует одну самую раннюю
//     activity в state CREATED/SCHEDULED,
//   - выполняет запрос к target и сохраняет результат,
//   - инлайново доставляет ответ на reply URL.
//
// Worker не хранит состояние в памяти между тиками: вся координация — через
// Store Gateway. Несколько экземпляров Worker безопасно работают
// параллельно.
package worker
