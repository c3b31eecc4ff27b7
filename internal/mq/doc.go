// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchange, очереди, binding
//   - publisher.go  — публикация wake-hint сообщений
//   - consumer.go   — потребление сообщений из очереди
//
// Тип сообщения:
//   - activity.wake — activity стала leasable, Send Worker может забрать
//     её раньше следующего polling-тика
//
// Exchange:
//   - relaygate.activities — единственный exchange для wake-hint канала
//
// AMQP здесь строго вспомогателен: отсутствие соединения с RabbitMQ не
// мешает воркерам работать через polling.
package mq
