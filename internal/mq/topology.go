package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
//
// Единственный exchange обслуживает wake-hint канал: уведомление о том,
// что появилась или снова доступна activity, ускоряет первый тик Send
// Worker'а, не заменяя polling.
const (
	ExchangeActivities Exchange = "relaygate.activities"
)

// Queues — имена очередей.
const (
	QueueActivitiesWakeup Queue = "activities.wakeup"
)

// Routing keys.
const (
	RoutingKeyWakeup RoutingKey = "wakeup"
)

// SetupTopology объявляет exchange, очередь и binding для wake-hint канала.
// Идемпотентно: повторный вызов на уже существующей топологии безопасен.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		if err := bindQueues(ch); err != nil {
			return err
		}
		return nil
	})
}

// declareExchanges создаёт обменник.
func declareExchanges(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		string(ExchangeActivities), // name
		"direct",                   // type
		true,                       // durable
		false,                      // auto-deleted
		false,                      // internal
		false,                      // no-wait
		nil,                        // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", ExchangeActivities, err)
	}
	return nil
}

// declareQueues создаёт очередь.
func declareQueues(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		string(QueueActivitiesWakeup), // name
		true,                          // durable
		false,                         // delete when unused
		false,                         // exclusive
		false,                         // no-wait
		nil,                           // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", QueueActivitiesWakeup, err)
	}
	return nil
}

// bindQueues привязывает очередь к обменнику.
func bindQueues(ch *amqp.Channel) error {
	err := ch.QueueBind(
		string(QueueActivitiesWakeup), // queue name
		string(RoutingKeyWakeup),      // routing key
		string(ExchangeActivities),    // exchange
		false,                         // no-wait
		nil,                           // arguments
	)
	if err != nil {
		return fmt.Errorf("bind queue %s to %s: %w", QueueActivitiesWakeup, ExchangeActivities, err)
	}
	return nil
}

// TopologyInfo возвращает описание топологии для логирования при старте.
func TopologyInfo() string {
	return `
  relaygate RabbitMQ Topology:

    relaygate.activities (direct)
    └── activities.wakeup [routing: wakeup]
            Consumer: Send Worker (wake-hint only, polling остаётся authoritative)
  `
}
