package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	// MessageTypeActivityWake — hint о том, что activity стала leasable
	// (создана либо requeued) и Send Worker может забрать её раньше
	// следующего polling-тика.
	MessageTypeActivityWake MessageType = "activity.wake"

	// MessageTypeActivityRequeued — hint о том, что Requeue Worker перевёл
	// батч activities из SENT_FAILED обратно в SCHEDULED.
	MessageTypeActivityRequeued MessageType = "activity.requeued"
)

// Publisher публикует wake-hint сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// ActivityWakePayload — payload для hint'а о leasable activity.
type ActivityWakePayload struct {
	ActivityID uuid.UUID `json:"activity_id"`
}

// ActivityRequeuedPayload — payload для hint'а о requeue-батче. Requeue
// Worker переводит строки bulk-запросом и не знает отдельных id, поэтому
// hint на уровне батча, а не на уровне activity, как у ActivityWakePayload.
type ActivityRequeuedPayload struct {
	Count int `json:"count"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishActivityWake публикует wake-hint для данной activity. Ошибки
// публикации не фатальны для вызывающей стороны — polling остаётся
// единственным authoritative источником работы.
func (p *Publisher) PublishActivityWake(ctx context.Context, activityID uuid.UUID) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeActivityWake,
		Payload:   ActivityWakePayload{ActivityID: activityID},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeActivities, RoutingKeyWakeup, msg)
}

// PublishActivityRequeued публикует hint о том, что Requeue Worker вернул
// count activities в SCHEDULED. Как и PublishActivityWake, это чистый
// latency-хинт на ту же wake-очередь: Send Worker реагирует на него тем же
// внеочередным поллом, не различая, что activity стала leasable впервые
// или снова после SENT_FAILED.
func (p *Publisher) PublishActivityRequeued(ctx context.Context, count int) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeActivityRequeued,
		Payload:   ActivityRequeuedPayload{Count: count},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeActivities, RoutingKeyWakeup, msg)
}
