package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Exchange — имя exchange для событий аудита.
const Exchange = "audit"

// Ключи маршрутизации публикуемых событий.
const (
	KeyUserRegistered     = "user.registered"
	KeyUserLogin          = "user.login"
	KeyUserLoginFailed    = "user.login_failed"
	KeyShareCreated       = "share.created"
	KeyShareRevoked       = "share.revoked"
	KeyMigrationCompleted = "migration.completed"
)

// Event — конверт события аудита.
type Event struct {
	Action     string         `json:"action"`
	UserUID    string         `json:"user_uid,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Publisher публикует события в exchange аудита.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher открывает канал и объявляет exchange аудита.
func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	const op = "events.NewPublisher"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = ch.ExchangeDeclare(
		Exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Publisher{ch: ch}, nil
}

// Publish сериализует событие в JSON и публикует его с ключом routingKey.
func (p *Publisher) Publish(routingKey string, event Event) error {
	const op = "events.Publish"
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.ch.Publish(
		Exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает канал публикации.
func (p *Publisher) Close() error {
	return p.ch.Close()
}
