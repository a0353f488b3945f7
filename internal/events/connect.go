// Package events публикует события аудита в RabbitMQ.
// Потребители (почтовый сервис, аналитика) живут вне этого сервиса.
package events

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/streadway/amqp"
)

// Connect устанавливает соединение с RabbitMQ. Попытки повторяются
// с экспоненциальной задержкой, начиная с delay, не больше retries раз.
func Connect(connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "events.Connect"

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = delay

	conn, err := backoff.RetryWithData(func() (*amqp.Connection, error) {
		return amqp.Dial(connection)
	}, backoff.WithMaxRetries(policy, uint64(retries)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return conn, nil
}
