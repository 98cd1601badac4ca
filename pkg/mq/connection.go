package mq

import (
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"taskvault/pkg/config"
)

// NewConnection dials the broker and tags the connection with cfg.ConnectionName.
func NewConnection(cfg config.MQConfig) (*amqp091.Connection, error) {
	props := amqp091.NewConnectionProperties()
	props.SetClientConnectionName(cfg.ConnectionName)

	conn, err := amqp091.DialConfig(cfg.URL, amqp091.Config{Properties: props})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// DeclareExchange declares the exchange task events go to.
func DeclareExchange(ch *amqp091.Channel, cfg config.MQConfig) error {
	return ch.ExchangeDeclare(
		cfg.Exchange,
		cfg.ExchangeKind,
		*cfg.Durable,
		false,
		false,
		false,
		nil,
	)
}
