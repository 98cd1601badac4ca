// Package events publishes board lifecycle events. Publishing never fails a request.
package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	contracts "taskvault/contracts/mq"
	"taskvault/pkg/circuitbreaker"
	"taskvault/pkg/logger"
	"taskvault/pkg/metrics"
)

// Publisher emits an event for a routing key.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any)
}

// Noop counts events without sending them anywhere.
type Noop struct{}

func (Noop) Publish(_ context.Context, eventType string, _ any) {
	metrics.IncrementTaskEvent(eventType)
}

// Sender is the broker-facing side, implemented by pkg/mq.Publisher.
type Sender interface {
	PublishWithContext(ctx context.Context, routingKey string, payload any) error
}

// BrokerPublisher sends events through a circuit breaker so a dead broker
// costs one fast rejection per event.
type BrokerPublisher struct {
	sender  Sender
	breaker *circuitbreaker.CircuitBreaker
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

func NewBrokerPublisher(sender Sender, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) *BrokerPublisher {
	return &BrokerPublisher{
		sender:  sender,
		breaker: breaker,
		timeout: 2 * time.Second,
		logger:  logger,
		now:     time.Now,
	}
}

func (p *BrokerPublisher) Publish(ctx context.Context, eventType string, payload any) {
	metrics.IncrementTaskEvent(eventType)
	log := logger.WithTrace(ctx, p.logger)

	evt, err := contracts.NewEvent(eventType, payload, p.now().UTC())
	if err != nil {
		log.Error("encode event", zap.String("event", eventType), zap.Error(err))
		return
	}

	err = p.breaker.Execute(func() error {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()
		return p.sender.PublishWithContext(pubCtx, eventType, evt)
	})
	if err != nil {
		log.Warn("publish event failed",
			zap.String("event", eventType),
			zap.String("breaker", p.breaker.State().String()),
			zap.Error(err))
	}
}
