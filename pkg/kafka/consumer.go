package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

// MessageHandler is the interface for handling messages from Kafka
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// rejoinDelay spaces out group rejoins after a failed session
const rejoinDelay = 5 * time.Second

// Consumer is a wrapper around sarama.ConsumerGroup
type Consumer struct {
	group      sarama.ConsumerGroup
	topics     []string
	handlers   map[string]MessageHandler
	retryDelay time.Duration
	logger     logger.Logger
}

// ConsumerConfig is the configuration for the Kafka consumer
type ConsumerConfig struct {
	Brokers       []string
	Topics        []string
	ConsumerGroup string
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg ConsumerConfig, logger logger.Logger) (*Consumer, error) {
	if len(cfg.Topics) == 0 {
		return nil, fmt.Errorf("no topics to consume")
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.Version = sarama.V2_1_0_0
	saramaCfg.Consumer.Return.Errors = true
	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return newConsumer(group, cfg.Topics, logger), nil
}

func newConsumer(group sarama.ConsumerGroup, topics []string, logger logger.Logger) *Consumer {
	return &Consumer{
		group:      group,
		topics:     topics,
		handlers:   make(map[string]MessageHandler),
		retryDelay: rejoinDelay,
		logger:     logger,
	}
}

// RegisterHandler registers a message handler for a specific topic
func (c *Consumer) RegisterHandler(topic string, handler MessageHandler) {
	c.handlers[topic] = handler
}

// Run consumes until ctx is done, then closes the group. It rejoins at once after a
// rebalance and after retryDelay when a session fails.
func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.group.Close(); err != nil {
			c.logger.Error("Failed to close consumer group", "error", err)
		}
	}()

	go func() {
		for err := range c.group.Errors() {
			c.logger.Error("Kafka consumer error", "error", err)
		}
	}()

	c.logger.Info("Kafka consumer started", "topics", c.topics)

	for {
		err := c.group.Consume(ctx, c.topics, c)
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return nil
		}
		if ctx.Err() != nil {
			c.logger.Info("Kafka consumer stopped")
			return nil
		}
		if err == nil {
			continue
		}

		c.logger.Error("Kafka consume failed", "error", err)
		select {
		case <-ctx.Done():
			c.logger.Info("Kafka consumer stopped")
			return nil
		case <-time.After(c.retryDelay):
		}
	}
}

// Setup is run at the beginning of a new session, before ConsumeClaim
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim hands each message of a claim to the topic's handler. A message whose
// handler fails is left unmarked and redelivered after the next rebalance.
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := c.handle(session.Context(), msg); err != nil {
				c.logger.Error("Error handling message",
					"error", err,
					"topic", msg.Topic,
					"partition", msg.Partition,
					"offset", msg.Offset)
				return err
			}
			session.MarkMessage(msg, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	c.logger.Debug("Received message from Kafka",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"key", string(msg.Key))

	handler, exists := c.handlers[msg.Topic]
	if !exists {
		c.logger.Warn("No handler registered for topic", "topic", msg.Topic)
		return nil
	}
	return handler.HandleMessage(ctx, msg)
}
