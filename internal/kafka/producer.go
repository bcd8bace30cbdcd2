package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/oms-service/internal/metrics"
	"github.com/trogers1052/oms-service/internal/models"
)

// messageWriter is the subset of *kafka.Writer the producer uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes catalog and ledger change events to Kafka
type Producer struct {
	writer messageWriter
	topic  string
	log    zerolog.Logger
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string, log zerolog.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
		log:    log.With().Str("component", "kafka_producer").Str("topic", topic).Logger(),
	}
}

// PublishAsset publishes an ASSET_* event for the given asset
func (p *Producer) PublishAsset(ctx context.Context, eventType string, asset *models.Asset) {
	p.Publish(ctx, models.EntityEvent{
		EventType: eventType,
		Entity:    "asset",
		ID:        asset.ID,
		Payload:   asset,
	})
}

// PublishAssetDeleted publishes ASSET_DELETED
func (p *Producer) PublishAssetDeleted(ctx context.Context, id int) {
	p.Publish(ctx, models.EntityEvent{EventType: models.EventAssetDeleted, Entity: "asset", ID: id})
}

// PublishTrade publishes a TRADE_* event for the given trade
func (p *Producer) PublishTrade(ctx context.Context, eventType string, trade *models.Trade) {
	p.Publish(ctx, models.EntityEvent{
		EventType: eventType,
		Entity:    "trade",
		ID:        trade.ID,
		Payload:   trade,
	})
}

// PublishTradeDeleted publishes TRADE_DELETED
func (p *Producer) PublishTradeDeleted(ctx context.Context, id int) {
	p.Publish(ctx, models.EntityEvent{EventType: models.EventTradeDeleted, Entity: "trade", ID: id})
}

// Publish writes the event and logs failures. The write that triggered the
// event has already committed, so errors never reach the caller.
func (p *Producer) Publish(ctx context.Context, event models.EntityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if err := p.publish(ctx, event); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(event.EventType, "error").Inc()
		p.log.Error().Err(err).
			Str("event_type", event.EventType).
			Int("id", event.ID).
			Msg("failed to publish event")
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues(event.EventType, "ok").Inc()
}

func (p *Producer) publish(ctx context.Context, event models.EntityEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Entity + ":" + strconv.Itoa(event.ID)),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
