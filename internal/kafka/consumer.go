package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/oms-service/internal/database"
	"github.com/trogers1052/oms-service/internal/metrics"
	"github.com/trogers1052/oms-service/internal/models"
)

// TradeRepository defines the ledger operations the consumer needs
type TradeRepository interface {
	TradeExistsByExternalID(ctx context.Context, externalID string) (bool, error)
	CreateTrade(ctx context.Context, t *models.Trade) error
}

// messageReader is the subset of *kafka.Reader the consumer uses
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	defaultRetryBackoff = 500 * time.Millisecond
	defaultMaxBackoff   = 30 * time.Second
)

// Consumer books executions arriving as TRADE_BOOKED events into the ledger.
// Events are keyed by external_id so redelivery is a no-op. Offsets are
// committed only after a message is booked or rejected for good.
type Consumer struct {
	reader          messageReader
	repo            TradeRepository
	strictDirection bool
	retryBackoff    time.Duration
	maxBackoff      time.Duration
	log             zerolog.Logger
}

// transientError marks a ledger failure worth retrying
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// transient wraps repository errors unless the row itself was rejected
func transient(err error) error {
	if errors.Is(err, database.ErrInvalidReference) ||
		errors.Is(err, database.ErrConstraint) ||
		errors.Is(err, database.ErrConflict) {
		return err
	}
	return &transientError{err: err}
}

func retryable(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// NewConsumer creates a new Kafka consumer for booked trade events
func NewConsumer(brokers []string, topic, groupID string, repo TradeRepository, strictDirection bool, log zerolog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:          reader,
		repo:            repo,
		strictDirection: strictDirection,
		retryBackoff:    defaultRetryBackoff,
		maxBackoff:      defaultMaxBackoff,
		log:             log.With().Str("component", "kafka_consumer").Str("topic", topic).Logger(),
	}
}

// Start begins consuming messages until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	c.log.Info().Msg("starting booked trades consumer")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info().Msg("booked trades consumer shutting down")
				return c.reader.Close()
			}
			c.log.Error().Err(err).Msg("error fetching message")
			continue
		}

		if err := c.handle(ctx, msg); err != nil {
			// cancelled mid-retry; the uncommitted message is redelivered
			c.log.Info().Int64("offset", msg.Offset).Msg("booked trades consumer shutting down")
			return c.reader.Close()
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return c.reader.Close()
			}
			c.log.Error().Err(err).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("error committing offset")
		}
	}
}

// handle processes msg, retrying transient ledger failures with backoff.
// It returns an error only when ctx ends before the message is settled.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	backoff := c.retryBackoff
	for {
		err := c.processMessage(ctx, msg)
		if err == nil {
			return nil
		}
		metrics.BookedTradesTotal.WithLabelValues("error").Inc()

		if !retryable(err) {
			c.log.Error().Err(err).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("rejected message, skipping")
			return nil
		}

		c.log.Warn().Err(err).
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Dur("backoff", backoff).
			Msg("error processing message, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > c.maxBackoff {
			backoff = c.maxBackoff
		}
	}
}

// processMessage handles a single Kafka message
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	c.log.Debug().
		Int("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Str("key", string(msg.Key)).
		Msg("received message")

	var event models.TradeEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal trade event: %w", err)
	}

	if event.EventType != models.EventTradeBooked {
		metrics.BookedTradesTotal.WithLabelValues("ignored").Inc()
		c.log.Debug().Str("event_type", event.EventType).Msg("ignoring event")
		return nil
	}

	if strings.TrimSpace(event.Data.ExternalID) == "" {
		return fmt.Errorf("booked trade has no external_id")
	}

	exists, err := c.repo.TradeExistsByExternalID(ctx, event.Data.ExternalID)
	if err != nil {
		return transient(fmt.Errorf("failed to check for duplicate trade: %w", err))
	}
	if exists {
		metrics.BookedTradesTotal.WithLabelValues("duplicate").Inc()
		c.log.Info().Str("external_id", event.Data.ExternalID).Msg("trade already booked, skipping")
		return nil
	}

	trade, err := convertEventToTrade(event)
	if err != nil {
		return fmt.Errorf("failed to convert event %s: %w", event.Data.ExternalID, err)
	}
	if err := trade.Validate(c.strictDirection); err != nil {
		return fmt.Errorf("booked trade %s: %w", event.Data.ExternalID, err)
	}

	if err := c.repo.CreateTrade(ctx, trade); err != nil {
		return transient(fmt.Errorf("failed to save booked trade: %w", err))
	}

	metrics.BookedTradesTotal.WithLabelValues("booked").Inc()
	metrics.LedgerWritesTotal.WithLabelValues("create").Inc()
	c.log.Info().
		Int("trade_id", trade.ID).
		Int("asset_id", trade.AssetID).
		Str("direction", trade.Direction).
		Str("quantity", trade.Quantity.String()).
		Str("price", trade.Price.String()).
		Str("external_id", trade.ExternalID).
		Msg("booked trade")

	return nil
}

// convertEventToTrade maps a TradeEvent to a ledger Trade. A missing settle
// date defaults to the trade date.
func convertEventToTrade(event models.TradeEvent) (*models.Trade, error) {
	data := event.Data

	quantity, err := decimal.NewFromString(data.Quantity)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %q: %w", data.Quantity, err)
	}

	price, err := decimal.NewFromString(data.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q: %w", data.Price, err)
	}

	tradeDate, err := models.ParseDate(data.TradeDate)
	if err != nil {
		return nil, err
	}

	settleDate := tradeDate
	if data.SettleDate != "" {
		if settleDate, err = models.ParseDate(data.SettleDate); err != nil {
			return nil, err
		}
	}

	notes := data.Notes
	if notes == "" && event.Source != "" {
		notes = "booked via " + event.Source
	}

	return &models.Trade{
		TradeDate:    tradeDate,
		SettleDate:   settleDate,
		Direction:    strings.TrimSpace(data.Direction),
		AssetID:      data.AssetID,
		Quantity:     quantity,
		Price:        price,
		Counterparty: data.Counterparty,
		FundAlloc:    data.FundAlloc,
		SubAlloc:     data.SubAlloc,
		Notes:        notes,
		ExternalID:   data.ExternalID,
	}, nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
