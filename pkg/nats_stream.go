package pkg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/hotelpos/hotelpos/pkg/event"
)

// OrderStreamName is the JetStream stream holding the order event log. Every
// consuming service replays the same stream; durable consumer names keep each
// service's cursor separate.
const OrderStreamName = "POS_ORDERS"

const (
	orderStreamMaxAge = 24 * time.Hour
	replayBatchLimit  = 1000
	replayFetchWait   = 5 * time.Second
)

// NATSStream is the JetStream-backed order event log. Services replay it on
// startup to rebuild state, then receive live events over a plain NATS
// subscription so the durable cursor stays parked at the replay position.
type NATSStream struct {
	conn     *nats.Conn
	js       jetstream.JetStream
	consumer jetstream.Consumer
	topic    string
}

// NATSStreamConfig configures the order stream. Zero values fall back to the
// order-domain defaults; ConsumerName has no default because sharing a cursor
// between services would split the replay.
type NATSStreamConfig struct {
	URL          string
	StreamName   string        // defaults to OrderStreamName
	Topic        string        // defaults to event.OrdersTopic
	ConsumerName string        // durable cursor, usually "<service>-consumer"
	MaxAge       time.Duration // defaults to 24h retention
	MaxMsgs      int64         // 0 = unlimited
}

func (cfg NATSStreamConfig) withDefaults() NATSStreamConfig {
	if cfg.StreamName == "" {
		cfg.StreamName = OrderStreamName
	}
	if cfg.Topic == "" {
		cfg.Topic = event.OrdersTopic
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = orderStreamMaxAge
	}
	return cfg
}

// NewNATSStream connects to NATS and ensures the order stream and this
// service's durable consumer exist.
func NewNATSStream(cfg NATSStreamConfig) (*NATSStream, error) {
	if cfg.ConsumerName == "" {
		return nil, errors.New("order stream requires a consumer name")
	}
	cfg = cfg.withDefaults()

	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("cannot create JetStream context: %w", err)
	}

	streamCfg := jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: []string{cfg.Topic},
		MaxAge:   cfg.MaxAge,
		MaxMsgs:  cfg.MaxMsgs,
	}
	stream, err := js.CreateOrUpdateStream(context.Background(), streamCfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("cannot ensure stream %s: %w", cfg.StreamName, err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(context.Background(), jetstream.ConsumerConfig{
		Name:          cfg.ConsumerName,
		Durable:       cfg.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		FilterSubject: cfg.Topic,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("cannot ensure consumer %s: %w", cfg.ConsumerName, err)
	}

	return &NATSStream{
		conn:     conn,
		js:       js,
		consumer: consumer,
		topic:    cfg.Topic,
	}, nil
}

// Publish appends an event to the stream.
func (s *NATSStream) Publish(ctx context.Context, topic string, msg []byte) error {
	if _, err := s.js.Publish(ctx, topic, msg); err != nil {
		return fmt.Errorf("cannot publish to stream: %w", err)
	}
	return nil
}

// Fetch retrieves up to limit events from the durable consumer's position for
// startup replay.
func (s *NATSStream) Fetch(ctx context.Context, limit int) ([]events.StreamMessage, error) {
	if limit <= 0 {
		limit = replayBatchLimit
	}

	batch, err := s.consumer.Fetch(limit, jetstream.FetchMaxWait(replayFetchWait))
	if err != nil {
		return nil, fmt.Errorf("cannot fetch replay batch: %w", err)
	}

	var messages []events.StreamMessage
	for msg := range batch.Messages() {
		meta, err := msg.Metadata()
		msg.Ack()
		if err != nil {
			continue
		}
		messages = append(messages, events.StreamMessage{
			Data:      msg.Data(),
			Sequence:  meta.Sequence.Stream,
			Timestamp: meta.Timestamp.UnixNano(),
		})
	}

	return messages, nil
}

// SubscribeStream consumes new events as they arrive. Handler errors nak the
// message for redelivery.
func (s *NATSStream) SubscribeStream(ctx context.Context, handler events.HandlerFunc) error {
	_, err := s.consumer.Consume(func(msg jetstream.Msg) {
		if err := handler(ctx, msg.Data()); err != nil {
			msg.Nak()
			return
		}
		msg.Ack()
	})
	return err
}

// Subscribe implements events.Subscriber. The topic argument is ignored; the
// consumer is already bound to its configured subject.
func (s *NATSStream) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	return s.SubscribeStream(ctx, handler)
}

// Close closes the NATS connection.
func (s *NATSStream) Close() error {
	s.conn.Close()
	return nil
}
