// Package kafka ships audit events to a Kafka topic as JSON records keyed by
// request ID, so all events of one request land on the same partition.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "agrifin/pkg/platform/audit"
)

const categoryHeader = "audit-category"

// producer is the subset of *kgo.Client the sink needs.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Sink is an audit.Store backed by a Kafka topic.
type Sink struct {
	producer producer
	topic    string
}

// NewSink connects to brokers and makes sure topic exists.
func NewSink(ctx context.Context, brokers []string, topic string) (*Sink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka sink requires at least one broker")
	}
	if topic == "" {
		return nil, errors.New("kafka sink requires a topic")
	}

	cl, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, kadm.NewClient(cl), topic); err != nil {
		cl.Close()
		return nil, err
	}

	return newSink(cl, topic), nil
}

func newSink(p producer, topic string) *Sink {
	return &Sink{producer: p, topic: topic}
}

// ensureTopic creates topic with broker-default replication. An existing
// topic is not an error.
func ensureTopic(ctx context.Context, adm *kadm.Client, topic string) error {
	resp, err := adm.CreateTopics(ctx, 1, -1, nil, topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create audit topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Append produces event synchronously and waits for broker acknowledgement.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	rec, err := s.record(event)
	if err != nil {
		return err
	}
	if err := s.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (s *Sink) record(event audit.Event) (*kgo.Record, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode audit event: %w", err)
	}
	key := event.RequestID
	if key == "" {
		key = event.ID
	}
	return &kgo.Record{
		Topic: s.topic,
		Key:   []byte(key),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: categoryHeader, Value: []byte(event.Category)},
		},
	}, nil
}

// Close flushes nothing; Append is synchronous. It releases the client.
func (s *Sink) Close() {
	s.producer.Close()
}
