// Copyright 2024 The flowql Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package kafka provides a Source (consumer) and Sink (producer) over
// segmentio/kafka-go, decoding/encoding message payloads through a
// codec.Deserializer/codec.Serializer bound to the engine's schema.
package kafka

import (
	"context"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/lukoou3/flowql/codec"
	"github.com/lukoou3/flowql/engine"
	"github.com/lukoou3/flowql/sql"
)

// pollTimeout bounds how long Poll blocks waiting for the next message, so
// a quiet topic still returns control to the runtime's poll loop.
const pollTimeout = 200 * time.Millisecond

// ConsumerConfig configures a Source.
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Source pulls one record per Poll, decoding the message value through de.
type Source struct {
	reader *kafkago.Reader
	de     codec.Deserializer
	schema sql.Schema
	logger logrus.FieldLogger
}

func NewSource(cfg ConsumerConfig, de codec.Deserializer, schema sql.Schema, logger logrus.FieldLogger) *Source {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})
	return &Source{reader: reader, de: de, schema: schema, logger: logger}
}

func (s *Source) Schema() sql.Schema { return s.schema }

// Poll fetches one message with a short-lived context so a quiet topic
// never blocks the runtime's poll loop for long; "no message yet" reports
// (false, nil) rather than an error.
func (s *Source) Poll(ctx *sql.Context, out engine.Collector) (bool, error) {
	fetchCtx, cancel := context.WithTimeout(context.Background(), pollTimeout)
	defer cancel()
	msg, err := s.reader.FetchMessage(fetchCtx)
	if err != nil {
		if fetchCtx.Err() != nil {
			return false, nil
		}
		return false, fmt.Errorf("flowql: kafka: fetching message: %w", err)
	}
	row, err := s.de.Deserialize(msg.Value)
	if err != nil {
		return false, fmt.Errorf("flowql: kafka: decoding message: %w", err)
	}
	if err := out.Collect(ctx, row); err != nil {
		return false, err
	}
	if err := s.reader.CommitMessages(context.Background(), msg); err != nil {
		s.logger.WithError(err).Warn("kafka: commit failed")
	}
	return true, nil
}

func (s *Source) Close() error { return s.reader.Close() }

// ProducerConfig configures a Sink.
type ProducerConfig struct {
	Brokers []string
	Topic   string
}

// Sink encodes each row through ser and produces it to the configured
// topic.
type Sink struct {
	writer *kafkago.Writer
	ser    codec.Serializer
}

func NewSink(cfg ProducerConfig, ser codec.Serializer) *Sink {
	writer := &kafkago.Writer{
		Addr:     kafkago.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafkago.LeastBytes{},
	}
	return &Sink{writer: writer, ser: ser}
}

func (s *Sink) Consume(ctx *sql.Context, row sql.Row) error {
	b, err := s.ser.Serialize(row)
	if err != nil {
		return fmt.Errorf("flowql: kafka: encoding row: %w", err)
	}
	buf := make([]byte, len(b))
	copy(buf, b)
	if err := s.writer.WriteMessages(context.Background(), kafkago.Message{Value: buf}); err != nil {
		return fmt.Errorf("flowql: kafka: producing message: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	if err := s.writer.Close(); err != nil {
		return err
	}
	return s.ser.Close()
}
