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

package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	kafkago "github.com/segmentio/kafka-go"
)

// newKafkaCommand builds ad hoc produce/consume tooling against a raw
// string topic, independent of any pipeline config — useful for seeding a
// topic or eyeballing what a sink wrote.
func newKafkaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kafka",
		Short: "Ad hoc Kafka produce/consume helpers",
	}
	cmd.AddCommand(newKafkaProduceCommand())
	cmd.AddCommand(newKafkaConsumeCommand())
	return cmd
}

func newKafkaProduceCommand() *cobra.Command {
	var brokers []string
	var topic string
	cmd := &cobra.Command{
		Use:   "produce",
		Short: "Write lines from stdin to a topic, one message per line",
		RunE: func(cmd *cobra.Command, args []string) error {
			if topic == "" {
				return usageError{fmt.Errorf("--topic is required")}
			}
			writer := &kafkago.Writer{
				Addr:     kafkago.TCP(brokers...),
				Topic:    topic,
				Balancer: &kafkago.LeastBytes{},
			}
			defer writer.Close()

			ctx := cmd.Context()
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				line := scanner.Text()
				if err := writer.WriteMessages(ctx, kafkago.Message{Value: []byte(line)}); err != nil {
					return fmt.Errorf("write message: %w", err)
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringSliceVar(&brokers, "brokers", []string{"localhost:9092"}, "comma-separated broker addresses")
	cmd.Flags().StringVar(&topic, "topic", "", "topic to produce to")
	return cmd
}

func newKafkaConsumeCommand() *cobra.Command {
	var brokers []string
	var topic, group string
	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Print messages from a topic to stdout, one line per message",
		RunE: func(cmd *cobra.Command, args []string) error {
			if topic == "" {
				return usageError{fmt.Errorf("--topic is required")}
			}
			if group == "" {
				group = "flowql-kafka-consume"
			}
			reader := kafkago.NewReader(kafkago.ReaderConfig{
				Brokers: brokers,
				Topic:   topic,
				GroupID: group,
			})
			defer reader.Close()

			ctx := cmd.Context()
			for {
				msg, err := reader.FetchMessage(ctx)
				if err != nil {
					return fmt.Errorf("fetch message: %w", err)
				}
				fmt.Println(string(msg.Value))
				if err := reader.CommitMessages(ctx, msg); err != nil {
					return fmt.Errorf("commit message: %w", err)
				}
			}
		},
	}
	cmd.Flags().StringSliceVar(&brokers, "brokers", []string{"localhost:9092"}, "comma-separated broker addresses")
	cmd.Flags().StringVar(&topic, "topic", "", "topic to consume from")
	cmd.Flags().StringVar(&group, "group", "", "consumer group id (default flowql-kafka-consume)")
	return cmd
}
