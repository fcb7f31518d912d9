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
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lukoou3/flowql/codec"
	"github.com/lukoou3/flowql/connector/clickhouse"
	"github.com/lukoou3/flowql/connector/faker"
	"github.com/lukoou3/flowql/connector/kafka"
	"github.com/lukoou3/flowql/connector/print"
	"github.com/lukoou3/flowql/engine"
	"github.com/lukoou3/flowql/engine/ratestat"
	cfgpkg "github.com/lukoou3/flowql/internal/config"
	"github.com/lukoou3/flowql/internal/metrics"
	"github.com/lukoou3/flowql/sql"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <config>",
		Short: "Run a streaming pipeline described by a YAML config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return usageError{err}
			}
			cfg, err := cfgpkg.Load(args[0])
			if err != nil {
				return usageError{err}
			}
			return runPipeline(cmd.Context(), cfg, logger)
		},
	}
}

func runPipeline(ctx context.Context, cfg *cfgpkg.Config, logger *logrus.Logger) error {
	schema, err := cfg.ResolveSchema()
	if err != nil {
		return usageError{err}
	}
	resolved, err := resolvePlan(cfg.SQL, cfg.RelationName, schema)
	if err != nil {
		return usageError{err}
	}
	transforms, err := engine.Compile(resolved, engine.Triggers{
		MaxRows:    cfg.MaxRows,
		IntervalMs: cfg.IntervalMs,
	})
	if err != nil {
		return usageError{err}
	}
	outSchema := resolved.Schema()

	reg := codec.NewDefaultRegistry()
	source, err := buildSource(cfg, reg, schema, logger)
	if err != nil {
		return usageError{err}
	}
	sink, err := buildSink(cfg, reg, outSchema, logger)
	if err != nil {
		return usageError{err}
	}

	chainID := uuid.NewV4().String()
	promReg := prometheus.NewRegistry()
	ioMetrics := metrics.NewIOMetrics(promReg, "flowql_"+strings.ReplaceAll(chainID, "-", ""))
	if cfg.MetricsAddr != "" {
		stopMetrics := serveMetrics(cfg.MetricsAddr, promReg, logger)
		defer stopMetrics()
	}

	chain := &engine.Chain{
		ID:         chainID,
		Source:     &instrumentedSource{Source: source, metrics: ioMetrics},
		Transforms: transforms,
		Sink:       &instrumentedSink{Sink: sink, metrics: ioMetrics},
		Logger:     logger,
	}

	sqlCtx := sql.NewContext(ctx, logger)
	stop := logThroughput(sqlCtx, logger)
	defer stop()

	logger.WithField("chain_id", chainID).Info("flowql: pipeline starting")
	return chain.Run(sqlCtx)
}

// instrumentedSource counts each row a Source emits into RecordsIn.
type instrumentedSource struct {
	engine.Source
	metrics *metrics.IOMetrics
}

func (s *instrumentedSource) Poll(ctx *sql.Context, out engine.Collector) (bool, error) {
	got, err := s.Source.Poll(ctx, out)
	if got {
		s.metrics.RecordsIn.Inc()
	}
	return got, err
}

// instrumentedSink counts each row a Sink consumes into RecordsOut.
type instrumentedSink struct {
	engine.Sink
	metrics *metrics.IOMetrics
}

func (s *instrumentedSink) Consume(ctx *sql.Context, row sql.Row) error {
	if err := s.Sink.Consume(ctx, row); err != nil {
		return err
	}
	s.metrics.RecordsOut.Inc()
	return nil
}

// serveMetrics starts a Prometheus /metrics HTTP server on addr and returns
// a func to shut it down; listen errors are logged, not fatal, since the
// pipeline itself should keep running without a metrics scrape target.
func serveMetrics(addr string, reg *prometheus.Registry, logger *logrus.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Warn("flowql: metrics server stopped")
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

// logThroughput samples a rolling-window row counter every five seconds and
// logs it, returning a stop func to cancel the ticker.
func logThroughput(ctx *sql.Context, logger *logrus.Logger) func() {
	stat := ratestat.New()
	ticker := time.NewTicker(5 * time.Second)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				logger.WithField("rows_per_sec", stat.Rate()).Info("throughput")
			case <-done:
				ticker.Stop()
				return
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}

func buildSource(cfg *cfgpkg.Config, reg *codec.Registry, schema sql.Schema, logger *logrus.Logger) (engine.Source, error) {
	switch cfg.Source.Name {
	case "faker":
		fc := faker.Config{RowsPerSecond: cfg.RowsPerSecond}
		return faker.New(schema, fc)
	case "kafka":
		brokers, _ := cfg.Source.Options["brokers"].([]interface{})
		topic, _ := cfg.Source.Options["topic"].(string)
		group, _ := cfg.Source.Options["group_id"].(string)
		de, err := deserializerFor(reg, cfg.SourceCodec, schema, "source_codec")
		if err != nil {
			return nil, err
		}
		return kafka.NewSource(kafka.ConsumerConfig{
			Brokers: toStrings(brokers),
			Topic:   topic,
			GroupID: group,
		}, de, schema, logger), nil
	default:
		return nil, fmt.Errorf("unknown source connector %q", cfg.Source.Name)
	}
}

func buildSink(cfg *cfgpkg.Config, reg *codec.Registry, schema sql.Schema, logger *logrus.Logger) (engine.Sink, error) {
	switch cfg.Sink.Name {
	case "print":
		mode, err := print.ParseMode(stringOpt(cfg.Sink.Options, "mode"))
		if err != nil {
			return nil, err
		}
		ser, err := serializerFor(reg, cfg.SinkCodec, schema, "sink_codec")
		if err != nil {
			return nil, err
		}
		return print.New(ser, mode, logger), nil
	case "kafka":
		brokers, _ := cfg.Sink.Options["brokers"].([]interface{})
		topic, _ := cfg.Sink.Options["topic"].(string)
		ser, err := serializerFor(reg, cfg.SinkCodec, schema, "sink_codec")
		if err != nil {
			return nil, err
		}
		return kafka.NewSink(kafka.ProducerConfig{Brokers: toStrings(brokers), Topic: topic}, ser), nil
	case "clickhouse":
		addr, _ := cfg.Sink.Options["addr"].([]interface{})
		return clickhouse.New(clickhouse.Config{
			Addr:     toStrings(addr),
			Database: stringOpt(cfg.Sink.Options, "database"),
			Username: stringOpt(cfg.Sink.Options, "username"),
			Password: stringOpt(cfg.Sink.Options, "password"),
			Table:    stringOpt(cfg.Sink.Options, "table"),
			MaxRows:  cfg.MaxRows,
		}, schema, logger)
	default:
		return nil, fmt.Errorf("unknown sink connector %q", cfg.Sink.Name)
	}
}

func stringOpt(opts map[string]interface{}, key string) string {
	s, _ := opts[key].(string)
	return s
}

func toStrings(vs []interface{}) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i], _ = v.(string)
	}
	return out
}
