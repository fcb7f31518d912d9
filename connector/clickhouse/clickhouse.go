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

// Package clickhouse batches rows and flushes them into a ClickHouse table
// via clickhouse-go/v2's native batch insert, triggered by row count or a
// flush interval, mirroring the connector's original batching design.
package clickhouse

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	chdriver "github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/lukoou3/flowql/sql"
)

// Config describes the target table and batching triggers.
type Config struct {
	Addr          []string
	Database      string
	Username      string
	Password      string
	Table         string
	MaxRows       int
	FlushInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxRows <= 0 {
		c.MaxRows = 10000
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 3 * time.Second
	}
	return c
}

// Sink buffers rows into a driver.Batch and flushes on row-count or
// interval triggers, whichever comes first.
type Sink struct {
	cfg       Config
	schema    sql.Schema
	conn      chdriver.Conn
	logger    logrus.FieldLogger
	insertSQL string

	mu      sync.Mutex
	batch   chdriver.Batch
	rows    int
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// New opens a connection to cfg.Addr and prepares the sink; it does not
// validate the target table's column types against schema (ClickHouse's
// own INSERT rejects mismatches).
func New(cfg Config, schema sql.Schema, logger logrus.FieldLogger) (*Sink, error) {
	cfg = cfg.withDefaults()
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: cfg.Addr,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("flowql: clickhouse: opening connection: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("flowql: clickhouse: ping: %w", err)
	}
	names := make([]string, len(schema))
	for i, f := range schema {
		names[i] = f.Name
	}
	insertSQL := buildInsertSQL(cfg.Table, names)
	s := &Sink{
		cfg:       cfg,
		schema:    schema,
		conn:      conn,
		logger:    logger,
		insertSQL: insertSQL,
		closeCh:   make(chan struct{}),
	}
	batch, err := conn.PrepareBatch(context.Background(), insertSQL)
	if err != nil {
		return nil, fmt.Errorf("flowql: clickhouse: preparing batch: %w", err)
	}
	s.batch = batch
	s.wg.Add(1)
	go s.flushLoop()
	return s, nil
}

func buildInsertSQL(table string, columns []string) string {
	sql := "INSERT INTO " + table + " ("
	for i, c := range columns {
		if i > 0 {
			sql += ", "
		}
		sql += c
	}
	return sql + ")"
}

func (s *Sink) flushLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			if err := s.flushLocked(); err != nil {
				s.logger.WithError(err).Warn("clickhouse: interval flush failed")
			}
			s.mu.Unlock()
		case <-s.closeCh:
			return
		}
	}
}

func (s *Sink) Consume(ctx *sql.Context, row sql.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := rowToValues(row, s.schema)
	if err != nil {
		return fmt.Errorf("flowql: clickhouse: %w", err)
	}
	if err := s.batch.Append(values...); err != nil {
		return fmt.Errorf("flowql: clickhouse: appending row: %w", err)
	}
	s.rows++
	if s.rows >= s.cfg.MaxRows {
		return s.flushLocked()
	}
	return nil
}

// flushLocked sends the buffered batch and re-prepares a fresh one. Caller
// holds s.mu.
func (s *Sink) flushLocked() error {
	if s.rows == 0 {
		return nil
	}
	s.logger.WithField("rows", s.rows).Debug("clickhouse: flushing batch")
	if err := s.batch.Send(); err != nil {
		return fmt.Errorf("sending batch: %w", err)
	}
	batch, err := s.conn.PrepareBatch(context.Background(), s.insertSQL)
	if err != nil {
		return fmt.Errorf("preparing next batch: %w", err)
	}
	s.batch = batch
	s.rows = 0
	return nil
}

func (s *Sink) Close() error {
	close(s.closeCh)
	s.wg.Wait()
	s.mu.Lock()
	err := s.flushLocked()
	s.mu.Unlock()
	if cerr := s.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

func rowToValues(row sql.Row, schema sql.Schema) ([]interface{}, error) {
	out := make([]interface{}, len(schema))
	for i, f := range schema {
		v := row[i]
		if v.IsNull() {
			out[i] = nil
			continue
		}
		switch f.Type.ID() {
		case sql.TypeIDInt:
			out[i] = v.Int()
		case sql.TypeIDLong:
			out[i] = v.Long()
		case sql.TypeIDFloat:
			out[i] = v.Float()
		case sql.TypeIDDouble:
			out[i] = v.Double()
		case sql.TypeIDString:
			out[i] = v.String()
		case sql.TypeIDBoolean:
			out[i] = v.Boolean()
		case sql.TypeIDBinary:
			out[i] = v.Binary()
		case sql.TypeIDDate:
			out[i] = time.UnixMilli(int64(v.Date()) * 86400000).UTC()
		case sql.TypeIDTimestamp:
			out[i] = time.UnixMicro(v.Timestamp()).UTC()
		default:
			return nil, fmt.Errorf("column %q: unsupported type %s for clickhouse sink", f.Name, f.Type)
		}
	}
	return out, nil
}
