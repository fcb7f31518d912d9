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

// Package faker generates synthetic rows for local testing and demos, one
// gofakeit generator per configured column, rate limited to a target
// rows-per-second.
package faker

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/lukoou3/flowql/engine"
	"github.com/lukoou3/flowql/sql"
)

// FieldFaker names the gofakeit generator bound to one schema column. Kind
// selects the generator; columns with no entry fall back to a generator
// picked from the column's type.
type FieldFaker struct {
	Column string
	Kind   string
	Min    int64
	Max    int64
}

// Config configures a Source: which columns get which generator, and how
// fast to emit.
type Config struct {
	Fields        []FieldFaker
	RowsPerSecond int
}

type generator func(f *gofakeit.Faker) sql.Value

// Source emits synthetic rows at a target rate, generating one column at a
// time with a per-column gofakeit generator resolved at construction.
type Source struct {
	schema   sql.Schema
	faker    *gofakeit.Faker
	gens     []generator
	period   time.Duration
	lastEmit time.Time
	row      sql.Row
}

// New builds a Source bound to schema, resolving each column's generator
// from cfg.Fields or, absent an entry, from the column's declared type.
func New(schema sql.Schema, cfg Config) (*Source, error) {
	byColumn := make(map[string]FieldFaker, len(cfg.Fields))
	for _, f := range cfg.Fields {
		byColumn[f.Column] = f
	}
	gens := make([]generator, len(schema))
	for i, field := range schema {
		ff, ok := byColumn[field.Name]
		if !ok {
			ff = FieldFaker{Column: field.Name}
		}
		g, err := resolveGenerator(ff, field.Type)
		if err != nil {
			return nil, fmt.Errorf("flowql: faker: column %q: %w", field.Name, err)
		}
		gens[i] = g
	}
	rps := cfg.RowsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Source{
		schema: schema,
		faker:  gofakeit.New(0),
		gens:   gens,
		period: time.Second / time.Duration(rps),
		row:    sql.NewFixedRow(len(schema)),
	}, nil
}

func resolveGenerator(ff FieldFaker, typ sql.Type) (generator, error) {
	switch ff.Kind {
	case "name":
		return func(f *gofakeit.Faker) sql.Value { return sql.StringValue(f.Name()) }, nil
	case "email":
		return func(f *gofakeit.Faker) sql.Value { return sql.StringValue(f.Email()) }, nil
	case "word":
		return func(f *gofakeit.Faker) sql.Value { return sql.StringValue(f.Word()) }, nil
	case "uuid":
		return func(f *gofakeit.Faker) sql.Value { return sql.StringValue(f.UUID()) }, nil
	case "ipv4":
		return func(f *gofakeit.Faker) sql.Value { return sql.StringValue(f.IPv4Address()) }, nil
	case "int_range":
		min, max := ff.Min, ff.Max
		if min == 0 && max == 0 {
			max = 1000
		}
		return func(f *gofakeit.Faker) sql.Value {
			return sql.LongValue(int64(f.Number(int(min), int(max))))
		}, nil
	case "timestamp_now":
		return func(f *gofakeit.Faker) sql.Value { return sql.TimestampValue(time.Now().UnixMicro()) }, nil
	case "bool":
		return func(f *gofakeit.Faker) sql.Value { return sql.BooleanValue(f.Bool()) }, nil
	case "":
		return defaultGeneratorForType(typ)
	default:
		return nil, fmt.Errorf("unknown faker kind %q", ff.Kind)
	}
}

func defaultGeneratorForType(typ sql.Type) (generator, error) {
	switch typ.ID() {
	case sql.TypeIDInt:
		return func(f *gofakeit.Faker) sql.Value { return sql.IntValue(int32(f.Number(0, 1000))) }, nil
	case sql.TypeIDLong:
		return func(f *gofakeit.Faker) sql.Value { return sql.LongValue(int64(f.Number(0, 1000))) }, nil
	case sql.TypeIDFloat:
		return func(f *gofakeit.Faker) sql.Value { return sql.FloatValue(float32(f.Float64Range(0, 1000))) }, nil
	case sql.TypeIDDouble:
		return func(f *gofakeit.Faker) sql.Value { return sql.DoubleValue(f.Float64Range(0, 1000)) }, nil
	case sql.TypeIDString:
		return func(f *gofakeit.Faker) sql.Value { return sql.StringValue(f.Word()) }, nil
	case sql.TypeIDBoolean:
		return func(f *gofakeit.Faker) sql.Value { return sql.BooleanValue(f.Bool()) }, nil
	case sql.TypeIDTimestamp:
		return func(f *gofakeit.Faker) sql.Value { return sql.TimestampValue(time.Now().UnixMicro()) }, nil
	default:
		return nil, fmt.Errorf("no default faker for type %s", typ)
	}
}

func (s *Source) Schema() sql.Schema { return s.schema }

// Poll emits one row at most once per s.period, matching engine.Source's
// "no row right now" contract rather than blocking the caller's goroutine.
func (s *Source) Poll(ctx *sql.Context, out engine.Collector) (bool, error) {
	now := time.Now()
	if !s.lastEmit.IsZero() && now.Sub(s.lastEmit) < s.period {
		return false, nil
	}
	s.lastEmit = now
	for i, gen := range s.gens {
		s.row[i] = gen(s.faker)
	}
	if err := out.Collect(ctx, s.row); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Source) Close() error { return nil }
