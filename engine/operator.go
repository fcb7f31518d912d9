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

// Package engine executes a resolved logical plan as a chain of streaming
// operators: a pulled Source feeds pushed Transforms and a Sink, all
// running on one goroutine per chain.
package engine

import "github.com/lukoou3/flowql/sql"

// Collector is the single method every downstream operator implements to
// receive a row; it is synchronous and fails fast.
type Collector interface {
	Collect(ctx *sql.Context, row sql.Row) error
}

// CollectorFunc adapts a plain function to a Collector.
type CollectorFunc func(ctx *sql.Context, row sql.Row) error

func (f CollectorFunc) Collect(ctx *sql.Context, row sql.Row) error { return f(ctx, row) }

// TimerService lets an operator register a one-shot wake-up; the runtime
// delivers OnTime in non-decreasing timestamp order.
type TimerService interface {
	RegisterTimer(timestampMicros int64)
}

// Source is pulled by the runtime: it exposes its output schema and emits
// at most one row per Poll call.
type Source interface {
	Schema() sql.Schema
	// Poll emits zero or one row to out, reporting whether a row was
	// produced. Returning false with a nil error means "no row right
	// now, try again later", not end of stream.
	Poll(ctx *sql.Context, out Collector) (bool, error)
	Close() error
}

// Transform is pushed one row at a time and may emit zero or more rows to
// collector; OnTime lets timer-driven operators (the aggregate operator)
// flush state without a triggering input row.
type Transform interface {
	Schema() sql.Schema
	Process(ctx *sql.Context, row sql.Row, collector Collector, timers TimerService) error
	OnTime(ctx *sql.Context, nowMicros int64, collector Collector) error
	Close() error
}

// Sink consumes rows; it never forwards.
type Sink interface {
	Consume(ctx *sql.Context, row sql.Row) error
	Close() error
}
