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

package engine

import "github.com/lukoou3/flowql/sql"

// filterTransform drops rows that don't satisfy a bound predicate
// .
type filterTransform struct {
	schema    sql.Schema
	predicate sql.Expression
}

func newFilterTransform(schema sql.Schema, predicate sql.Expression) *filterTransform {
	return &filterTransform{schema: schema, predicate: predicate}
}

func (f *filterTransform) Schema() sql.Schema { return f.schema }

func (f *filterTransform) Process(ctx *sql.Context, row sql.Row, collector Collector, timers TimerService) error {
	v, err := f.predicate.Eval(ctx, row)
	if err != nil {
		return err
	}
	if v.IsNull() || !v.Boolean() {
		return nil
	}
	return collector.Collect(ctx, row)
}

func (f *filterTransform) OnTime(ctx *sql.Context, nowMicros int64, collector Collector) error {
	return nil
}

func (f *filterTransform) Close() error { return nil }

// projectTransform evaluates a fixed bound expression list per input row,
// reusing a single output buffer across calls.
type projectTransform struct {
	schema sql.Schema
	exprs  []sql.Expression
	buffer sql.Row
}

func newProjectTransform(schema sql.Schema, exprs []sql.Expression) *projectTransform {
	return &projectTransform{schema: schema, exprs: exprs, buffer: make(sql.Row, len(exprs))}
}

func (p *projectTransform) Schema() sql.Schema { return p.schema }

func (p *projectTransform) Process(ctx *sql.Context, row sql.Row, collector Collector, timers TimerService) error {
	for i, e := range p.exprs {
		v, err := e.Eval(ctx, row)
		if err != nil {
			return err
		}
		p.buffer[i] = v
	}
	return collector.Collect(ctx, p.buffer)
}

func (p *projectTransform) OnTime(ctx *sql.Context, nowMicros int64, collector Collector) error {
	return nil
}

func (p *projectTransform) Close() error { return nil }
