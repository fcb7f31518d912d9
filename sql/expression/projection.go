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

package expression

import "github.com/lukoou3/flowql/sql"

// Projection evaluates a fixed list of bound expressions against an input
// row, allocating a fresh output Row each call. Used wherever the output
// row's lifetime must outlive the next input row (the transform operator's
// usual case).
type Projection struct {
	exprs []sql.Expression
}

func NewProjection(exprs []sql.Expression) *Projection { return &Projection{exprs: exprs} }

func (p *Projection) Eval(ctx *sql.Context, row sql.Row) (sql.Row, error) {
	out := make(sql.Row, len(p.exprs))
	for i, e := range p.exprs {
		v, err := e.Eval(ctx, row)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// MutableProjection reuses a single backing Row across calls, avoiding an
// allocation per input row. Callers must copy
// the result before the next EvalInPlace call if they need to retain it.
type MutableProjection struct {
	exprs  []sql.Expression
	buffer sql.Row
}

func NewMutableProjection(exprs []sql.Expression) *MutableProjection {
	return &MutableProjection{exprs: exprs, buffer: make(sql.Row, len(exprs))}
}

func (p *MutableProjection) EvalInPlace(ctx *sql.Context, row sql.Row) (sql.Row, error) {
	for i, e := range p.exprs {
		v, err := e.Eval(ctx, row)
		if err != nil {
			return nil, err
		}
		p.buffer[i] = v
	}
	return p.buffer, nil
}

// MutableProjectionForAgg evaluates one DeclarativeAggFunction's Update
// (or Merge) expressions in place, reusing the aggregate's buffer slot
// across every input row in a group. It wraps the per-aggregate
// Update/Merge/Evaluate contract rather than a symbolic expression list:
// see DeclarativeAggFunction's doc comment for why.
type MutableProjectionForAgg struct {
	Agg DeclarativeAggFunction
}

func NewMutableProjectionForAgg(agg DeclarativeAggFunction) *MutableProjectionForAgg {
	return &MutableProjectionForAgg{Agg: agg}
}

func (p *MutableProjectionForAgg) Init(ctx *sql.Context) (sql.Row, error) {
	return p.Agg.InitialValues(ctx)
}

func (p *MutableProjectionForAgg) UpdateInPlace(ctx *sql.Context, buffer, input sql.Row) (sql.Row, error) {
	return p.Agg.Update(ctx, buffer, input)
}

func (p *MutableProjectionForAgg) MergeInPlace(ctx *sql.Context, a, b sql.Row) (sql.Row, error) {
	return p.Agg.Merge(ctx, a, b)
}
