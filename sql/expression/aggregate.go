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

import (
	"fmt"

	"github.com/lukoou3/flowql/sql"
)

// DeclarativeAggFunction is an aggregate whose state lives entirely in a
// small fixed Row buffer and whose transitions (init/update/merge/
// evaluate) are plain data-flow rules rather than arbitrary Go state
// . The streaming aggregate
// operator drives these four methods directly; it never calls Eval on a
// DeclarativeAggFunction.
type DeclarativeAggFunction interface {
	sql.AggregateExpression
	BufferSchema() sql.Schema
	InitialValues(ctx *sql.Context) (sql.Row, error)
	Update(ctx *sql.Context, buffer sql.Row, input sql.Row) (sql.Row, error)
	Merge(ctx *sql.Context, a, b sql.Row) (sql.Row, error)
	Evaluate(ctx *sql.Context, buffer sql.Row) (sql.Value, error)
}

// TypedAggFunction is an aggregate whose accumulator is an arbitrary Go
// value rather than a Row of Values (collect_list, collect_set): cheaper
// to update in the hot path at the cost of not being directly
// serializable as a row.
type TypedAggFunction interface {
	sql.AggregateExpression
	CreateBuffer() interface{}
	UpdateBuffer(ctx *sql.Context, buf interface{}, input sql.Row) (interface{}, error)
	MergeBuffers(a, b interface{}) (interface{}, error)
	EvalBuffer(buf interface{}) (sql.Value, error)
}

func aggNotEvaluable(name string) func(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	return func(ctx *sql.Context, row sql.Row) (sql.Value, error) {
		return sql.Value{}, sql.ErrEvaluation.New(name + " must be driven through the aggregate operator, not Eval")
	}
}

// Sum accumulates child as a running total, Null until the first non-null
// input is seen. An Int/Long child sums into a Long buffer so integer
// inputs never pick up floating-point rounding; a Float/Double child sums
// into a Double buffer.
type Sum struct {
	Child sql.Expression
}

func NewSum(child sql.Expression) *Sum { return &Sum{Child: child} }

func (s *Sum) AggregateFunctionName() string { return "sum" }
func (s *Sum) Resolved() bool                { return s.Child.Resolved() }
func (s *Sum) isLong() bool {
	switch s.Child.Type().ID() {
	case sql.TypeIDInt, sql.TypeIDLong:
		return true
	}
	return false
}
func (s *Sum) Type() sql.Type {
	if s.isLong() {
		return sql.Long
	}
	return sql.Double
}
func (s *Sum) Nullable() bool             { return true }
func (s *Sum) String() string             { return fmt.Sprintf("sum(%s)", s.Child) }
func (s *Sum) Children() []sql.Expression { return []sql.Expression{s.Child} }
func (s *Sum) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: Sum takes exactly 1 child, got %d", len(children))
	}
	return &Sum{Child: children[0]}, nil
}
func (s *Sum) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	return aggNotEvaluable("sum")(ctx, row)
}
func (s *Sum) BufferSchema() sql.Schema {
	return sql.Schema{{Name: "sum", Type: s.Type(), Nullable: true}}
}
func (s *Sum) InitialValues(ctx *sql.Context) (sql.Row, error) {
	return sql.NewRow(sql.NullValue()), nil
}
func (s *Sum) Update(ctx *sql.Context, buffer, input sql.Row) (sql.Row, error) {
	v, err := s.Child.Eval(ctx, input)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return buffer, nil
	}
	cur := buffer[0]
	if s.isLong() {
		if cur.IsNull() {
			return sql.NewRow(sql.LongValue(toInt64(v))), nil
		}
		return sql.NewRow(sql.LongValue(cur.Long() + toInt64(v))), nil
	}
	if cur.IsNull() {
		return sql.NewRow(sql.DoubleValue(toFloat64(v))), nil
	}
	return sql.NewRow(sql.DoubleValue(cur.Double() + toFloat64(v))), nil
}
func (s *Sum) Merge(ctx *sql.Context, a, b sql.Row) (sql.Row, error) {
	if a[0].IsNull() {
		return b, nil
	}
	if b[0].IsNull() {
		return a, nil
	}
	if s.isLong() {
		return sql.NewRow(sql.LongValue(a[0].Long() + b[0].Long())), nil
	}
	return sql.NewRow(sql.DoubleValue(a[0].Double() + b[0].Double())), nil
}
func (s *Sum) Evaluate(ctx *sql.Context, buffer sql.Row) (sql.Value, error) { return buffer[0], nil }

// Count counts non-null evaluations of Child, or all rows when Child is
// nil (the COUNT(*) form).
type Count struct {
	Child sql.Expression // nil means COUNT(*)
}

func NewCount(child sql.Expression) *Count { return &Count{Child: child} }

func (c *Count) AggregateFunctionName() string { return "count" }
func (c *Count) Resolved() bool {
	return c.Child == nil || c.Child.Resolved()
}
func (c *Count) Type() sql.Type { return sql.Long }
func (c *Count) Nullable() bool { return false }
func (c *Count) String() string {
	if c.Child == nil {
		return "count(*)"
	}
	return fmt.Sprintf("count(%s)", c.Child)
}
func (c *Count) Children() []sql.Expression {
	if c.Child == nil {
		return nil
	}
	return []sql.Expression{c.Child}
}
func (c *Count) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if c.Child == nil {
		if len(children) != 0 {
			return nil, fmt.Errorf("flowql: Count(*) takes no children")
		}
		return &Count{}, nil
	}
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: Count takes exactly 1 child, got %d", len(children))
	}
	return &Count{Child: children[0]}, nil
}
func (c *Count) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	return aggNotEvaluable("count")(ctx, row)
}
func (c *Count) BufferSchema() sql.Schema {
	return sql.Schema{{Name: "count", Type: sql.Long, Nullable: false}}
}
func (c *Count) InitialValues(ctx *sql.Context) (sql.Row, error) {
	return sql.NewRow(sql.LongValue(0)), nil
}
func (c *Count) Update(ctx *sql.Context, buffer, input sql.Row) (sql.Row, error) {
	if c.Child != nil {
		v, err := c.Child.Eval(ctx, input)
		if err != nil {
			return nil, err
		}
		if v.IsNull() {
			return buffer, nil
		}
	}
	return sql.NewRow(sql.LongValue(buffer[0].Long() + 1)), nil
}
func (c *Count) Merge(ctx *sql.Context, a, b sql.Row) (sql.Row, error) {
	return sql.NewRow(sql.LongValue(a[0].Long() + b[0].Long())), nil
}
func (c *Count) Evaluate(ctx *sql.Context, buffer sql.Row) (sql.Value, error) { return buffer[0], nil }

// Avg maintains a (sum, count) buffer pair and divides at evaluation.
type Avg struct {
	Child sql.Expression
}

func NewAvg(child sql.Expression) *Avg { return &Avg{Child: child} }

func (a *Avg) AggregateFunctionName() string { return "avg" }
func (a *Avg) Resolved() bool                { return a.Child.Resolved() }
func (a *Avg) Type() sql.Type                { return sql.Double }
func (a *Avg) Nullable() bool                { return true }
func (a *Avg) String() string                { return fmt.Sprintf("avg(%s)", a.Child) }
func (a *Avg) Children() []sql.Expression    { return []sql.Expression{a.Child} }
func (a *Avg) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: Avg takes exactly 1 child, got %d", len(children))
	}
	return &Avg{Child: children[0]}, nil
}
func (a *Avg) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	return aggNotEvaluable("avg")(ctx, row)
}
func (a *Avg) BufferSchema() sql.Schema {
	return sql.Schema{
		{Name: "sum", Type: sql.Double, Nullable: false},
		{Name: "count", Type: sql.Long, Nullable: false},
	}
}
func (a *Avg) InitialValues(ctx *sql.Context) (sql.Row, error) {
	return sql.NewRow(sql.DoubleValue(0), sql.LongValue(0)), nil
}
func (a *Avg) Update(ctx *sql.Context, buffer, input sql.Row) (sql.Row, error) {
	v, err := a.Child.Eval(ctx, input)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return buffer, nil
	}
	return sql.NewRow(sql.DoubleValue(buffer[0].Double()+toFloat64(v)), sql.LongValue(buffer[1].Long()+1)), nil
}
func (a *Avg) Merge(ctx *sql.Context, x, y sql.Row) (sql.Row, error) {
	return sql.NewRow(sql.DoubleValue(x[0].Double()+y[0].Double()), sql.LongValue(x[1].Long()+y[1].Long())), nil
}
func (a *Avg) Evaluate(ctx *sql.Context, buffer sql.Row) (sql.Value, error) {
	count := buffer[1].Long()
	if count == 0 {
		return sql.NullValue(), nil
	}
	return sql.DoubleValue(buffer[0].Double() / float64(count)), nil
}

// extremumAgg shares Min/Max's identical shape, differing only in the
// comparison direction.
type extremumAgg struct {
	child sql.Expression
	name  string
	least bool
}

func NewMin(child sql.Expression) sql.Expression {
	return &extremumAgg{child: child, name: "min", least: true}
}
func NewMax(child sql.Expression) sql.Expression {
	return &extremumAgg{child: child, name: "max", least: false}
}

func (e *extremumAgg) AggregateFunctionName() string { return e.name }
func (e *extremumAgg) Resolved() bool                { return e.child.Resolved() }
func (e *extremumAgg) Type() sql.Type                { return e.child.Type() }
func (e *extremumAgg) Nullable() bool                { return true }
func (e *extremumAgg) String() string                { return fmt.Sprintf("%s(%s)", e.name, e.child) }
func (e *extremumAgg) Children() []sql.Expression    { return []sql.Expression{e.child} }
func (e *extremumAgg) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: %s takes exactly 1 child, got %d", e.name, len(children))
	}
	return &extremumAgg{child: children[0], name: e.name, least: e.least}, nil
}
func (e *extremumAgg) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	return aggNotEvaluable(e.name)(ctx, row)
}
func (e *extremumAgg) BufferSchema() sql.Schema {
	return sql.Schema{{Name: e.name, Type: e.child.Type(), Nullable: true}}
}
func (e *extremumAgg) InitialValues(ctx *sql.Context) (sql.Row, error) {
	return sql.NewRow(sql.NullValue()), nil
}
func (e *extremumAgg) Update(ctx *sql.Context, buffer, input sql.Row) (sql.Row, error) {
	v, err := e.child.Eval(ctx, input)
	if err != nil {
		return nil, err
	}
	return sql.NewRow(e.better(buffer[0], v)), nil
}
func (e *extremumAgg) Merge(ctx *sql.Context, a, b sql.Row) (sql.Row, error) {
	return sql.NewRow(e.better(a[0], b[0])), nil
}
func (e *extremumAgg) Evaluate(ctx *sql.Context, buffer sql.Row) (sql.Value, error) {
	return buffer[0], nil
}
func (e *extremumAgg) better(cur, v sql.Value) sql.Value {
	if v.IsNull() {
		return cur
	}
	if cur.IsNull() {
		return v
	}
	cmp := v.Compare(cur)
	if (e.least && cmp < 0) || (!e.least && cmp > 0) {
		return v
	}
	return cur
}

// First/Last keep the first (or last) non-null value seen, in arrival
// order; a streaming-chunk boundary merge keeps whichever side holds a
// value for First, and prefers the later side for Last.
type firstLastAgg struct {
	child sql.Expression
	last  bool
}

func NewFirst(child sql.Expression) sql.Expression { return &firstLastAgg{child: child, last: false} }
func NewLast(child sql.Expression) sql.Expression  { return &firstLastAgg{child: child, last: true} }

func (f *firstLastAgg) name() string {
	if f.last {
		return "last"
	}
	return "first"
}
func (f *firstLastAgg) AggregateFunctionName() string { return f.name() }
func (f *firstLastAgg) Resolved() bool                { return f.child.Resolved() }
func (f *firstLastAgg) Type() sql.Type                { return f.child.Type() }
func (f *firstLastAgg) Nullable() bool                { return true }
func (f *firstLastAgg) String() string                { return fmt.Sprintf("%s(%s)", f.name(), f.child) }
func (f *firstLastAgg) Children() []sql.Expression    { return []sql.Expression{f.child} }
func (f *firstLastAgg) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: %s takes exactly 1 child, got %d", f.name(), len(children))
	}
	return &firstLastAgg{child: children[0], last: f.last}, nil
}
func (f *firstLastAgg) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	return aggNotEvaluable(f.name())(ctx, row)
}
func (f *firstLastAgg) BufferSchema() sql.Schema {
	return sql.Schema{{Name: f.name(), Type: f.child.Type(), Nullable: true}}
}
func (f *firstLastAgg) InitialValues(ctx *sql.Context) (sql.Row, error) {
	return sql.NewRow(sql.NullValue()), nil
}
func (f *firstLastAgg) Update(ctx *sql.Context, buffer, input sql.Row) (sql.Row, error) {
	if !f.last && !buffer[0].IsNull() {
		return buffer, nil
	}
	v, err := f.child.Eval(ctx, input)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return buffer, nil
	}
	return sql.NewRow(v), nil
}
func (f *firstLastAgg) Merge(ctx *sql.Context, a, b sql.Row) (sql.Row, error) {
	if f.last {
		if !b[0].IsNull() {
			return b, nil
		}
		return a, nil
	}
	if !a[0].IsNull() {
		return a, nil
	}
	return b, nil
}
func (f *firstLastAgg) Evaluate(ctx *sql.Context, buffer sql.Row) (sql.Value, error) {
	return buffer[0], nil
}

// CollectList appends every non-null evaluation of Child to a growing
// slice, preserving arrival order; its accumulator is a plain []sql.Value
// rather than a Row, so it is a TypedAggFunction.
type CollectList struct {
	Child sql.Expression
}

func NewCollectList(child sql.Expression) *CollectList { return &CollectList{Child: child} }

func (c *CollectList) AggregateFunctionName() string { return "collect_list" }
func (c *CollectList) Resolved() bool                { return c.Child.Resolved() }
func (c *CollectList) Type() sql.Type                { return sql.NewArrayType(c.Child.Type()) }
func (c *CollectList) Nullable() bool                { return false }
func (c *CollectList) String() string                { return fmt.Sprintf("collect_list(%s)", c.Child) }
func (c *CollectList) Children() []sql.Expression    { return []sql.Expression{c.Child} }
func (c *CollectList) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: CollectList takes exactly 1 child, got %d", len(children))
	}
	return &CollectList{Child: children[0]}, nil
}
func (c *CollectList) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	return aggNotEvaluable("collect_list")(ctx, row)
}
func (c *CollectList) CreateBuffer() interface{} { return []sql.Value{} }
func (c *CollectList) UpdateBuffer(ctx *sql.Context, buf interface{}, input sql.Row) (interface{}, error) {
	v, err := c.Child.Eval(ctx, input)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return buf, nil
	}
	return append(buf.([]sql.Value), v), nil
}
func (c *CollectList) MergeBuffers(a, b interface{}) (interface{}, error) {
	return append(a.([]sql.Value), b.([]sql.Value)...), nil
}
func (c *CollectList) EvalBuffer(buf interface{}) (sql.Value, error) {
	return sql.ArrayValue(buf.([]sql.Value)), nil
}

// CollectSet is CollectList with duplicate values (by HashBytes) removed.
type CollectSet struct {
	Child sql.Expression
}

func NewCollectSet(child sql.Expression) *CollectSet { return &CollectSet{Child: child} }

func (c *CollectSet) AggregateFunctionName() string { return "collect_set" }
func (c *CollectSet) Resolved() bool                { return c.Child.Resolved() }
func (c *CollectSet) Type() sql.Type                { return sql.NewArrayType(c.Child.Type()) }
func (c *CollectSet) Nullable() bool                { return false }
func (c *CollectSet) String() string                { return fmt.Sprintf("collect_set(%s)", c.Child) }
func (c *CollectSet) Children() []sql.Expression    { return []sql.Expression{c.Child} }
func (c *CollectSet) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: CollectSet takes exactly 1 child, got %d", len(children))
	}
	return &CollectSet{Child: children[0]}, nil
}
func (c *CollectSet) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	return aggNotEvaluable("collect_set")(ctx, row)
}

type collectSetBuffer struct {
	seen   map[string]struct{}
	values []sql.Value
}

func (c *CollectSet) CreateBuffer() interface{} {
	return &collectSetBuffer{seen: make(map[string]struct{})}
}
func (c *CollectSet) UpdateBuffer(ctx *sql.Context, buf interface{}, input sql.Row) (interface{}, error) {
	v, err := c.Child.Eval(ctx, input)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return buf, nil
	}
	b := buf.(*collectSetBuffer)
	key := string(v.HashBytes())
	if _, ok := b.seen[key]; ok {
		return b, nil
	}
	b.seen[key] = struct{}{}
	b.values = append(b.values, v)
	return b, nil
}
func (c *CollectSet) MergeBuffers(a, b interface{}) (interface{}, error) {
	ab, bb := a.(*collectSetBuffer), b.(*collectSetBuffer)
	for _, v := range bb.values {
		key := string(v.HashBytes())
		if _, ok := ab.seen[key]; ok {
			continue
		}
		ab.seen[key] = struct{}{}
		ab.values = append(ab.values, v)
	}
	return ab, nil
}
func (c *CollectSet) EvalBuffer(buf interface{}) (sql.Value, error) {
	return sql.ArrayValue(buf.(*collectSetBuffer).values), nil
}
