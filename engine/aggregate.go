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

import (
	"fmt"
	"time"

	"github.com/mitchellh/hashstructure"

	"github.com/lukoou3/flowql/sql"
	"github.com/lukoou3/flowql/sql/expression"
	"github.com/lukoou3/flowql/sql/plan"
)

// aggSlot is one aggregate function bound against the child schema, its
// state shape (declarative or typed) fixed at compile time.
type aggSlot struct {
	declarative expression.DeclarativeAggFunction
	typed       expression.TypedAggFunction
	resultIndex int // position within the per-group results row at flush
}

func (s *aggSlot) resultType() sql.Type {
	if s.declarative != nil {
		return s.declarative.Type()
	}
	return s.typed.Type()
}

func (s *aggSlot) resultNullable() bool {
	if s.declarative != nil {
		return s.declarative.Nullable()
	}
	return s.typed.Nullable()
}

// groupState is the mutable per-key accumulator: one declarative buffer
// row per declarative slot, one opaque Go value per typed slot.
type groupState struct {
	key          sql.Row
	declBuffers  []sql.Row
	typedBuffers []interface{}
}

// aggregateOperator implements the streaming aggregate state machine:
// idle -> collecting -> flushing -> collecting, keyed by a bucketed
// hash map (mitchellh/hashstructure pre-hash, sql.Row.Equal breaks ties)
// since sql.Row is not itself comparable.
type aggregateOperator struct {
	schema   sql.Schema
	grouping []sql.Expression // bound against child attrs
	slots    []*aggSlot
	results  []sql.Expression // bound against JoinedRow{key, slotResults}.Flatten()

	triggers   Triggers
	buckets    map[uint64][]*groupState
	size       int
	timerArmed bool

	keyBuffer sql.Row
}

func newAggregateOperator(agg *plan.Aggregate, childAttrs []*expression.AttributeReference, triggers Triggers) (*aggregateOperator, error) {
	grouping := make([]sql.Expression, len(agg.GroupingExpressions))
	for i, g := range agg.GroupingExpressions {
		b, err := expression.BindReference(g, childAttrs)
		if err != nil {
			return nil, err
		}
		grouping[i] = b
	}

	op := &aggregateOperator{
		schema:    agg.Schema(),
		grouping:  grouping,
		triggers:  triggers,
		buckets:   make(map[uint64][]*groupState),
		keyBuffer: make(sql.Row, len(grouping)),
	}

	results := make([]sql.Expression, len(agg.AggregateExpressions))
	for i, e := range agg.AggregateExpressions {
		r, err := op.rewriteResultExpr(e, agg.GroupingExpressions, childAttrs)
		if err != nil {
			return nil, err
		}
		results[i] = r
	}
	op.results = results
	return op, nil
}

// rewriteResultExpr replaces every subexpression that matches a grouping
// expression verbatim with a key-row BoundReference, and every aggregate
// function with a BoundReference into the per-flush results row,
// recursing through everything else to splice the grouping key and the
// per-aggregate results side by side.
func (op *aggregateOperator) rewriteResultExpr(e sql.Expression, grouping []sql.Expression, childAttrs []*expression.AttributeReference) (sql.Expression, error) {
	for i, g := range grouping {
		if aggExprEquivalent(e, g) {
			return expression.NewBoundReference(i, g.Type(), g.Nullable()), nil
		}
	}
	if agg, ok := e.(sql.AggregateExpression); ok {
		slot, err := op.registerSlot(agg, childAttrs)
		if err != nil {
			return nil, err
		}
		ordinal := len(grouping) + slot.resultIndex
		return expression.NewBoundReference(ordinal, slot.resultType(), slot.resultNullable()), nil
	}
	children := e.Children()
	if len(children) == 0 {
		return e, nil
	}
	newChildren := make([]sql.Expression, len(children))
	for i, c := range children {
		nc, err := op.rewriteResultExpr(c, grouping, childAttrs)
		if err != nil {
			return nil, err
		}
		newChildren[i] = nc
	}
	return e.WithChildren(newChildren)
}

func (op *aggregateOperator) registerSlot(agg sql.AggregateExpression, childAttrs []*expression.AttributeReference) (*aggSlot, error) {
	children := agg.Children()
	boundChildren := make([]sql.Expression, len(children))
	for i, c := range children {
		b, err := expression.BindReference(c, childAttrs)
		if err != nil {
			return nil, err
		}
		boundChildren[i] = b
	}
	var bound sql.Expression = agg
	if len(children) > 0 {
		var err error
		bound, err = agg.WithChildren(boundChildren)
		if err != nil {
			return nil, err
		}
	}
	slot := &aggSlot{resultIndex: len(op.slots)}
	switch b := bound.(type) {
	case expression.DeclarativeAggFunction:
		slot.declarative = b
	case expression.TypedAggFunction:
		slot.typed = b
	default:
		return nil, fmt.Errorf("flowql: aggregate %s is neither declarative nor typed", agg)
	}
	op.slots = append(op.slots, slot)
	return slot, nil
}

// aggExprEquivalent compares an aggregate's non-aggregate subexpression
// against a grouping expression: AttributeReferences compare by ExprID,
// everything else falls back to String() equality.
func aggExprEquivalent(a, b sql.Expression) bool {
	if ar, ok := a.(*expression.AttributeReference); ok {
		if br, ok := b.(*expression.AttributeReference); ok {
			return ar.ExprID == br.ExprID
		}
		return false
	}
	return a.String() == b.String()
}

func (op *aggregateOperator) Schema() sql.Schema { return op.schema }

func rowHashInput(row sql.Row) []interface{} {
	out := make([]interface{}, len(row))
	for i := range row {
		v := row[i]
		if v.IsNull() {
			out[i] = nil
			continue
		}
		switch v.Tag() {
		case sql.TypeIDInt:
			out[i] = v.Int()
		case sql.TypeIDLong:
			out[i] = v.Long()
		case sql.TypeIDString:
			out[i] = v.String()
		case sql.TypeIDBoolean:
			out[i] = v.Boolean()
		case sql.TypeIDBinary:
			out[i] = string(v.Binary())
		case sql.TypeIDTimestamp:
			out[i] = v.Timestamp()
		case sql.TypeIDDate:
			out[i] = v.Date()
		default:
			// Float, Double, Struct and Array go through the value's own
			// canonical encoding so NaN/+0.0/-0.0 hash identically, matching
			// Value.Equal (the bucket's tie-breaker).
			out[i] = v.HashBytes()
		}
	}
	return out
}

func (op *aggregateOperator) findOrCreateGroup(ctx *sql.Context, key sql.Row) (*groupState, error) {
	h, err := hashstructure.Hash(rowHashInput(key), nil)
	if err != nil {
		return nil, fmt.Errorf("flowql: hashing grouping key: %w", err)
	}
	for _, g := range op.buckets[h] {
		if g.key.Equal(key) {
			return g, nil
		}
	}
	g := &groupState{key: key.Copy()}
	if len(op.slots) > 0 {
		g.declBuffers = make([]sql.Row, len(op.slots))
		g.typedBuffers = make([]interface{}, len(op.slots))
		for i, s := range op.slots {
			if s.declarative != nil {
				b, err := s.declarative.InitialValues(ctx)
				if err != nil {
					return nil, err
				}
				g.declBuffers[i] = b
			} else {
				g.typedBuffers[i] = s.typed.CreateBuffer()
			}
		}
	}
	op.buckets[h] = append(op.buckets[h], g)
	op.size++
	return g, nil
}

// Process implements one "collecting" step of the state machine:
// compute the grouping key, upsert the group, update every slot, and
// trigger an immediate flush if the group count reaches max_rows.
func (op *aggregateOperator) Process(ctx *sql.Context, row sql.Row, collector Collector, timers TimerService) error {
	for i, g := range op.grouping {
		v, err := g.Eval(ctx, row)
		if err != nil {
			return err
		}
		op.keyBuffer[i] = v
	}

	group, err := op.findOrCreateGroup(ctx, op.keyBuffer)
	if err != nil {
		return err
	}

	for i, s := range op.slots {
		if s.declarative != nil {
			b, err := s.declarative.Update(ctx, group.declBuffers[i], row)
			if err != nil {
				return err
			}
			group.declBuffers[i] = b
		} else {
			b, err := s.typed.UpdateBuffer(ctx, group.typedBuffers[i], row)
			if err != nil {
				return err
			}
			group.typedBuffers[i] = b
		}
	}

	if op.triggers.MaxRows > 0 && op.size >= op.triggers.MaxRows {
		return op.flush(ctx, collector)
	}
	if !op.timerArmed && op.triggers.IntervalMs > 0 {
		timers.RegisterTimer(time.Now().UnixMicro() + op.triggers.IntervalMs*1000)
		op.timerArmed = true
	}
	return nil
}

// OnTime flushes on the timer trigger; a re-arm only happens on the next
// buffered row after a flush, so a flush never emits the same group twice.
func (op *aggregateOperator) OnTime(ctx *sql.Context, nowMicros int64, collector Collector) error {
	op.timerArmed = false
	if op.size == 0 {
		return nil
	}
	return op.flush(ctx, collector)
}

// flush evaluates the result projection for every (key, buffer) pair and
// emits one row per group; flush order across groups is unspecified
// .
func (op *aggregateOperator) flush(ctx *sql.Context, collector Collector) error {
	resultsRow := make(sql.Row, len(op.slots))
	for _, bucket := range op.buckets {
		for _, g := range bucket {
			for i, s := range op.slots {
				var v sql.Value
				var err error
				if s.declarative != nil {
					v, err = s.declarative.Evaluate(ctx, g.declBuffers[i])
				} else {
					v, err = s.typed.EvalBuffer(g.typedBuffers[i])
				}
				if err != nil {
					return err
				}
				resultsRow[i] = v
			}
			joined := sql.NewJoinedRow(g.key, resultsRow).Flatten()
			out := make(sql.Row, len(op.results))
			for i, r := range op.results {
				v, err := r.Eval(ctx, joined)
				if err != nil {
					return err
				}
				out[i] = v
			}
			if err := collector.Collect(ctx, out); err != nil {
				return err
			}
		}
	}
	op.buckets = make(map[uint64][]*groupState)
	op.size = 0
	op.timerArmed = false
	return nil
}

func (op *aggregateOperator) Close() error { return nil }
