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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lukoou3/flowql/sql"
	"github.com/lukoou3/flowql/sql/expression"
	"github.com/lukoou3/flowql/sql/plan"
)

type collected struct {
	rows []sql.Row
}

func (c *collected) Collect(ctx *sql.Context, row sql.Row) error {
	c.rows = append(c.rows, row.Copy())
	return nil
}

func schemaKV() sql.Schema {
	return sql.Schema{
		{Name: "k", Type: sql.String},
		{Name: "v", Type: sql.Int, Nullable: true},
	}
}

// buildGroupedAggregate mirrors what the analyzer would produce for
// "SELECT k, sum(v), count(v) FROM tbl GROUP BY k": grouping on k,
// aggregate list [k, sum(v), count(v)].
func buildGroupedAggregate(t *testing.T) (*aggregateOperator, []*expression.AttributeReference) {
	t.Helper()
	rel := plan.NewRelationPlaceholder("tbl", schemaKV())
	relAttrs := rel.OutputAttributes()
	kAttr, vAttr := relAttrs[0], relAttrs[1]

	agg := plan.NewAggregate(
		[]sql.Expression{kAttr},
		[]sql.Expression{kAttr, expression.NewAlias("sum_v", expression.NewSum(vAttr)), expression.NewAlias("cnt_v", expression.NewCount(vAttr))},
		rel,
	)

	op, err := newAggregateOperator(agg, relAttrs, Triggers{})
	require.New(t).NoError(err)
	return op, relAttrs
}

func TestAggregateOperatorGroupsAndSums(t *testing.T) {
	require := require.New(t)
	op, _ := buildGroupedAggregate(t)
	ctx := sql.NewEmptyContext()

	rows := []sql.Row{
		sql.NewRow("a", int32(1)),
		sql.NewRow("a", int32(2)),
		sql.NewRow("b", int32(3)),
		sql.NewRow("a", nil),
	}

	out := &collected{}
	var timers noopTimers
	for _, r := range rows {
		require.NoError(op.Process(ctx, r, out, timers))
	}
	require.NoError(op.OnTime(ctx, 0, out))
	require.Len(out.rows, 2)

	byKey := map[string]sql.Row{}
	for _, r := range out.rows {
		byKey[r.GetString(0)] = r
	}

	a := byKey["a"]
	require.Equal(int64(3), a[1].Long())
	require.Equal(int64(2), a[2].Long())

	b := byKey["b"]
	require.Equal(int64(3), b[1].Long())
	require.Equal(int64(1), b[2].Long())
}

func TestAggregateOperatorGlobalAggregate(t *testing.T) {
	require := require.New(t)
	rel := plan.NewRelationPlaceholder("tbl", schemaKV())
	relAttrs := rel.OutputAttributes()
	vAttr := relAttrs[1]

	agg := plan.NewAggregate(
		nil,
		[]sql.Expression{expression.NewAlias("sum_v", expression.NewSum(vAttr))},
		rel,
	)
	op, err := newAggregateOperator(agg, relAttrs, Triggers{})
	require.NoError(err)

	ctx := sql.NewEmptyContext()
	out := &collected{}
	var timers noopTimers
	for _, v := range []interface{}{int32(1), int32(2), nil, int32(4)} {
		require.NoError(op.Process(ctx, sql.NewRow("x", v), out, timers))
	}
	require.NoError(op.OnTime(ctx, 0, out))
	require.Len(out.rows, 1)
	require.Equal(int64(7), out.rows[0][0].Long())
}

func TestAggregateOperatorMaxRowsTriggersImmediateFlush(t *testing.T) {
	require := require.New(t)
	op, _ := buildGroupedAggregate(t)
	op.triggers = Triggers{MaxRows: 1}

	ctx := sql.NewEmptyContext()
	out := &collected{}
	var timers noopTimers
	require.NoError(op.Process(ctx, sql.NewRow("a", 1), out, timers))
	require.Len(out.rows, 1, "a single group at max_rows=1 should flush immediately")
}

type noopTimers struct{}

func (noopTimers) RegisterTimer(int64) {}
