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

package parse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lukoou3/flowql/sql"
	"github.com/lukoou3/flowql/sql/expression"
	"github.com/lukoou3/flowql/sql/plan"
)

func TestParseQuerySimpleSelect(t *testing.T) {
	require := require.New(t)

	node, err := ParseQuery("SELECT id, name AS n FROM events WHERE amount > 10 GROUP BY id")
	require.NoError(err)

	agg, ok := node.(*plan.Aggregate)
	require.True(ok, "expected *plan.Aggregate, got %T", node)
	require.Len(agg.GroupingExpressions, 1)
	require.Len(agg.AggregateExpressions, 2)

	filter, ok := agg.Child.(*plan.Filter)
	require.True(ok, "expected *plan.Filter beneath the aggregate, got %T", agg.Child)

	bin, ok := filter.Condition.(*expression.BinaryOperator)
	require.True(ok)
	require.Equal(expression.Gt, bin.Operator)

	rel, ok := filter.Child.(*plan.UnresolvedRelation)
	require.True(ok)
	require.Equal("events", rel.Name)
}

func TestParseQueryUnaliasedComputedProjectionFails(t *testing.T) {
	require := require.New(t)

	_, err := ParseQuery("SELECT id + 1 FROM events")
	require.Error(err)
}

func TestParseQueryArithmeticPrecedence(t *testing.T) {
	require := require.New(t)

	node, err := ParseQuery("SELECT total AS t FROM events WHERE 1 + 2 * 3 = 7")
	require.NoError(err)

	proj, ok := node.(*plan.Project)
	require.True(ok)
	filter := proj.Child.(*plan.Filter)
	cmp := filter.Condition.(*expression.BinaryOperator)
	require.Equal(expression.Eq, cmp.Operator)

	add := cmp.Left.(*expression.BinaryOperator)
	require.Equal(expression.Plus, add.Operator)
	mul := add.Right.(*expression.BinaryOperator)
	require.Equal(expression.Multiply, mul.Operator)
}

func TestParseQueryLogicalPrecedence(t *testing.T) {
	require := require.New(t)

	node, err := ParseQuery("SELECT id FROM events WHERE a = 1 OR b = 2 AND NOT c = 3")
	require.NoError(err)

	filter := node.(*plan.Project).Child.(*plan.Filter)
	or := filter.Condition.(*expression.BinaryOperator)
	require.Equal(expression.Or, or.Operator)

	and := or.Right.(*expression.BinaryOperator)
	require.Equal(expression.And, and.Operator)

	_, ok := and.Right.(*expression.Not)
	require.True(ok, "expected NOT wrapping the right operand of AND")
}

func TestParseExpressionCastAndLiterals(t *testing.T) {
	require := require.New(t)

	expr, err := ParseExpression("CAST(amount AS DOUBLE)")
	require.NoError(err)
	cast, ok := expr.(*expression.Cast)
	require.True(ok)
	require.Equal(sql.Double, cast.TargetType)

	expr, err = ParseExpression("123456789012")
	require.NoError(err)
	lit := expr.(*expression.Literal)
	require.Equal(sql.Long, lit.DataType)

	expr, err = ParseExpression("42")
	require.NoError(err)
	lit = expr.(*expression.Literal)
	require.Equal(sql.Int, lit.DataType)

	expr, err = ParseExpression("NULL")
	require.NoError(err)
	lit = expr.(*expression.Literal)
	require.True(lit.Value.IsNull())

	expr, err = ParseExpression("'it''s \\'escaped\\''")
	require.NoError(err)
	_, ok = expr.(*expression.Literal)
	require.True(ok)
}

func TestParseExpressionFunctionCall(t *testing.T) {
	require := require.New(t)

	expr, err := ParseExpression("upper(name)")
	require.NoError(err)
	fn, ok := expr.(*expression.UnresolvedFunction)
	require.True(ok)
	require.Equal("upper", fn.Name)
	require.Len(fn.Args, 1)
}

func TestParseExpressionBacktickIdent(t *testing.T) {
	require := require.New(t)

	expr, err := ParseExpression("`my col`")
	require.NoError(err)
	attr, ok := expr.(*expression.UnresolvedAttribute)
	require.True(ok)
	require.Equal("my col", attr.Name)
}

func TestParseDataTypeArrayAndStruct(t *testing.T) {
	require := require.New(t)

	typ, err := ParseDataType("ARRAY<STRING>")
	require.NoError(err)
	arr, ok := typ.(sql.ArrayType)
	require.True(ok)
	require.Equal(sql.String, arr.Element)

	typ, err = ParseDataType("STRUCT<a:INT, b:STRING>")
	require.NoError(err)
	st, ok := typ.(sql.StructType)
	require.True(ok)
	require.Len(st.Fields, 2)
	require.Equal("a", st.Fields[0].Name)
	require.Equal(sql.Int, st.Fields[0].Type)
}

func TestParseSchemaRequiresStructType(t *testing.T) {
	require := require.New(t)

	schema, err := ParseSchema("STRUCT<id:LONG, name:STRING>")
	require.NoError(err)
	require.Len(schema, 2)

	_, err = ParseSchema("STRING")
	require.Error(err)
}
