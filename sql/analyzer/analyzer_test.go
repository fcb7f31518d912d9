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

package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lukoou3/flowql/sql"
	"github.com/lukoou3/flowql/sql/expression"
	"github.com/lukoou3/flowql/sql/expression/function"
	"github.com/lukoou3/flowql/sql/plan"
)

func testSchema() sql.Schema {
	return sql.Schema{
		{Name: "id", Type: sql.Long, Nullable: false},
		{Name: "name", Type: sql.String, Nullable: true},
		{Name: "amount", Type: sql.Int, Nullable: true},
	}
}

func newTestAnalyzer() (*Analyzer, *Session) {
	session := NewSession()
	session.Register("events", testSchema())
	return NewAnalyzer(session, function.DefaultCatalog), session
}

func TestAnalyzeResolvesProjectionAndFilter(t *testing.T) {
	require := require.New(t)
	a, _ := newTestAnalyzer()

	node := plan.NewProject(
		[]sql.Expression{
			expression.NewUnresolvedAttribute("id"),
			expression.NewUnresolvedAttribute("NAME"),
		},
		plan.NewFilter(
			expression.NewBinaryOperator(
				expression.NewUnresolvedAttribute("amount"),
				expression.Gt,
				expression.NewLiteral(sql.IntValue(0), sql.Int),
			),
			plan.NewUnresolvedRelation("events"),
		),
	)

	resolved, err := a.Analyze(node)
	require.NoError(err)
	require.True(resolved.Resolved())

	schema := resolved.Schema()
	require.Len(schema, 2)
	require.Equal("id", schema[0].Name)
	require.Equal("name", schema[1].Name)
}

func TestAnalyzeUnknownRelationFails(t *testing.T) {
	require := require.New(t)
	a, _ := newTestAnalyzer()

	node := plan.NewProject(
		[]sql.Expression{expression.NewUnresolvedAttribute("id")},
		plan.NewUnresolvedRelation("nope"),
	)

	_, err := a.Analyze(node)
	require.Error(err)
}

func TestAnalyzeUnknownColumnFails(t *testing.T) {
	require := require.New(t)
	a, _ := newTestAnalyzer()

	node := plan.NewProject(
		[]sql.Expression{expression.NewUnresolvedAttribute("missing")},
		plan.NewUnresolvedRelation("events"),
	)

	_, err := a.Analyze(node)
	require.Error(err)
}

func TestAnalyzeResolvesFunctionCall(t *testing.T) {
	require := require.New(t)
	a, _ := newTestAnalyzer()

	node := plan.NewProject(
		[]sql.Expression{
			expression.NewAlias("up", expression.NewUnresolvedFunction("upper", []sql.Expression{
				expression.NewUnresolvedAttribute("name"),
			})),
		},
		plan.NewUnresolvedRelation("events"),
	)

	resolved, err := a.Analyze(node)
	require.NoError(err)
	require.True(resolved.Resolved())
	require.Equal(sql.String, resolved.Schema()[0].Type)
}

func TestAnalyzeGlobalAggregateRewritesToAggregateNode(t *testing.T) {
	require := require.New(t)
	a, _ := newTestAnalyzer()

	node := plan.NewProject(
		[]sql.Expression{
			expression.NewAlias("total", expression.NewUnresolvedFunction("sum", []sql.Expression{
				expression.NewUnresolvedAttribute("amount"),
			})),
		},
		plan.NewUnresolvedRelation("events"),
	)

	resolved, err := a.Analyze(node)
	require.NoError(err)
	_, ok := resolved.(*plan.Aggregate)
	require.True(ok, "expected global aggregate rewrite to *plan.Aggregate, got %T", resolved)
}

func TestAnalyzeCoercesMixedNumericComparison(t *testing.T) {
	require := require.New(t)
	a, _ := newTestAnalyzer()

	node := plan.NewFilter(
		expression.NewBinaryOperator(
			expression.NewUnresolvedAttribute("amount"),
			expression.Lt,
			expression.NewLiteral(sql.DoubleValue(1.5), sql.Double),
		),
		plan.NewUnresolvedRelation("events"),
	)

	resolved, err := a.Analyze(node)
	require.NoError(err)

	f := resolved.(*plan.Filter)
	cond := f.Condition.(*expression.BinaryOperator)
	require.Equal(sql.Double, cond.Left.Type())
	require.Equal(sql.Double, cond.Right.Type())
}
