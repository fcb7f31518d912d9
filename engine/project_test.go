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
)

func TestFilterTransformDropsNonMatchingRows(t *testing.T) {
	require := require.New(t)

	schema := sql.Schema{{Name: "s", Type: sql.String}}
	attrs := expression.AttributesOf(schema)
	predicate := expression.NewLike(attrs[0], expression.NewLiteral(sql.StringValue("ab%"), sql.String))
	bound, err := expression.BindReference(predicate, attrs)
	require.NoError(err)

	f := newFilterTransform(schema, bound)
	out := &collected{}
	ctx := sql.NewEmptyContext()

	for _, s := range []string{"abc", "xyz", "ab"} {
		require.NoError(f.Process(ctx, sql.NewRow(s), out, noopTimers{}))
	}

	require.Len(out.rows, 2)
	require.Equal("abc", out.rows[0].GetString(0))
	require.Equal("ab", out.rows[1].GetString(0))
}

func TestProjectTransformEvaluatesEachExpression(t *testing.T) {
	require := require.New(t)

	schema := sql.Schema{{Name: "a", Type: sql.Int}, {Name: "b", Type: sql.Int}}
	attrs := expression.AttributesOf(schema)
	sum := expression.NewBinaryOperator(attrs[0], expression.Plus, attrs[1])
	bound, err := expression.BindReference(sum, attrs)
	require.NoError(err)

	p := newProjectTransform(sql.Schema{{Name: "total", Type: sql.Int}}, []sql.Expression{bound})
	out := &collected{}
	ctx := sql.NewEmptyContext()

	require.NoError(p.Process(ctx, sql.NewRow(int32(2), int32(3)), out, noopTimers{}))
	require.Len(out.rows, 1)
	require.Equal(int32(5), out.rows[0][0].Int())
}
