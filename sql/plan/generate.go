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

package plan

import (
	"fmt"

	"github.com/lukoou3/flowql/sql"
	"github.com/lukoou3/flowql/sql/expression"
)

// Generate expands each input row into zero or more output rows via a
// table-valued Generator (explode, path_file_unroll,...); when
// OuterJoin is set, an input row whose generator produces nothing still
// emits once with Null generated columns, mirroring LEFT OUTER semantics
// .
type Generate struct {
	Generator sql.Generator
	OuterJoin bool
	Child     sql.Node
	elemAttrs []*expression.AttributeReference
}

// NewGenerate mints the generated columns' attributes once, when the
// generator is already resolved, so repeated analyzer passes keep the
// same ExprIDs.
func NewGenerate(generator sql.Generator, outer bool, child sql.Node) *Generate {
	g := &Generate{Generator: generator, OuterJoin: outer, Child: child}
	if generator.Resolved() {
		g.elemAttrs = expression.AttributesOf(generator.ElementSchema())
	}
	return g
}

// OutputAttributes returns only the generated columns' stable attributes;
// callers append them after the child's output attributes.
func (g *Generate) OutputAttributes() []*expression.AttributeReference { return g.elemAttrs }

func (g *Generate) Resolved() bool { return g.Generator.Resolved() && g.Child.Resolved() }
func (g *Generate) Schema() sql.Schema {
	return append(append(sql.Schema{}, g.Child.Schema()...), g.Generator.ElementSchema()...)
}
func (g *Generate) Children() []sql.Node { return []sql.Node{g.Child} }
func (g *Generate) WithChildren(children []sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: Generate takes exactly 1 child, got %d", len(children))
	}
	return &Generate{Generator: g.Generator, OuterJoin: g.OuterJoin, Child: children[0], elemAttrs: g.elemAttrs}, nil
}
func (g *Generate) Expressions() []sql.Expression { return []sql.Expression{g.Generator} }
func (g *Generate) WithExpressions(e []sql.Expression) (sql.Node, error) {
	if len(e) != 1 {
		return nil, fmt.Errorf("flowql: Generate takes exactly 1 expression, got %d", len(e))
	}
	gen, ok := e[0].(sql.Generator)
	if !ok {
		return nil, fmt.Errorf("flowql: Generate's expression must implement sql.Generator")
	}
	return NewGenerate(gen, g.OuterJoin, g.Child), nil
}
func (g *Generate) String() string { return fmt.Sprintf("Generate(%s)\n  %s", g.Generator, g.Child) }
