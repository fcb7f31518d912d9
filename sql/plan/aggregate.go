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
	"strings"

	"github.com/lukoou3/flowql/sql"
)

// Aggregate groups its child's rows by GroupingExpressions and evaluates
// AggregateExpressions (each normally an Alias wrapping an
// AggregateExpression) per group. The
// logical node is shape-only; the windowing/triggering policy lives on
// the engine operator that compiles this node.
type Aggregate struct {
	GroupingExpressions  []sql.Expression
	AggregateExpressions []sql.Expression
	Child                sql.Node
}

func NewAggregate(grouping, aggregates []sql.Expression, child sql.Node) *Aggregate {
	return &Aggregate{GroupingExpressions: grouping, AggregateExpressions: aggregates, Child: child}
}

func (a *Aggregate) Resolved() bool {
	if !a.Child.Resolved() {
		return false
	}
	for _, e := range a.GroupingExpressions {
		if !e.Resolved() {
			return false
		}
	}
	for _, e := range a.AggregateExpressions {
		if !e.Resolved() {
			return false
		}
	}
	return true
}

// Schema derives from AggregateExpressions alone: that list is the full
// output projection (any pass-through grouping column appears in it by
// reference), GroupingExpressions only drives the grouping key.
func (a *Aggregate) Schema() sql.Schema {
	return schemaOf(a.AggregateExpressions)
}
func (a *Aggregate) Children() []sql.Node { return []sql.Node{a.Child} }
func (a *Aggregate) WithChildren(children []sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: Aggregate takes exactly 1 child, got %d", len(children))
	}
	return &Aggregate{GroupingExpressions: a.GroupingExpressions, AggregateExpressions: a.AggregateExpressions, Child: children[0]}, nil
}
func (a *Aggregate) Expressions() []sql.Expression {
	out := make([]sql.Expression, 0, len(a.GroupingExpressions)+len(a.AggregateExpressions))
	out = append(out, a.GroupingExpressions...)
	out = append(out, a.AggregateExpressions...)
	return out
}
func (a *Aggregate) WithExpressions(e []sql.Expression) (sql.Node, error) {
	n := len(a.GroupingExpressions)
	if len(e) != n+len(a.AggregateExpressions) {
		return nil, fmt.Errorf("flowql: Aggregate expression count mismatch")
	}
	return &Aggregate{GroupingExpressions: e[:n], AggregateExpressions: e[n:], Child: a.Child}, nil
}
func (a *Aggregate) String() string {
	g := make([]string, len(a.GroupingExpressions))
	for i, e := range a.GroupingExpressions {
		g[i] = e.String()
	}
	x := make([]string, len(a.AggregateExpressions))
	for i, e := range a.AggregateExpressions {
		x[i] = e.String()
	}
	return fmt.Sprintf("Aggregate(grouping=[%s], aggregates=[%s])\n  %s",
		strings.Join(g, ", "), strings.Join(x, ", "), a.Child)
}
