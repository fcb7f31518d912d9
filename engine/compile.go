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

	"github.com/lukoou3/flowql/sql"
	"github.com/lukoou3/flowql/sql/expression"
	"github.com/lukoou3/flowql/sql/plan"
)

// Triggers configures the aggregate operator's flush conditions, bound
// from the config surface's max_rows/interval_ms.
type Triggers struct {
	MaxRows    int
	IntervalMs int64
}

// Compile turns a resolved logical plan into the ordered chain of
// Transforms a runtime threads a Source's output through before handing
// rows to a Sink. The leaf of node must be a *plan.RelationPlaceholder;
// its schema is what the runtime's Source is expected to produce.
func Compile(node sql.Node, triggers Triggers) ([]Transform, error) {
	switch n := node.(type) {
	case *plan.RelationPlaceholder:
		return nil, nil
	case *plan.Filter:
		stages, err := Compile(n.Child, triggers)
		if err != nil {
			return nil, err
		}
		inputAttrs := planOutputAttributes(n.Child)
		bound, err := expression.BindReference(n.Condition, inputAttrs)
		if err != nil {
			return nil, err
		}
		return append(stages, newFilterTransform(n.Child.Schema(), bound)), nil
	case *plan.Project:
		stages, err := Compile(n.Child, triggers)
		if err != nil {
			return nil, err
		}
		inputAttrs := planOutputAttributes(n.Child)
		bound := make([]sql.Expression, len(n.Projections))
		for i, p := range n.Projections {
			b, err := expression.BindReference(p, inputAttrs)
			if err != nil {
				return nil, err
			}
			bound[i] = b
		}
		return append(stages, newProjectTransform(n.Schema(), bound)), nil
	case *plan.Aggregate:
		stages, err := Compile(n.Child, triggers)
		if err != nil {
			return nil, err
		}
		inputAttrs := planOutputAttributes(n.Child)
		agg, err := newAggregateOperator(n, inputAttrs, triggers)
		if err != nil {
			return nil, err
		}
		return append(stages, agg), nil
	default:
		return nil, fmt.Errorf("flowql: engine.Compile: unsupported plan node %T", node)
	}
}

// planOutputAttributes mirrors sql/analyzer/attributes.go's outputAttributes
// for the physical-planning layer: by the time Compile runs, node is fully
// resolved, so every branch always yields a concrete attribute list.
func planOutputAttributes(node sql.Node) []*expression.AttributeReference {
	switch n := node.(type) {
	case *plan.RelationPlaceholder:
		return n.OutputAttributes()
	case *plan.Filter:
		return planOutputAttributes(n.Child)
	case *plan.Project:
		return planNamedAttributes(n.Projections)
	case *plan.Aggregate:
		// AggregateExpressions is the full output projection; any
		// pass-through grouping column already appears in it by reference.
		return planNamedAttributes(n.AggregateExpressions)
	case *plan.Generate:
		base := planOutputAttributes(n.Child)
		return append(append([]*expression.AttributeReference{}, base...), n.OutputAttributes()...)
	default:
		return nil
	}
}

func planNamedAttributes(exprs []sql.Expression) []*expression.AttributeReference {
	out := make([]*expression.AttributeReference, len(exprs))
	for i, e := range exprs {
		switch t := e.(type) {
		case *expression.Alias:
			out[i] = t.ToAttribute()
		case *expression.AttributeReference:
			out[i] = t
		default:
			out[i] = expression.NewAttributeReference("_c", e.Type(), e.Nullable())
		}
	}
	return out
}
