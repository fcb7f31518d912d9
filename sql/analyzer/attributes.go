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

// Package analyzer implements the rule-based fixpoint analyzer that turns
// an unresolved logical plan into a fully resolved, type-checked one
// .
package analyzer

import (
	"github.com/lukoou3/flowql/sql"
	"github.com/lukoou3/flowql/sql/expression"
	"github.com/lukoou3/flowql/sql/plan"
)

// outputAttributes returns node's output columns as stable attribute
// references, used by ResolveReferences to bind UnresolvedAttribute by
// name. Nodes whose attributes aren't yet mintable (an unresolved child)
// return nil; callers treat that as "not resolvable yet".
func outputAttributes(node sql.Node) []*expression.AttributeReference {
	switch n := node.(type) {
	case *plan.RelationPlaceholder:
		return n.OutputAttributes()
	case *plan.Filter:
		return outputAttributes(n.Child)
	case *plan.Project:
		return namedAttributes(n.Projections)
	case *plan.Aggregate:
		// AggregateExpressions is the full output projection; any
		// pass-through grouping column already appears in it by reference.
		return namedAttributes(n.AggregateExpressions)
	case *plan.Generate:
		base := outputAttributes(n.Child)
		if base == nil || n.OutputAttributes() == nil {
			return nil
		}
		return append(append([]*expression.AttributeReference{}, base...), n.OutputAttributes()...)
	default:
		return nil
	}
}

// namedAttributes projects a list of resolved named expressions onto
// their attributes: an Alias keeps the ExprID it minted at construction,
// an AttributeReference passes through unchanged, and anything else (a
// bare unaliased computed expression) mints a fresh one each call — an
// accepted simplification since the parser always wraps a computed
// projection in an Alias.
func namedAttributes(exprs []sql.Expression) []*expression.AttributeReference {
	out := make([]*expression.AttributeReference, len(exprs))
	for i, e := range exprs {
		switch t := e.(type) {
		case *expression.Alias:
			out[i] = t.ToAttribute()
		case *expression.AttributeReference:
			out[i] = t
		default:
			if !e.Resolved() {
				return nil
			}
			out[i] = expression.NewAttributeReference("_c", e.Type(), e.Nullable())
		}
	}
	return out
}
