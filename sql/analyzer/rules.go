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
	"strings"

	"github.com/lukoou3/flowql/sql"
	"github.com/lukoou3/flowql/sql/expression"
	"github.com/lukoou3/flowql/sql/plan"
	"github.com/lukoou3/flowql/sql/transform"
)

// Rule is one fixpoint pass; it returns the (possibly rewritten) plan and
// whether it changed anything.
type Rule func(node sql.Node) (sql.Node, bool, error)

// resolveRelations rewrites plan.UnresolvedRelation into plan.RelationPlaceholder
// by looking the name up in the session.
func resolveRelations(session *Session) Rule {
	return func(node sql.Node) (sql.Node, bool, error) {
		result, err := transform.TransformUp(node, func(n sql.Node) (transform.Transformed[sql.Node], error) {
			u, ok := n.(*plan.UnresolvedRelation)
			if !ok {
				return transform.Same(n), nil
			}
			schema, ok := session.Lookup(u.Name)
			if !ok {
				return transform.Same(n), nil
			}
			return transform.Changed[sql.Node](plan.NewRelationPlaceholder(u.Name, schema)), nil
		})
		if err != nil {
			return nil, false, err
		}
		return result.Node, result.Changed, nil
	}
}

// resolveReferences rewrites expression.UnresolvedAttribute into a bound
// expression.AttributeReference by matching names against the enclosing
// node's child output (case-insensitively), one ExpressionsContainer node
// at a time.
func resolveReferences(node sql.Node) (sql.Node, bool, error) {
	result, err := transform.TransformUp(node, func(n sql.Node) (transform.Transformed[sql.Node], error) {
		ec, ok := n.(sql.ExpressionsContainer)
		if !ok {
			return transform.Same(n), nil
		}
		var attrs []*expression.AttributeReference
		for _, c := range ec.Children() {
			attrs = append(attrs, outputAttributes(c)...)
		}
		if attrs == nil {
			return transform.Same(n), nil
		}
		exprs := ec.Expressions()
		newExprs := make([]sql.Expression, len(exprs))
		anyChanged := false
		for i, e := range exprs {
			ne, changed, err := resolveAttrsInExpr(e, attrs)
			if err != nil {
				return transform.Transformed[sql.Node]{}, err
			}
			newExprs[i] = ne
			if changed {
				anyChanged = true
			}
		}
		if !anyChanged {
			return transform.Same(n), nil
		}
		newNode, err := ec.WithExpressions(newExprs)
		if err != nil {
			return transform.Transformed[sql.Node]{}, err
		}
		return transform.Changed(newNode), nil
	})
	if err != nil {
		return nil, false, err
	}
	return result.Node, result.Changed, nil
}

func resolveAttrsInExpr(expr sql.Expression, attrs []*expression.AttributeReference) (sql.Expression, bool, error) {
	result, err := transform.TransformUp(expr, func(e sql.Expression) (transform.Transformed[sql.Expression], error) {
		ua, ok := e.(*expression.UnresolvedAttribute)
		if !ok {
			return transform.Same(e), nil
		}
		var match *expression.AttributeReference
		for _, a := range attrs {
			if strings.EqualFold(a.Name, ua.Name) {
				match = a
				break
			}
		}
		if match == nil {
			return transform.Same(e), nil
		}
		return transform.Changed[sql.Expression](match), nil
	})
	if err != nil {
		return nil, false, err
	}
	return result.Node, result.Changed, nil
}

// resolveExtractValues rewrites expression.UnresolvedExtractValue into
// expression.GetArrayItem once its child is resolved and array-typed.
// "child.extraction" binds to Array indexing; any other child type is
// an immediate failure, not a later validation error, because no other
// extraction form is supported yet.
func resolveExtractValues(node sql.Node) (sql.Node, bool, error) {
	result, err := transform.TransformUp(node, func(n sql.Node) (transform.Transformed[sql.Node], error) {
		ec, ok := n.(sql.ExpressionsContainer)
		if !ok {
			return transform.Same(n), nil
		}
		exprs := ec.Expressions()
		newExprs := make([]sql.Expression, len(exprs))
		anyChanged := false
		for i, e := range exprs {
			ne, changed, err := resolveExtractValueInExpr(e)
			if err != nil {
				return transform.Transformed[sql.Node]{}, err
			}
			newExprs[i] = ne
			if changed {
				anyChanged = true
			}
		}
		if !anyChanged {
			return transform.Same(n), nil
		}
		newNode, err := ec.WithExpressions(newExprs)
		if err != nil {
			return transform.Transformed[sql.Node]{}, err
		}
		return transform.Changed(newNode), nil
	})
	if err != nil {
		return nil, false, err
	}
	return result.Node, result.Changed, nil
}

func resolveExtractValueInExpr(expr sql.Expression) (sql.Expression, bool, error) {
	result, err := transform.TransformUp(expr, func(e sql.Expression) (transform.Transformed[sql.Expression], error) {
		uv, ok := e.(*expression.UnresolvedExtractValue)
		if !ok {
			return transform.Same(e), nil
		}
		if !uv.Child.Resolved() {
			return transform.Same(e), nil
		}
		if _, ok := uv.Child.Type().(sql.ArrayType); !ok {
			return transform.Transformed[sql.Expression]{}, sql.ErrType.New(
				"cannot index non-array expression " + uv.Child.String())
		}
		return transform.Changed[sql.Expression](expression.NewGetArrayItem(uv.Child, uv.Extraction)), nil
	})
	if err != nil {
		return nil, false, err
	}
	return result.Node, result.Changed, nil
}

// resolveFunctions rewrites expression.UnresolvedFunction into a concrete
// Expression by looking the name up in catalog and invoking its builder
// once every argument is resolved.
func resolveFunctions(catalog *sql.Catalog) Rule {
	return func(node sql.Node) (sql.Node, bool, error) {
		result, err := transform.TransformUp(node, func(n sql.Node) (transform.Transformed[sql.Node], error) {
			return resolveFunctionsInNode(n, catalog)
		})
		if err != nil {
			return nil, false, err
		}
		return result.Node, result.Changed, nil
	}
}

func resolveFunctionsInNode(n sql.Node, catalog *sql.Catalog) (transform.Transformed[sql.Node], error) {
	ec, ok := n.(sql.ExpressionsContainer)
	if !ok {
		return transform.Same(n), nil
	}
	exprs := ec.Expressions()
	newExprs := make([]sql.Expression, len(exprs))
	anyChanged := false
	for i, e := range exprs {
		ne, changed, err := resolveFunctionsInExpr(e, catalog)
		if err != nil {
			return transform.Transformed[sql.Node]{}, err
		}
		newExprs[i] = ne
		if changed {
			anyChanged = true
		}
	}
	if !anyChanged {
		return transform.Same(n), nil
	}
	newNode, err := ec.WithExpressions(newExprs)
	if err != nil {
		return transform.Transformed[sql.Node]{}, err
	}
	return transform.Changed(newNode), nil
}

func resolveFunctionsInExpr(expr sql.Expression, catalog *sql.Catalog) (sql.Expression, bool, error) {
	result, err := transform.TransformUp(expr, func(e sql.Expression) (transform.Transformed[sql.Expression], error) {
		uf, ok := e.(*expression.UnresolvedFunction)
		if !ok {
			return transform.Same(e), nil
		}
		for _, a := range uf.Args {
			if !a.Resolved() {
				return transform.Same(e), nil
			}
		}
		builder, err := catalog.Function(uf.Name)
		if err != nil {
			return transform.Transformed[sql.Expression]{}, err
		}
		resolved, err := builder(uf.Args)
		if err != nil {
			return transform.Transformed[sql.Expression]{}, err
		}
		return transform.Changed(resolved), nil
	})
	if err != nil {
		return nil, false, err
	}
	return result.Node, result.Changed, nil
}

// resolveGenerate rewrites plan.Generate's expression.UnresolvedGenerator
// into a concrete sql.Generator the same way resolveFunctions resolves
// scalar calls, then re-mints Generate's generated-column attributes via
// plan.NewGenerate.
func resolveGenerate(catalog *sql.Catalog) Rule {
	return func(node sql.Node) (sql.Node, bool, error) {
		result, err := transform.TransformUp(node, func(n sql.Node) (transform.Transformed[sql.Node], error) {
			g, ok := n.(*plan.Generate)
			if !ok {
				return transform.Same(n), nil
			}
			ug, ok := g.Generator.(*expression.UnresolvedGenerator)
			if !ok {
				return transform.Same(n), nil
			}
			for _, a := range ug.Args {
				if !a.Resolved() {
					return transform.Same(n), nil
				}
			}
			builder, err := catalog.Function(ug.Name)
			if err != nil {
				return transform.Transformed[sql.Node]{}, err
			}
			resolved, err := builder(ug.Args)
			if err != nil {
				return transform.Transformed[sql.Node]{}, err
			}
			gen, ok := resolved.(sql.Generator)
			if !ok {
				return transform.Transformed[sql.Node]{}, sql.ErrResolution.New(ug.Name + " is not a generator function")
			}
			return transform.Changed[sql.Node](plan.NewGenerate(gen, g.OuterJoin, g.Child)), nil
		})
		if err != nil {
			return nil, false, err
		}
		return result.Node, result.Changed, nil
	}
}

// globalAggregates rewrites a Project whose projections contain an
// AggregateExpression (with no explicit GROUP BY) into an Aggregate with
// empty grouping, the "implicit single group" shape used for whole-stream
// summaries.
func globalAggregates(node sql.Node) (sql.Node, bool, error) {
	result, err := transform.TransformUp(node, func(n sql.Node) (transform.Transformed[sql.Node], error) {
		p, ok := n.(*plan.Project)
		if !ok {
			return transform.Same(n), nil
		}
		if !containsAggregate(p.Projections) {
			return transform.Same(n), nil
		}
		agg := plan.NewAggregate(nil, p.Projections, p.Child)
		return transform.Changed[sql.Node](agg), nil
	})
	if err != nil {
		return nil, false, err
	}
	return result.Node, result.Changed, nil
}

func containsAggregate(exprs []sql.Expression) bool {
	for _, e := range exprs {
		found := false
		_ = transform.ApplyTree(e, func(x sql.Expression) (transform.Recursion, error) {
			if _, ok := x.(sql.AggregateExpression); ok {
				found = true
				return transform.Stop, nil
			}
			return transform.Continue, nil
		})
		if found {
			return true
		}
	}
	return false
}

// coerceTypes inserts implicit Cast nodes so that every arithmetic and
// comparison operator's operands share a common numeric type, per the
// tightest-common-type rule: Int < Long < Float < Double.
func coerceTypes(node sql.Node) (sql.Node, bool, error) {
	result, err := transform.TransformUp(node, func(n sql.Node) (transform.Transformed[sql.Node], error) {
		ec, ok := n.(sql.ExpressionsContainer)
		if !ok {
			return transform.Same(n), nil
		}
		exprs := ec.Expressions()
		newExprs := make([]sql.Expression, len(exprs))
		anyChanged := false
		for i, e := range exprs {
			ne, changed, err := coerceTypesInExpr(e)
			if err != nil {
				return transform.Transformed[sql.Node]{}, err
			}
			newExprs[i] = ne
			if changed {
				anyChanged = true
			}
		}
		if !anyChanged {
			return transform.Same(n), nil
		}
		newNode, err := ec.WithExpressions(newExprs)
		if err != nil {
			return transform.Transformed[sql.Node]{}, err
		}
		return transform.Changed(newNode), nil
	})
	if err != nil {
		return nil, false, err
	}
	return result.Node, result.Changed, nil
}

func coerceTypesInExpr(expr sql.Expression) (sql.Expression, bool, error) {
	result, err := transform.TransformUp(expr, func(e sql.Expression) (transform.Transformed[sql.Expression], error) {
		b, ok := e.(*expression.BinaryOperator)
		if !ok {
			return transform.Same(e), nil
		}
		if !b.Left.Resolved() || !b.Right.Resolved() {
			return transform.Same(e), nil
		}
		lt, rt := b.Left.Type(), b.Right.Type()
		if lt.Equals(rt) {
			return transform.Same(e), nil
		}
		common, ok := findTightestCommonType(lt, rt)
		if !ok {
			return transform.Same(e), nil
		}
		eligible := (b.Operator.IsArithmetic() && sql.IsNumeric(common)) ||
			(b.Operator.IsComparison() && (sql.IsNumeric(common) || common.ID() == sql.TypeIDString)) ||
			(b.Operator.IsLogical() && common.ID() == sql.TypeIDBoolean)
		if !eligible {
			return transform.Same(e), nil
		}
		left, right := b.Left, b.Right
		changed := false
		if !lt.Equals(common) {
			left = expression.NewCast(b.Left, common)
			changed = true
		}
		if !rt.Equals(common) {
			right = expression.NewCast(b.Right, common)
			changed = true
		}
		if !changed {
			return transform.Same(e), nil
		}
		return transform.Changed[sql.Expression](expression.NewBinaryOperator(left, b.Operator, right)), nil
	})
	if err != nil {
		return nil, false, err
	}
	return result.Node, result.Changed, nil
}

// findTightestCommonType: equal types return that type; either side
// Null returns the other; both numeric return the higher-precedence
// one; anything else has no common type.
func findTightestCommonType(a, b sql.Type) (sql.Type, bool) {
	if a.Equals(b) {
		return a, true
	}
	if a.ID() == sql.TypeIDNull {
		return b, true
	}
	if b.ID() == sql.TypeIDNull {
		return a, true
	}
	if sql.IsNumeric(a) && sql.IsNumeric(b) {
		if sql.NumericPrecedence(a) >= sql.NumericPrecedence(b) {
			return a, true
		}
		return b, true
	}
	return nil, false
}
