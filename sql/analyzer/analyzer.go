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
	"fmt"

	"github.com/lukoou3/flowql/sql"
	"github.com/lukoou3/flowql/sql/expression"
	"github.com/lukoou3/flowql/sql/plan"
	"github.com/lukoou3/flowql/sql/transform"
)

// maxFixpointIterations bounds the resolve/rewrite loop; reaching the cap
// is not itself an error; it is a signal that whatever remains unresolved
// in the final validation pass is a genuine error, not a transient one
// .
const maxFixpointIterations = 10

// Analyzer turns an unresolved logical plan into a resolved, type-checked
// one by repeatedly applying its rule set to a fixpoint.
type Analyzer struct {
	Session *Session
	Catalog *sql.Catalog
	rules   []Rule
}

// NewAnalyzer builds an Analyzer bound to session (the registry of named
// relations) and catalog (the function registry; pass
// function.DefaultCatalog for the built-in set).
func NewAnalyzer(session *Session, catalog *sql.Catalog) *Analyzer {
	a := &Analyzer{Session: session, Catalog: catalog}
	a.rules = []Rule{
		resolveRelations(session),
		resolveReferences,
		resolveExtractValues,
		resolveFunctions(catalog),
		resolveGenerate(catalog),
		globalAggregates,
		coerceTypes,
	}
	return a
}

// Analyze runs the rule set to a fixpoint, then the post-fixpoint
// validation passes, returning the resolved plan or the first validation
// failure.
func (a *Analyzer) Analyze(node sql.Node) (sql.Node, error) {
	current := node
	for i := 0; i < maxFixpointIterations; i++ {
		anyChanged := false
		for _, rule := range a.rules {
			next, changed, err := rule(current)
			if err != nil {
				return nil, err
			}
			current = next
			if changed {
				anyChanged = true
			}
		}
		if !anyChanged {
			break
		}
	}
	if err := validate(current); err != nil {
		return nil, err
	}
	return current, nil
}

// validate runs the post-fixpoint checks: every node and expression must
// be Resolved, every TypeChecked expression's CheckInputDataTypes must
// pass, and every InputTypeExpecter's operands must match their declared
// AbstractType.
func validate(node sql.Node) error {
	return transform.ApplyTree(node, func(n sql.Node) (transform.Recursion, error) {
		switch u := n.(type) {
		case *plan.UnresolvedRelation:
			return transform.Stop, sql.ErrResolution.New("unknown relation: " + u.Name)
		}
		if !n.Resolved() {
			return transform.Stop, sql.ErrResolution.New(fmt.Sprintf("could not resolve plan node: %s", n))
		}
		if ec, ok := n.(sql.ExpressionsContainer); ok {
			for _, e := range ec.Expressions() {
				if err := validateExpression(e); err != nil {
					return transform.Stop, err
				}
			}
		}
		switch f := n.(type) {
		case *plan.Filter:
			if f.Condition.Type().ID() != sql.TypeIDBoolean {
				return transform.Stop, sql.ErrType.New("WHERE condition must be boolean, got " + f.Condition.Type().String())
			}
		case *plan.Aggregate:
			if err := validateAggregate(f); err != nil {
				return transform.Stop, err
			}
		}
		return transform.Continue, nil
	})
}

// validateAggregate: every grouping expression must be orderable and
// not itself an aggregate; every aggregate expression must either be an
// aggregate function (whose own
// args carry no nested aggregate), appear verbatim in the grouping list,
// or have every non-grouping descendant satisfy this recursively.
func validateAggregate(agg *plan.Aggregate) error {
	for _, g := range agg.GroupingExpressions {
		if isAggregateExpr(g) {
			return sql.ErrResolution.New("GROUP BY expression must not be an aggregate function: " + g.String())
		}
		t := g.Type()
		if !sql.IsNumeric(t) && t.ID() != sql.TypeIDString {
			return sql.ErrType.New("GROUP BY expression must be orderable (numeric or string): " + g.String())
		}
	}
	for _, a := range agg.AggregateExpressions {
		if err := validateAggregateExpr(a, agg.GroupingExpressions); err != nil {
			return err
		}
	}
	return nil
}

func validateAggregateExpr(e sql.Expression, grouping []sql.Expression) error {
	if isAggregateExpr(e) {
		return checkNoNestedAggregate(e)
	}
	for _, g := range grouping {
		if exprEquivalent(e, g) {
			return nil
		}
	}
	if _, ok := e.(*expression.AttributeReference); ok {
		return sql.ErrResolution.New("neither in group by nor an aggregate: " + e.String())
	}
	if alias, ok := e.(*expression.Alias); ok {
		return validateAggregateExpr(alias.Child, grouping)
	}
	for _, c := range e.Children() {
		if err := validateAggregateExpr(c, grouping); err != nil {
			return err
		}
	}
	return nil
}

func checkNoNestedAggregate(e sql.Expression) error {
	for _, c := range e.Children() {
		var found error
		_ = transform.ApplyTree(c, func(x sql.Expression) (transform.Recursion, error) {
			if isAggregateExpr(x) {
				found = sql.ErrResolution.New("aggregate function may not itself contain an aggregate: " + e.String())
				return transform.Stop, nil
			}
			return transform.Continue, nil
		})
		if found != nil {
			return found
		}
	}
	return nil
}

func isAggregateExpr(e sql.Expression) bool {
	_, ok := e.(sql.AggregateExpression)
	return ok
}

// exprEquivalent is a structural equality check used only to test whether
// an aggregate's non-aggregate projection matches a grouping expression
// verbatim; attribute references compare by expr id, everything else by
// String().
func exprEquivalent(a, b sql.Expression) bool {
	if ar, ok := a.(*expression.AttributeReference); ok {
		if br, ok := b.(*expression.AttributeReference); ok {
			return ar.ExprID == br.ExprID
		}
	}
	return a.String() == b.String()
}

func validateExpression(expr sql.Expression) error {
	return transform.ApplyTree(expr, func(e sql.Expression) (transform.Recursion, error) {
		if !e.Resolved() {
			switch u := e.(type) {
			case *expression.UnresolvedAttribute:
				return transform.Stop, sql.ErrResolution.New("unresolved column: " + u.Name)
			case *expression.UnresolvedFunction:
				return transform.Stop, sql.ErrResolution.New("unresolved function: " + u.Name)
			}
			return transform.Stop, sql.ErrResolution.New(fmt.Sprintf("could not resolve expression: %s", e))
		}
		if tc, ok := e.(sql.TypeChecked); ok {
			if err := tc.CheckInputDataTypes(); err != nil {
				return transform.Stop, err
			}
		}
		if ite, ok := e.(sql.InputTypeExpecter); ok {
			expected := ite.ExpectsInputTypes()
			children := e.Children()
			for i, at := range expected {
				if i >= len(children) {
					break
				}
				if !at.Accepts(children[i].Type()) {
					return transform.Stop, sql.ErrType.New(fmt.Sprintf(
						"%s: argument %d expects %s, got %s", e, i+1, at, children[i].Type()))
				}
			}
		}
		return transform.Continue, nil
	})
}
