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

package sql

import "sync/atomic"

// ExprID uniquely identifies an attribute. Two AttributeReferences denote
// the same attribute iff their ExprIDs match.
// IDs are minted from a single process-wide atomic counter; this is
// intentional, not an oversight, because plan rewriting can copy
// attributes across subtrees.
type ExprID uint64

var exprIDCounter uint64

// NextExprID allocates a fresh, process-wide unique expression id.
func NextExprID() ExprID {
	return ExprID(atomic.AddUint64(&exprIDCounter, 1))
}

// Expression is a node of the expression IR, shared across the unresolved
// AST, the resolved logical expression tree, and the bound physical
// expression tree: all three phases share the same Go type so that a
// single tree-node framework (sql/transform) can rewrite any of them.
// Unresolved nodes implement Eval by returning ErrEvaluation; they are
// never reached once the analyzer has finished.
type Expression interface {
	// Resolved reports whether this node and every descendant has a
	// known, concrete type and, for attributes and functions, a bound
	// target.
	Resolved() bool
	// Type returns the expression's concrete output type. Calling Type
	// on an unresolved expression is a programming error.
	Type() Type
	// Nullable reports whether the expression may evaluate to Null.
	Nullable() bool
	// Eval evaluates the expression against row using the standard
	// null propagation rules.
	Eval(ctx *Context, row Row) (Value, error)
	// Children returns the expression's direct operands, in order.
	Children() []Expression
	// WithChildren returns a copy of this expression with its operands
	// replaced; len(children) must equal len(Children()).
	WithChildren(children []Expression) (Expression, error)
	String() string
}

// TypeChecked is implemented by expressions with nontrivial operand-type
// constraints. Nodes
// without interesting constraints (literals, attributes) simply don't
// implement it; the analyzer treats a missing TypeChecked as trivially
// satisfied.
type TypeChecked interface {
	CheckInputDataTypes() error
}

// InputTypeExpecter is implemented by scalar/aggregate function
// expressions whose operands must match a per-position AbstractType
// .
type InputTypeExpecter interface {
	ExpectsInputTypes() []AbstractType
}

// AggregateExpression is implemented by both DeclarativeAggFunction and
// TypedAggFunction wrappers, letting the analyzer and operator treat
// either aggregate shape uniformly where only "is this an aggregate"
// matters.
type AggregateExpression interface {
	Expression
	AggregateFunctionName() string
}

// Generator is implemented by generator expressions (explode, …): a
// scalar-to-multi-row function whose output is itself a small schema
// rather than a single Value.
type Generator interface {
	Expression
	// ElementSchema describes the columns a single invocation emits.
	ElementSchema() Schema
	// EvalGenerate evaluates the generator against row, returning one
	// row per generated element.
	EvalGenerate(ctx *Context, row Row) ([]Row, error)
}
