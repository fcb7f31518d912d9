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

// Node is a logical plan node. Plans are
// immutable values owned by their parent; rewrites go through
// WithChildren, never in-place mutation, so the tree-node framework
// (sql/transform) can share identical logic across the plan tree and the
// expression tree.
type Node interface {
	// Resolved is true when this node is not one of the Unresolved
	// variants and every expression it carries is itself resolved.
	Resolved() bool
	// Schema returns the node's output schema, computed from its
	// project/grouping+aggregate expressions.
	Schema() Schema
	// Children returns this node's direct child plans, in order.
	Children() []Node
	// WithChildren returns a copy of this node with its children
	// replaced; len(children) must equal len(Children()).
	WithChildren(children []Node) (Node, error)
	String() string
}

// ExpressionsContainer is implemented by plan nodes that carry their own
// expressions (Project's list, Filter's condition, Aggregate's grouping +
// aggregate expressions, Generate's generator), letting analyzer rules
// rewrite expressions uniformly without a type switch over every plan
// variant.
type ExpressionsContainer interface {
	Node
	Expressions() []Expression
	WithExpressions(e []Expression) (Node, error)
}
