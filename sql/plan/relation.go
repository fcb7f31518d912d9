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

// Package plan holds the logical plan node types: the unresolved leaf
// produced by the parser, and Project/Filter/Aggregate/Generate, which
// carry the expressions the analyzer resolves and the operator layer
// later compiles into a physical chain.
package plan

import (
	"fmt"

	"github.com/lukoou3/flowql/sql"
	"github.com/lukoou3/flowql/sql/expression"
)

// UnresolvedRelation is a named source the parser could not yet bind to a
// concrete schema; ResolveRelations replaces it with a RelationPlaceholder
// once the analyzer's session has a matching registration.
type UnresolvedRelation struct {
	Name string
}

func NewUnresolvedRelation(name string) *UnresolvedRelation { return &UnresolvedRelation{Name: name} }

func (u *UnresolvedRelation) Resolved() bool { return false }
func (u *UnresolvedRelation) Schema() sql.Schema {
	panic("flowql: Schema() called on UnresolvedRelation " + u.Name)
}
func (u *UnresolvedRelation) Children() []sql.Node { return nil }
func (u *UnresolvedRelation) WithChildren(children []sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, fmt.Errorf("flowql: UnresolvedRelation takes no children")
	}
	return u, nil
}
func (u *UnresolvedRelation) String() string { return "UnresolvedRelation(" + u.Name + ")" }

// RelationPlaceholder is a resolved leaf carrying the concrete schema of a
// registered stream or table; it has no children and produces no rows by
// itself; the engine's Source implementation supplies them at run time
// .
type RelationPlaceholder struct {
	Name   string
	schema sql.Schema
	attrs  []*expression.AttributeReference
}

// NewRelationPlaceholder mints the relation's output attributes once, at
// construction, so repeated analyzer passes over the same node instance
// see the same ExprIDs.
func NewRelationPlaceholder(name string, schema sql.Schema) *RelationPlaceholder {
	return &RelationPlaceholder{Name: name, schema: schema, attrs: expression.AttributesOf(schema)}
}

// OutputAttributes returns the relation's stable output attributes.
func (r *RelationPlaceholder) OutputAttributes() []*expression.AttributeReference { return r.attrs }

func (r *RelationPlaceholder) Resolved() bool       { return true }
func (r *RelationPlaceholder) Schema() sql.Schema   { return r.schema }
func (r *RelationPlaceholder) Children() []sql.Node { return nil }
func (r *RelationPlaceholder) WithChildren(children []sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, fmt.Errorf("flowql: RelationPlaceholder takes no children")
	}
	return r, nil
}
func (r *RelationPlaceholder) String() string { return "Relation(" + r.Name + ")" }
