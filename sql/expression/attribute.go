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

// Package expression holds the concrete expression IR nodes: unresolved
// references and calls, resolved attributes/literals/operators, and the
// physical expression nodes that evaluate against a Row.
package expression

import (
	"fmt"

	"github.com/lukoou3/flowql/sql"
)

// UnresolvedAttribute is a column reference the parser produced that the
// analyzer has not yet bound to a child's output.
type UnresolvedAttribute struct {
	Name string
}

func NewUnresolvedAttribute(name string) *UnresolvedAttribute {
	return &UnresolvedAttribute{Name: name}
}

func (a *UnresolvedAttribute) Resolved() bool             { return false }
func (a *UnresolvedAttribute) Type() sql.Type             { panic("flowql: Type() called on UnresolvedAttribute") }
func (a *UnresolvedAttribute) Nullable() bool             { return true }
func (a *UnresolvedAttribute) String() string             { return a.Name }
func (a *UnresolvedAttribute) Children() []sql.Expression { return nil }
func (a *UnresolvedAttribute) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 0 {
		return nil, fmt.Errorf("flowql: UnresolvedAttribute takes no children")
	}
	return a, nil
}
func (a *UnresolvedAttribute) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	return sql.Value{}, sql.ErrResolution.New("unresolved attribute: " + a.Name)
}

// AttributeReference is a resolved, named, typed column carrying a stable
// ExprID.
type AttributeReference struct {
	Name       string
	DataType   sql.Type
	ExprID     sql.ExprID
	IsNullable bool
}

// NewAttributeReference mints a fresh attribute with a new ExprID.
func NewAttributeReference(name string, typ sql.Type, nullable bool) *AttributeReference {
	return &AttributeReference{Name: name, DataType: typ, ExprID: sql.NextExprID(), IsNullable: nullable}
}

// AttributesOf projects a schema onto a sequence of fresh attribute
// references, one per field, each minting a new expr id. Lives here
// rather than on sql.Schema because sql must not import sql/expression.
func AttributesOf(schema sql.Schema) []*AttributeReference {
	attrs := make([]*AttributeReference, len(schema))
	for i, f := range schema {
		attrs[i] = NewAttributeReference(f.Name, f.Type, f.Nullable)
	}
	return attrs
}

// NewInstance returns a copy of a carrying a freshly allocated ExprID,
// keeping name and type").
func (a *AttributeReference) NewInstance() *AttributeReference {
	return &AttributeReference{Name: a.Name, DataType: a.DataType, ExprID: sql.NextExprID(), IsNullable: a.IsNullable}
}

func (a *AttributeReference) Resolved() bool             { return true }
func (a *AttributeReference) Type() sql.Type             { return a.DataType }
func (a *AttributeReference) Nullable() bool             { return a.IsNullable }
func (a *AttributeReference) String() string             { return a.Name }
func (a *AttributeReference) Children() []sql.Expression { return nil }
func (a *AttributeReference) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 0 {
		return nil, fmt.Errorf("flowql: AttributeReference takes no children")
	}
	return a, nil
}
func (a *AttributeReference) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	return sql.Value{}, sql.ErrEvaluation.New("attribute reference must be bound before evaluation: " + a.Name)
}

// BoundReference is a resolved attribute bound to a concrete ordinal
// position in the input row. Physical expression trees
// evaluate exclusively through BoundReference, never AttributeReference.
type BoundReference struct {
	Ordinal    int
	DataType   sql.Type
	IsNullable bool
	Name       string
}

func NewBoundReference(ordinal int, typ sql.Type, nullable bool) *BoundReference {
	return &BoundReference{Ordinal: ordinal, DataType: typ, IsNullable: nullable}
}

func (b *BoundReference) Resolved() bool { return true }
func (b *BoundReference) Type() sql.Type { return b.DataType }
func (b *BoundReference) Nullable() bool { return b.IsNullable }
func (b *BoundReference) String() string {
	if b.Name != "" {
		return b.Name
	}
	return fmt.Sprintf("$%d", b.Ordinal)
}
func (b *BoundReference) Children() []sql.Expression { return nil }
func (b *BoundReference) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 0 {
		return nil, fmt.Errorf("flowql: BoundReference takes no children")
	}
	return b, nil
}
func (b *BoundReference) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	return *row.Get(b.Ordinal), nil
}

// RowReader is the length accessor that sql.Row and sql.JoinedRow both
// satisfy. BindReference resolves ordinals from an attribute list and does
// not take a RowReader.
type RowReader interface {
	Len() int
}

// BindReference walks expr bottom-up, replacing every resolved
// AttributeReference with a BoundReference whose ordinal is that
// attribute's position in inputAttrs. An attribute with
// no match in inputAttrs is an internal error: the analyzer guarantees
// every resolved attribute traces back to some input.
func BindReference(expr sql.Expression, inputAttrs []*AttributeReference) (sql.Expression, error) {
	index := make(map[sql.ExprID]int, len(inputAttrs))
	for i, a := range inputAttrs {
		index[a.ExprID] = i
	}
	return bindReference(expr, index, inputAttrs)
}

func bindReference(expr sql.Expression, index map[sql.ExprID]int, inputAttrs []*AttributeReference) (sql.Expression, error) {
	if attr, ok := expr.(*AttributeReference); ok {
		ord, ok := index[attr.ExprID]
		if !ok {
			return nil, fmt.Errorf("flowql: internal error: unbound attribute %s (expr id %d)", attr.Name, attr.ExprID)
		}
		return &BoundReference{Ordinal: ord, DataType: attr.DataType, IsNullable: attr.IsNullable, Name: attr.Name}, nil
	}
	children := expr.Children()
	if len(children) == 0 {
		return expr, nil
	}
	newChildren := make([]sql.Expression, len(children))
	for i, c := range children {
		nc, err := bindReference(c, index, inputAttrs)
		if err != nil {
			return nil, err
		}
		newChildren[i] = nc
	}
	return expr.WithChildren(newChildren)
}
