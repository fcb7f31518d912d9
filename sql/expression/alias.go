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

package expression

import (
	"fmt"

	"github.com/lukoou3/flowql/sql"
)

// Alias renames its child's output and mints a fresh ExprID for the
// renamed attribute.
type Alias struct {
	Child  sql.Expression
	Name   string
	ExprID sql.ExprID
}

func NewAlias(name string, child sql.Expression) *Alias {
	return &Alias{Child: child, Name: name, ExprID: sql.NextExprID()}
}

func (a *Alias) Resolved() bool             { return a.Child.Resolved() }
func (a *Alias) Type() sql.Type             { return a.Child.Type() }
func (a *Alias) Nullable() bool             { return a.Child.Nullable() }
func (a *Alias) String() string             { return fmt.Sprintf("%s AS %s", a.Child, a.Name) }
func (a *Alias) Children() []sql.Expression { return []sql.Expression{a.Child} }
func (a *Alias) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: Alias takes exactly 1 child, got %d", len(children))
	}
	return &Alias{Child: children[0], Name: a.Name, ExprID: a.ExprID}, nil
}
func (a *Alias) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) { return a.Child.Eval(ctx, row) }

// ToAttribute projects the Alias onto the AttributeReference it
// introduces into its parent's output schema.
func (a *Alias) ToAttribute() *AttributeReference {
	return &AttributeReference{Name: a.Name, DataType: a.Child.Type(), ExprID: a.ExprID, IsNullable: a.Child.Nullable()}
}

// NoOp is a placeholder slot that preserves a positional index in an
// expression list across rewrites without contributing meaning.
type NoOp struct{}

func (NoOp) Resolved() bool             { return true }
func (NoOp) Type() sql.Type             { return sql.Null }
func (NoOp) Nullable() bool             { return true }
func (NoOp) String() string             { return "<noop>" }
func (NoOp) Children() []sql.Expression { return nil }
func (n NoOp) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 0 {
		return nil, fmt.Errorf("flowql: NoOp takes no children")
	}
	return n, nil
}
func (NoOp) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) { return sql.NullValue(), nil }
