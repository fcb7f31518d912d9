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
	"strings"

	"github.com/lukoou3/flowql/sql"
)

// If implements IF(cond, then, else): a null or false condition returns
// else, never propagating null from cond itself.
type If struct {
	Cond, Then, Else sql.Expression
}

func NewIf(cond, then, els sql.Expression) *If { return &If{Cond: cond, Then: then, Else: els} }

func (i *If) Resolved() bool {
	return i.Cond.Resolved() && i.Then.Resolved() && i.Else.Resolved()
}
func (i *If) Type() sql.Type             { return i.Then.Type() }
func (i *If) Nullable() bool             { return i.Then.Nullable() || i.Else.Nullable() }
func (i *If) String() string             { return fmt.Sprintf("IF(%s, %s, %s)", i.Cond, i.Then, i.Else) }
func (i *If) Children() []sql.Expression { return []sql.Expression{i.Cond, i.Then, i.Else} }
func (i *If) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 3 {
		return nil, fmt.Errorf("flowql: If takes exactly 3 children, got %d", len(children))
	}
	return &If{Cond: children[0], Then: children[1], Else: children[2]}, nil
}
func (i *If) ExpectsInputTypes() []sql.AbstractType {
	return []sql.AbstractType{sql.TypeOf(sql.Boolean), sql.AnyType, sql.AnyType}
}
func (i *If) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	cv, err := i.Cond.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if cv.IsNull() || !cv.Boolean() {
		return i.Else.Eval(ctx, row)
	}
	return i.Then.Eval(ctx, row)
}

// Coalesce returns the first non-null argument, or Null if all are null.
type Coalesce struct {
	Args []sql.Expression
}

func NewCoalesce(args []sql.Expression) *Coalesce { return &Coalesce{Args: args} }

func (c *Coalesce) Resolved() bool {
	for _, a := range c.Args {
		if !a.Resolved() {
			return false
		}
	}
	return true
}
func (c *Coalesce) Type() sql.Type {
	for _, a := range c.Args {
		if a.Type().ID() != sql.TypeIDNull {
			return a.Type()
		}
	}
	return sql.Null
}
func (c *Coalesce) Nullable() bool { return true }
func (c *Coalesce) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("COALESCE(%s)", strings.Join(parts, ", "))
}
func (c *Coalesce) Children() []sql.Expression { return c.Args }
func (c *Coalesce) WithChildren(children []sql.Expression) (sql.Expression, error) {
	return &Coalesce{Args: children}, nil
}
func (c *Coalesce) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	for _, a := range c.Args {
		v, err := a.Eval(ctx, row)
		if err != nil {
			return sql.Value{}, err
		}
		if !v.IsNull() {
			return v, nil
		}
	}
	return sql.NullValue(), nil
}

// CaseBranch is one WHEN cond THEN value pair.
type CaseBranch struct {
	Cond, Value sql.Expression
}

// Case implements CASE WHEN... THEN... [ELSE...] END: the first branch
// whose condition is true wins; if none match, Else (or Null if absent).
type Case struct {
	Branches []CaseBranch
	Else     sql.Expression
}

func NewCase(branches []CaseBranch, els sql.Expression) *Case {
	return &Case{Branches: branches, Else: els}
}

func (c *Case) Resolved() bool {
	for _, b := range c.Branches {
		if !b.Cond.Resolved() || !b.Value.Resolved() {
			return false
		}
	}
	return c.Else == nil || c.Else.Resolved()
}
func (c *Case) Type() sql.Type {
	if len(c.Branches) > 0 {
		return c.Branches[0].Value.Type()
	}
	return sql.Null
}
func (c *Case) Nullable() bool { return true }
func (c *Case) String() string {
	s := "CASE"
	for _, b := range c.Branches {
		s += fmt.Sprintf(" WHEN %s THEN %s", b.Cond, b.Value)
	}
	if c.Else != nil {
		s += fmt.Sprintf(" ELSE %s", c.Else)
	}
	return s + " END"
}
func (c *Case) Children() []sql.Expression {
	var out []sql.Expression
	for _, b := range c.Branches {
		out = append(out, b.Cond, b.Value)
	}
	if c.Else != nil {
		out = append(out, c.Else)
	}
	return out
}
func (c *Case) WithChildren(children []sql.Expression) (sql.Expression, error) {
	n := len(c.Branches) * 2
	if len(children) != n && len(children) != n+1 {
		return nil, fmt.Errorf("flowql: Case child count mismatch")
	}
	branches := make([]CaseBranch, len(c.Branches))
	for i := range branches {
		branches[i] = CaseBranch{Cond: children[2*i], Value: children[2*i+1]}
	}
	var els sql.Expression
	if len(children) == n+1 {
		els = children[n]
	}
	return &Case{Branches: branches, Else: els}, nil
}
func (c *Case) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	for _, b := range c.Branches {
		cv, err := b.Cond.Eval(ctx, row)
		if err != nil {
			return sql.Value{}, err
		}
		if !cv.IsNull() && cv.Boolean() {
			return b.Value.Eval(ctx, row)
		}
	}
	if c.Else != nil {
		return c.Else.Eval(ctx, row)
	}
	return sql.NullValue(), nil
}
