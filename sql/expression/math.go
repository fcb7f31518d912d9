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
	"math"
	"strconv"

	"github.com/lukoou3/flowql/sql"
)

func numArg(ctx *sql.Context, row sql.Row, e sql.Expression) (float64, bool, error) {
	v, err := e.Eval(ctx, row)
	if err != nil {
		return 0, false, err
	}
	if v.IsNull() {
		return 0, false, nil
	}
	return toFloat64(v), true, nil
}

// Pow implements pow(base, exponent)/power(base, exponent).
type Pow struct {
	Base, Exponent sql.Expression
}

func NewPow(base, exponent sql.Expression) *Pow { return &Pow{Base: base, Exponent: exponent} }

func (p *Pow) Resolved() bool             { return p.Base.Resolved() && p.Exponent.Resolved() }
func (p *Pow) Type() sql.Type             { return sql.Double }
func (p *Pow) Nullable() bool             { return true }
func (p *Pow) String() string             { return fmt.Sprintf("pow(%s, %s)", p.Base, p.Exponent) }
func (p *Pow) Children() []sql.Expression { return []sql.Expression{p.Base, p.Exponent} }
func (p *Pow) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("flowql: Pow takes exactly 2 children, got %d", len(children))
	}
	return &Pow{Base: children[0], Exponent: children[1]}, nil
}
func (p *Pow) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	base, ok, err := numArg(ctx, row, p.Base)
	if err != nil || !ok {
		return sql.NullValue(), err
	}
	exp, ok, err := numArg(ctx, row, p.Exponent)
	if err != nil || !ok {
		return sql.NullValue(), err
	}
	return sql.DoubleValue(math.Pow(base, exp)), nil
}

// roundingFunc shares the unary-numeric scaffolding for round/floor/ceil.
type roundingFunc struct {
	name  string
	child sql.Expression
	apply func(float64) float64
}

func (r *roundingFunc) Resolved() bool             { return r.child.Resolved() }
func (r *roundingFunc) Type() sql.Type             { return sql.Long }
func (r *roundingFunc) Nullable() bool             { return true }
func (r *roundingFunc) String() string             { return fmt.Sprintf("%s(%s)", r.name, r.child) }
func (r *roundingFunc) Children() []sql.Expression { return []sql.Expression{r.child} }
func (r *roundingFunc) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: %s takes exactly 1 child, got %d", r.name, len(children))
	}
	n := *r
	n.child = children[0]
	return &n, nil
}
func (r *roundingFunc) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	f, ok, err := numArg(ctx, row, r.child)
	if err != nil || !ok {
		return sql.NullValue(), err
	}
	return sql.LongValue(int64(r.apply(f))), nil
}

func NewRound(child sql.Expression) sql.Expression {
	return &roundingFunc{name: "round", child: child, apply: math.Round}
}

func NewFloor(child sql.Expression) sql.Expression {
	return &roundingFunc{name: "floor", child: child, apply: math.Floor}
}

func NewCeil(child sql.Expression) sql.Expression {
	return &roundingFunc{name: "ceil", child: child, apply: math.Ceil}
}

// Bin implements bin(n): the base-2 representation of n as a string,
// matching the common SQL dialect builtin of the same name.
type Bin struct {
	Child sql.Expression
}

func NewBin(child sql.Expression) *Bin { return &Bin{Child: child} }

func (b *Bin) Resolved() bool             { return b.Child.Resolved() }
func (b *Bin) Type() sql.Type             { return sql.String }
func (b *Bin) Nullable() bool             { return true }
func (b *Bin) String() string             { return fmt.Sprintf("bin(%s)", b.Child) }
func (b *Bin) Children() []sql.Expression { return []sql.Expression{b.Child} }
func (b *Bin) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: Bin takes exactly 1 child, got %d", len(children))
	}
	return &Bin{Child: children[0]}, nil
}
func (b *Bin) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	v, err := b.Child.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if v.IsNull() {
		return sql.NullValue(), nil
	}
	return sql.StringValue(strconv.FormatInt(int64(toFloat64(v)), 2)), nil
}
