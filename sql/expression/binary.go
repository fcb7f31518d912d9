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

	"github.com/lukoou3/flowql/sql"
)

// Op is the binary operator tag.
type Op int

const (
	Eq Op = iota
	NotEq
	Lt
	LtEq
	Gt
	GtEq
	Plus
	Minus
	Multiply
	Divide
	Modulo
	And
	Or
)

var opSymbols = map[Op]string{
	Eq: "=", NotEq: "!=", Lt: "<", LtEq: "<=", Gt: ">", GtEq: ">=",
	Plus: "+", Minus: "-", Multiply: "*", Divide: "/", Modulo: "%",
	And: "AND", Or: "OR",
}

func (o Op) String() string { return opSymbols[o] }

func (o Op) IsArithmetic() bool {
	switch o {
	case Plus, Minus, Multiply, Divide, Modulo:
		return true
	}
	return false
}

func (o Op) IsComparison() bool {
	switch o {
	case Eq, NotEq, Lt, LtEq, Gt, GtEq:
		return true
	}
	return false
}

func (o Op) IsLogical() bool { return o == And || o == Or }

// BinaryOperator is a resolved binary expression.
type BinaryOperator struct {
	Left, Right sql.Expression
	Operator    Op
}

func NewBinaryOperator(left sql.Expression, op Op, right sql.Expression) *BinaryOperator {
	return &BinaryOperator{Left: left, Operator: op, Right: right}
}

func NewEquals(left, right sql.Expression) *BinaryOperator { return NewBinaryOperator(left, Eq, right) }
func NewNot(child sql.Expression) *Not                     { return &Not{Child: child} }

func (b *BinaryOperator) Resolved() bool { return b.Left.Resolved() && b.Right.Resolved() }

func (b *BinaryOperator) Type() sql.Type {
	if b.Operator.IsComparison() || b.Operator.IsLogical() {
		return sql.Boolean
	}
	return b.Left.Type()
}
func (b *BinaryOperator) Nullable() bool { return true }
func (b *BinaryOperator) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Operator, b.Right)
}
func (b *BinaryOperator) Children() []sql.Expression { return []sql.Expression{b.Left, b.Right} }
func (b *BinaryOperator) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("flowql: BinaryOperator takes exactly 2 children, got %d", len(children))
	}
	return &BinaryOperator{Left: children[0], Operator: b.Operator, Right: children[1]}, nil
}

func (b *BinaryOperator) CheckInputDataTypes() error {
	lt, rt := b.Left.Type(), b.Right.Type()
	if b.Operator.IsArithmetic() {
		if !sql.IsNumeric(lt) || !sql.IsNumeric(rt) {
			return sql.ErrType.New(fmt.Sprintf("arithmetic operator %s requires numeric operands, got %s and %s", b.Operator, lt, rt))
		}
	}
	if b.Operator.IsLogical() {
		if lt.ID() != sql.TypeIDBoolean || rt.ID() != sql.TypeIDBoolean {
			return sql.ErrType.New(fmt.Sprintf("logical operator %s requires boolean operands, got %s and %s", b.Operator, lt, rt))
		}
	}
	return nil
}

func (b *BinaryOperator) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	if b.Operator.IsLogical() {
		return b.evalLogical(ctx, row)
	}
	lv, err := b.Left.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	rv, err := b.Right.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if lv.IsNull() || rv.IsNull() {
		return sql.NullValue(), nil
	}
	if b.Operator.IsComparison() {
		return sql.BooleanValue(compareWithOp(lv, rv, b.Operator)), nil
	}
	return evalArithmetic(lv, rv, b.Operator)
}

func compareWithOp(l, r sql.Value, op Op) bool {
	c := l.Compare(r)
	switch op {
	case Eq:
		return c == 0
	case NotEq:
		return c != 0
	case Lt:
		return c < 0
	case LtEq:
		return c <= 0
	case Gt:
		return c > 0
	case GtEq:
		return c >= 0
	}
	return false
}

// evalArithmetic: division/modulo by zero yields Null rather than
// erroring; integer overflow wraps; float arithmetic is plain IEEE-754.
func evalArithmetic(l, r sql.Value, op Op) (sql.Value, error) {
	switch l.Tag() {
	case sql.TypeIDInt:
		a, b := l.Int(), r.Int()
		switch op {
		case Plus:
			return sql.IntValue(a + b), nil
		case Minus:
			return sql.IntValue(a - b), nil
		case Multiply:
			return sql.IntValue(a * b), nil
		case Divide:
			if b == 0 {
				return sql.NullValue(), nil
			}
			return sql.IntValue(a / b), nil
		case Modulo:
			if b == 0 {
				return sql.NullValue(), nil
			}
			return sql.IntValue(a % b), nil
		}
	case sql.TypeIDLong:
		a, b := l.Long(), r.Long()
		switch op {
		case Plus:
			return sql.LongValue(a + b), nil
		case Minus:
			return sql.LongValue(a - b), nil
		case Multiply:
			return sql.LongValue(a * b), nil
		case Divide:
			if b == 0 {
				return sql.NullValue(), nil
			}
			return sql.LongValue(a / b), nil
		case Modulo:
			if b == 0 {
				return sql.NullValue(), nil
			}
			return sql.LongValue(a % b), nil
		}
	case sql.TypeIDFloat:
		a, b := l.Float(), r.Float()
		switch op {
		case Plus:
			return sql.FloatValue(a + b), nil
		case Minus:
			return sql.FloatValue(a - b), nil
		case Multiply:
			return sql.FloatValue(a * b), nil
		case Divide:
			if b == 0 {
				return sql.NullValue(), nil
			}
			return sql.FloatValue(a / b), nil
		case Modulo:
			if b == 0 {
				return sql.NullValue(), nil
			}
			return sql.FloatValue(float32(math.Mod(float64(a), float64(b)))), nil
		}
	case sql.TypeIDDouble:
		a, b := l.Double(), r.Double()
		switch op {
		case Plus:
			return sql.DoubleValue(a + b), nil
		case Minus:
			return sql.DoubleValue(a - b), nil
		case Multiply:
			return sql.DoubleValue(a * b), nil
		case Divide:
			if b == 0 {
				return sql.NullValue(), nil
			}
			return sql.DoubleValue(a / b), nil
		case Modulo:
			if b == 0 {
				return sql.NullValue(), nil
			}
			return sql.DoubleValue(math.Mod(a, b)), nil
		}
	}
	return sql.Value{}, sql.ErrEvaluation.New(fmt.Sprintf("unsupported arithmetic on tag %v", l.Tag()))
}

// evalLogical implements three-valued AND/OR (null propagation
// exceptions).
func (b *BinaryOperator) evalLogical(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	lv, err := b.Left.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if b.Operator == And {
		if !lv.IsNull() && !lv.Boolean() {
			return sql.BooleanValue(false), nil
		}
		rv, err := b.Right.Eval(ctx, row)
		if err != nil {
			return sql.Value{}, err
		}
		if !rv.IsNull() && !rv.Boolean() {
			return sql.BooleanValue(false), nil
		}
		if lv.IsNull() || rv.IsNull() {
			return sql.NullValue(), nil
		}
		return sql.BooleanValue(true), nil
	}
	// Or
	if !lv.IsNull() && lv.Boolean() {
		return sql.BooleanValue(true), nil
	}
	rv, err := b.Right.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if !rv.IsNull() && rv.Boolean() {
		return sql.BooleanValue(true), nil
	}
	if lv.IsNull() || rv.IsNull() {
		return sql.NullValue(), nil
	}
	return sql.BooleanValue(false), nil
}

// Not implements logical negation; IS NULL / IS NOT NULL are modeled as
// IsNull / Not(IsNull) rather than as Not's own operand.
type Not struct {
	Child sql.Expression
}

func (n *Not) Resolved() bool             { return n.Child.Resolved() }
func (n *Not) Type() sql.Type             { return sql.Boolean }
func (n *Not) Nullable() bool             { return true }
func (n *Not) String() string             { return fmt.Sprintf("NOT %s", n.Child) }
func (n *Not) Children() []sql.Expression { return []sql.Expression{n.Child} }
func (n *Not) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: Not takes exactly 1 child, got %d", len(children))
	}
	return &Not{Child: children[0]}, nil
}
func (n *Not) CheckInputDataTypes() error {
	if n.Child.Type().ID() != sql.TypeIDBoolean {
		return sql.ErrType.New("NOT requires a boolean operand, got " + n.Child.Type().String())
	}
	return nil
}
func (n *Not) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	v, err := n.Child.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if v.IsNull() {
		return sql.NullValue(), nil
	}
	return sql.BooleanValue(!v.Boolean()), nil
}

// IsNull / IsNotNull never produce Null themselves.
type IsNull struct{ Child sql.Expression }

func NewIsNull(child sql.Expression) *IsNull { return &IsNull{Child: child} }

func (e *IsNull) Resolved() bool             { return e.Child.Resolved() }
func (e *IsNull) Type() sql.Type             { return sql.Boolean }
func (e *IsNull) Nullable() bool             { return false }
func (e *IsNull) String() string             { return fmt.Sprintf("%s IS NULL", e.Child) }
func (e *IsNull) Children() []sql.Expression { return []sql.Expression{e.Child} }
func (e *IsNull) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: IsNull takes exactly 1 child, got %d", len(children))
	}
	return &IsNull{Child: children[0]}, nil
}
func (e *IsNull) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	v, err := e.Child.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	return sql.BooleanValue(v.IsNull()), nil
}

// NewIsNotNull builds NOT(IS NULL child), which is never null because
// neither Not nor IsNull ever produce Null here.
func NewIsNotNull(child sql.Expression) *Not { return &Not{Child: &IsNull{Child: child}} }
