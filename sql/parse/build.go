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

package parse

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lukoou3/flowql/sql"
	"github.com/lukoou3/flowql/sql/expression"
	"github.com/lukoou3/flowql/sql/plan"
)

// buildQuery turns a parsed QueryAST into an unresolved logical plan
// . An explicit GROUP BY builds an Aggregate directly; otherwise a
// plain Project is built and the analyzer's GlobalAggregates rule
// rewrites it if the projection list turns out to contain an aggregate
// function.
func buildQuery(q *QueryAST) (sql.Node, error) {
	var child sql.Node = plan.NewUnresolvedRelation(q.From)
	if q.Where != nil {
		cond, err := buildExpr(q.Where)
		if err != nil {
			return nil, err
		}
		child = plan.NewFilter(cond, child)
	}

	projections := make([]sql.Expression, len(q.Projections))
	for i, p := range q.Projections {
		e, err := buildExpr(p.Expr)
		if err != nil {
			return nil, err
		}
		if p.Alias != nil {
			projections[i] = expression.NewAlias(unquoteIdent(*p.Alias), e)
			continue
		}
		if _, ok := e.(*expression.UnresolvedAttribute); !ok {
			return nil, sql.ErrParse.New(fmt.Sprintf("computed projection %s requires an AS alias", e))
		}
		projections[i] = e
	}

	if len(q.GroupBy) > 0 {
		grouping := make([]sql.Expression, len(q.GroupBy))
		for i, g := range q.GroupBy {
			e, err := buildExpr(g)
			if err != nil {
				return nil, err
			}
			grouping[i] = e
		}
		return plan.NewAggregate(grouping, projections, child), nil
	}
	return plan.NewProject(projections, child), nil
}

func buildExpr(e *OrExprAST) (sql.Expression, error) {
	return buildOr(e)
}

func buildOr(e *OrExprAST) (sql.Expression, error) {
	left, err := buildAnd(e.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range e.Rest {
		right, err := buildAnd(r)
		if err != nil {
			return nil, err
		}
		left = expression.NewBinaryOperator(left, expression.Or, right)
	}
	return left, nil
}

func buildAnd(e *AndExprAST) (sql.Expression, error) {
	left, err := buildNot(e.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range e.Rest {
		right, err := buildNot(r)
		if err != nil {
			return nil, err
		}
		left = expression.NewBinaryOperator(left, expression.And, right)
	}
	return left, nil
}

func buildNot(e *NotExprAST) (sql.Expression, error) {
	inner, err := buildComparison(e.Expr)
	if err != nil {
		return nil, err
	}
	if e.Not {
		return expression.NewNot(inner), nil
	}
	return inner, nil
}

var compOps = map[string]expression.Op{
	"=": expression.Eq, "!=": expression.NotEq, "<>": expression.NotEq, "<=>": expression.NotEq,
	"<": expression.Lt, "<=": expression.LtEq, ">": expression.Gt, ">=": expression.GtEq,
}

func buildComparison(e *ComparisonAST) (sql.Expression, error) {
	left, err := buildAdditive(e.Left)
	if err != nil {
		return nil, err
	}
	switch {
	case e.CompOp != nil:
		right, err := buildAdditive(e.CompRight)
		if err != nil {
			return nil, err
		}
		op, ok := compOps[*e.CompOp]
		if !ok {
			return nil, sql.ErrParse.New("unknown comparison operator " + *e.CompOp)
		}
		return expression.NewBinaryOperator(left, op, right), nil
	case e.LikeOp != nil:
		right, err := buildAdditive(e.LikeRight)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(*e.LikeOp, "RLIKE") {
			return expression.NewRLike(left, right), nil
		}
		return expression.NewLike(left, right), nil
	case e.IsNull:
		if e.IsNot {
			return expression.NewIsNotNull(left), nil
		}
		return expression.NewIsNull(left), nil
	default:
		return left, nil
	}
}

func buildAdditive(e *AdditiveAST) (sql.Expression, error) {
	left, err := buildMultiplicative(e.Left)
	if err != nil {
		return nil, err
	}
	for _, op := range e.Ops {
		right, err := buildMultiplicative(op.Right)
		if err != nil {
			return nil, err
		}
		o := expression.Plus
		if op.Op == "-" {
			o = expression.Minus
		}
		left = expression.NewBinaryOperator(left, o, right)
	}
	return left, nil
}

func buildMultiplicative(e *MultiplicativeAST) (sql.Expression, error) {
	left, err := buildUnary(e.Left)
	if err != nil {
		return nil, err
	}
	for _, op := range e.Ops {
		right, err := buildUnary(op.Right)
		if err != nil {
			return nil, err
		}
		var o expression.Op
		switch op.Op {
		case "*":
			o = expression.Multiply
		case "/":
			o = expression.Divide
		case "%":
			o = expression.Modulo
		}
		left = expression.NewBinaryOperator(left, o, right)
	}
	return left, nil
}

func buildUnary(e *UnaryAST) (sql.Expression, error) {
	inner, err := buildPrimary(e.Expr)
	if err != nil {
		return nil, err
	}
	if !e.Neg {
		return inner, nil
	}
	return expression.NewBinaryOperator(expression.NewLiteral(sql.IntValue(0), sql.Int), expression.Minus, inner), nil
}

func buildPrimary(e *PrimaryAST) (sql.Expression, error) {
	switch {
	case e.Null:
		return expression.NewNullLiteral(), nil
	case e.True:
		return expression.NewLiteral(sql.BooleanValue(true), sql.Boolean), nil
	case e.False:
		return expression.NewLiteral(sql.BooleanValue(false), sql.Boolean), nil
	case e.Float != nil:
		return expression.NewLiteral(sql.DoubleValue(*e.Float), sql.Double), nil
	case e.Int != nil:
		if *e.Int >= math.MinInt32 && *e.Int <= math.MaxInt32 {
			return expression.NewLiteral(sql.IntValue(int32(*e.Int)), sql.Int), nil
		}
		return expression.NewLiteral(sql.LongValue(*e.Int), sql.Long), nil
	case e.Str != nil:
		return expression.NewLiteral(sql.StringValue(unquoteString(*e.Str)), sql.String), nil
	case e.Cast != nil:
		child, err := buildExpr(e.Cast.Expr)
		if err != nil {
			return nil, err
		}
		t, err := buildDataType(e.Cast.Type)
		if err != nil {
			return nil, err
		}
		return expression.NewCast(child, t), nil
	case e.Func != nil:
		args := make([]sql.Expression, len(e.Func.Args))
		for i, a := range e.Func.Args {
			ae, err := buildExpr(a)
			if err != nil {
				return nil, err
			}
			args[i] = ae
		}
		return expression.NewUnresolvedFunction(e.Func.Name, args), nil
	case e.Ident != nil:
		return expression.NewUnresolvedAttribute(unquoteIdent(*e.Ident)), nil
	case e.Paren != nil:
		return buildExpr(e.Paren)
	default:
		return nil, sql.ErrParse.New("empty primary expression")
	}
}

func buildDataType(d *DataTypeAST) (sql.Type, error) {
	switch {
	case d.Primitive != nil:
		switch strings.ToUpper(*d.Primitive) {
		case "INT", "INTEGER":
			return sql.Int, nil
		case "LONG", "BIGINT":
			return sql.Long, nil
		case "FLOAT", "REAL":
			return sql.Float, nil
		case "DOUBLE":
			return sql.Double, nil
		case "STRING":
			return sql.String, nil
		case "BOOLEAN":
			return sql.Boolean, nil
		case "BINARY":
			return sql.Binary, nil
		case "TIMESTAMP":
			return sql.Timestamp, nil
		case "DATE":
			return sql.Date, nil
		default:
			return nil, sql.ErrParse.New("unsupported primitive type " + *d.Primitive)
		}
	case d.Array != nil:
		elem, err := buildDataType(d.Array.Element)
		if err != nil {
			return nil, err
		}
		return sql.NewArrayType(elem), nil
	case d.Struct != nil:
		fields := make(sql.Fields, len(d.Struct.Fields))
		for i, f := range d.Struct.Fields {
			t, err := buildDataType(f.Type)
			if err != nil {
				return nil, err
			}
			fields[i] = sql.Field{Name: unquoteIdent(f.Name), Type: t, Nullable: true}
		}
		return sql.NewStructType(fields), nil
	default:
		return nil, sql.ErrParse.New("empty data type")
	}
}

// unquoteIdent strips backtick quoting from an identifier; a plain Ident
// token passes through unchanged.
func unquoteIdent(s string) string {
	if len(s) >= 2 && s[0] == '`' && s[len(s)-1] == '`' {
		return s[1 : len(s)-1]
	}
	return s
}

// unquoteString strips the surrounding quotes from a String token and
// unescapes backslash escapes and doubled quote characters; falls back to
// the raw text if malformed.
func unquoteString(s string) string {
	if len(s) < 2 {
		return s
	}
	quote := s[0]
	body := s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == quote && i+1 < len(body) && body[i+1] == quote {
			b.WriteByte(quote)
			i++
			continue
		}
		if body[i] == '\\' && i+1 < len(body) {
			i++
			switch body[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '\'', '"':
				b.WriteByte(body[i])
			default:
				b.WriteByte(body[i])
			}
			continue
		}
		b.WriteByte(body[i])
	}
	_ = quote
	_ = strconv.Quote // keep strconv imported for future numeric-escape support
	return b.String()
}
