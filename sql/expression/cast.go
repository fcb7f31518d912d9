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
	"strconv"

	"github.com/lukoou3/flowql/sql"
)

// Cast converts its child's value to TargetType:
// numeric↔numeric conversion wraps on integer narrowing, to-String uses
// display formatting, from-String parses and yields Null on parse error,
// boolean↔numeric uses 1/0.
type Cast struct {
	Child      sql.Expression
	TargetType sql.Type
}

func NewCast(child sql.Expression, target sql.Type) *Cast {
	return &Cast{Child: child, TargetType: target}
}

func (c *Cast) Resolved() bool             { return c.Child.Resolved() }
func (c *Cast) Type() sql.Type             { return c.TargetType }
func (c *Cast) Nullable() bool             { return true }
func (c *Cast) String() string             { return fmt.Sprintf("CAST(%s AS %s)", c.Child, c.TargetType) }
func (c *Cast) Children() []sql.Expression { return []sql.Expression{c.Child} }
func (c *Cast) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: Cast takes exactly 1 child, got %d", len(children))
	}
	return &Cast{Child: children[0], TargetType: c.TargetType}, nil
}

func (c *Cast) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	v, err := c.Child.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if v.IsNull() {
		return sql.NullValue(), nil
	}
	return CastValue(v, c.TargetType)
}

// CastValue performs the conversion independent of any expression node;
// shared by Cast.Eval and by implicit-cast-coercion sites.
func CastValue(v sql.Value, target sql.Type) (sql.Value, error) {
	if v.Tag() == sql.TypeIDString {
		switch target.ID() {
		case sql.TypeIDInt, sql.TypeIDLong, sql.TypeIDFloat, sql.TypeIDDouble, sql.TypeIDDate:
			if _, err := strconv.ParseFloat(v.String(), 64); err != nil {
				return sql.NullValue(), nil
			}
		}
	}
	switch target.ID() {
	case sql.TypeIDInt:
		return sql.IntValue(int32(toFloat64(v))), nil
	case sql.TypeIDLong:
		return sql.LongValue(int64(toFloat64(v))), nil
	case sql.TypeIDFloat:
		return sql.FloatValue(float32(toFloat64(v))), nil
	case sql.TypeIDDouble:
		return sql.DoubleValue(toFloat64(v)), nil
	case sql.TypeIDBoolean:
		if v.Tag() == sql.TypeIDString {
			b, err := strconv.ParseBool(v.String())
			if err != nil {
				return sql.NullValue(), nil
			}
			return sql.BooleanValue(b), nil
		}
		return sql.BooleanValue(toFloat64(v) != 0), nil
	case sql.TypeIDString:
		return sql.StringValue(displayString(v)), nil
	case sql.TypeIDTimestamp:
		if v.Tag() == sql.TypeIDString {
			return sql.NullValue(), nil // parsing formats is datetime-function territory
		}
		return sql.TimestampValue(int64(toFloat64(v))), nil
	case sql.TypeIDDate:
		return sql.DateValue(int32(toFloat64(v))), nil
	default:
		return sql.Value{}, sql.ErrEvaluation.New("unsupported cast target " + target.String())
	}
}

func toFloat64(v sql.Value) float64 {
	switch v.Tag() {
	case sql.TypeIDInt:
		return float64(v.Int())
	case sql.TypeIDLong:
		return float64(v.Long())
	case sql.TypeIDFloat:
		return float64(v.Float())
	case sql.TypeIDDouble:
		return v.Double()
	case sql.TypeIDBoolean:
		if v.Boolean() {
			return 1
		}
		return 0
	case sql.TypeIDTimestamp:
		return float64(v.Timestamp())
	case sql.TypeIDDate:
		return float64(v.Date())
	case sql.TypeIDString:
		f, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func toInt64(v sql.Value) int64 {
	switch v.Tag() {
	case sql.TypeIDInt:
		return int64(v.Int())
	case sql.TypeIDLong:
		return v.Long()
	default:
		return int64(toFloat64(v))
	}
}

func displayString(v sql.Value) string {
	switch v.Tag() {
	case sql.TypeIDInt:
		return strconv.FormatInt(int64(v.Int()), 10)
	case sql.TypeIDLong:
		return strconv.FormatInt(v.Long(), 10)
	case sql.TypeIDFloat:
		return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
	case sql.TypeIDDouble:
		return strconv.FormatFloat(v.Double(), 'g', -1, 64)
	case sql.TypeIDBoolean:
		return strconv.FormatBool(v.Boolean())
	case sql.TypeIDString:
		return v.String()
	case sql.TypeIDTimestamp:
		return strconv.FormatInt(v.Timestamp(), 10)
	case sql.TypeIDDate:
		return strconv.FormatInt(int64(v.Date()), 10)
	default:
		return ""
	}
}
