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

// Literal is a constant value with a fixed type.
type Literal struct {
	Value    sql.Value
	DataType sql.Type
}

func NewLiteral(v sql.Value, t sql.Type) *Literal { return &Literal{Value: v, DataType: t} }

func NewNullLiteral() *Literal { return &Literal{Value: sql.NullValue(), DataType: sql.Null} }

func (l *Literal) Resolved() bool { return true }
func (l *Literal) Type() sql.Type { return l.DataType }
func (l *Literal) Nullable() bool { return l.Value.IsNull() }
func (l *Literal) String() string {
	if l.Value.IsNull() {
		return "NULL"
	}
	return fmt.Sprintf("%v", rawGoValue(l.Value))
}
func (l *Literal) Children() []sql.Expression { return nil }
func (l *Literal) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 0 {
		return nil, fmt.Errorf("flowql: Literal takes no children")
	}
	return l, nil
}
func (l *Literal) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) { return l.Value, nil }

func rawGoValue(v sql.Value) interface{} {
	switch v.Tag() {
	case sql.TypeIDInt:
		return v.Int()
	case sql.TypeIDLong:
		return v.Long()
	case sql.TypeIDFloat:
		return v.Float()
	case sql.TypeIDDouble:
		return v.Double()
	case sql.TypeIDString:
		return v.String()
	case sql.TypeIDBoolean:
		return v.Boolean()
	default:
		return v
	}
}

// IsFoldable reports whether expr is a Literal, used by constant-folding
// sites such as get_json_object's path pre-parse.
func IsFoldable(expr sql.Expression) (*Literal, bool) {
	l, ok := expr.(*Literal)
	return l, ok
}
