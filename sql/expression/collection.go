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

// extremum shares the scaffolding for greatest/least: skip nulls, return
// Null only when every argument is null.
type extremum struct {
	name string
	args []sql.Expression
	less bool // true => least, false => greatest
}

func NewGreatest(args []sql.Expression) sql.Expression {
	return &extremum{name: "greatest", args: args, less: false}
}

func NewLeast(args []sql.Expression) sql.Expression {
	return &extremum{name: "least", args: args, less: true}
}

func (e *extremum) Resolved() bool {
	for _, a := range e.args {
		if !a.Resolved() {
			return false
		}
	}
	return true
}
func (e *extremum) Type() sql.Type {
	if len(e.args) > 0 {
		return e.args[0].Type()
	}
	return sql.Null
}
func (e *extremum) Nullable() bool { return true }
func (e *extremum) String() string {
	parts := make([]string, len(e.args))
	for i, a := range e.args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.name, strings.Join(parts, ", "))
}
func (e *extremum) Children() []sql.Expression { return e.args }
func (e *extremum) WithChildren(children []sql.Expression) (sql.Expression, error) {
	return &extremum{name: e.name, args: children, less: e.less}, nil
}
func (e *extremum) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	var best sql.Value
	have := false
	for _, a := range e.args {
		v, err := a.Eval(ctx, row)
		if err != nil {
			return sql.Value{}, err
		}
		if v.IsNull() {
			continue
		}
		if !have {
			best, have = v, true
			continue
		}
		cmp := v.Compare(best)
		if (e.less && cmp < 0) || (!e.less && cmp > 0) {
			best = v
		}
	}
	if !have {
		return sql.NullValue(), nil
	}
	return best, nil
}

// ArrayContains implements array_contains(arr, value).
type ArrayContains struct {
	Array, Value sql.Expression
}

func NewArrayContains(array, value sql.Expression) *ArrayContains {
	return &ArrayContains{Array: array, Value: value}
}

func (a *ArrayContains) Resolved() bool { return a.Array.Resolved() && a.Value.Resolved() }
func (a *ArrayContains) Type() sql.Type { return sql.Boolean }
func (a *ArrayContains) Nullable() bool { return true }
func (a *ArrayContains) String() string {
	return fmt.Sprintf("array_contains(%s, %s)", a.Array, a.Value)
}
func (a *ArrayContains) Children() []sql.Expression { return []sql.Expression{a.Array, a.Value} }
func (a *ArrayContains) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("flowql: ArrayContains takes exactly 2 children, got %d", len(children))
	}
	return &ArrayContains{Array: children[0], Value: children[1]}, nil
}
func (a *ArrayContains) CheckInputDataTypes() error {
	if a.Array.Type().ID() != sql.TypeIDArray {
		return sql.ErrType.New("array_contains requires an array first argument")
	}
	return nil
}
func (a *ArrayContains) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	av, err := a.Array.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if av.IsNull() {
		return sql.NullValue(), nil
	}
	vv, err := a.Value.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if vv.IsNull() {
		return sql.NullValue(), nil
	}
	for _, e := range av.Array() {
		if e.Equal(vv) {
			return sql.BooleanValue(true), nil
		}
	}
	return sql.BooleanValue(false), nil
}

// ArraySize implements array_size(arr)/cardinality(arr): Null in, Null out.
type ArraySize struct {
	Child sql.Expression
}

func NewArraySize(child sql.Expression) *ArraySize { return &ArraySize{Child: child} }

func (a *ArraySize) Resolved() bool             { return a.Child.Resolved() }
func (a *ArraySize) Type() sql.Type             { return sql.Int }
func (a *ArraySize) Nullable() bool             { return true }
func (a *ArraySize) String() string             { return fmt.Sprintf("array_size(%s)", a.Child) }
func (a *ArraySize) Children() []sql.Expression { return []sql.Expression{a.Child} }
func (a *ArraySize) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: ArraySize takes exactly 1 child, got %d", len(children))
	}
	return &ArraySize{Child: children[0]}, nil
}
func (a *ArraySize) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	v, err := a.Child.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if v.IsNull() {
		return sql.NullValue(), nil
	}
	return sql.IntValue(int32(len(v.Array()))), nil
}
