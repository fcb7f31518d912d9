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

// GetArrayItem indexes an Array-typed child by an integer expression.
// UnresolvedExtractValue rewrites to this once the child's type resolves
// to Array.
type GetArrayItem struct {
	Child sql.Expression
	Index sql.Expression
}

func NewGetArrayItem(child, index sql.Expression) *GetArrayItem {
	return &GetArrayItem{Child: child, Index: index}
}

func (g *GetArrayItem) Resolved() bool             { return g.Child.Resolved() && g.Index.Resolved() }
func (g *GetArrayItem) Type() sql.Type             { return g.Child.Type().(sql.ArrayType).Element }
func (g *GetArrayItem) Nullable() bool             { return true }
func (g *GetArrayItem) String() string             { return fmt.Sprintf("%s[%s]", g.Child, g.Index) }
func (g *GetArrayItem) Children() []sql.Expression { return []sql.Expression{g.Child, g.Index} }
func (g *GetArrayItem) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("flowql: GetArrayItem takes exactly 2 children, got %d", len(children))
	}
	return &GetArrayItem{Child: children[0], Index: children[1]}, nil
}
func (g *GetArrayItem) CheckInputDataTypes() error {
	if _, ok := g.Child.Type().(sql.ArrayType); !ok {
		return sql.ErrType.New("GetArrayItem requires an Array child, got " + g.Child.Type().String())
	}
	return nil
}
func (g *GetArrayItem) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	cv, err := g.Child.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	iv, err := g.Index.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if cv.IsNull() || iv.IsNull() {
		return sql.NullValue(), nil
	}
	idx := int(iv.Long())
	arr := cv.Array()
	if idx < 0 || idx >= len(arr) {
		return sql.NullValue(), nil
	}
	return arr[idx], nil
}
