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

package plan

import (
	"fmt"

	"github.com/lukoou3/flowql/sql"
)

// Filter passes through only the rows for which Condition evaluates true;
// a null or false condition drops the row.
type Filter struct {
	Condition sql.Expression
	Child     sql.Node
}

func NewFilter(condition sql.Expression, child sql.Node) *Filter {
	return &Filter{Condition: condition, Child: child}
}

func (f *Filter) Resolved() bool       { return f.Condition.Resolved() && f.Child.Resolved() }
func (f *Filter) Schema() sql.Schema   { return f.Child.Schema() }
func (f *Filter) Children() []sql.Node { return []sql.Node{f.Child} }
func (f *Filter) WithChildren(children []sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: Filter takes exactly 1 child, got %d", len(children))
	}
	return &Filter{Condition: f.Condition, Child: children[0]}, nil
}
func (f *Filter) Expressions() []sql.Expression { return []sql.Expression{f.Condition} }
func (f *Filter) WithExpressions(e []sql.Expression) (sql.Node, error) {
	if len(e) != 1 {
		return nil, fmt.Errorf("flowql: Filter takes exactly 1 expression, got %d", len(e))
	}
	return &Filter{Condition: e[0], Child: f.Child}, nil
}
func (f *Filter) String() string { return fmt.Sprintf("Filter(%s)\n  %s", f.Condition, f.Child) }
