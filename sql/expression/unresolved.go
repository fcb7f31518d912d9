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

// UnresolvedFunction is a call the parser produced before the function
// registry has resolved it to a concrete expression.
type UnresolvedFunction struct {
	Name string
	Args []sql.Expression
}

func NewUnresolvedFunction(name string, args []sql.Expression) *UnresolvedFunction {
	return &UnresolvedFunction{Name: name, Args: args}
}

func (f *UnresolvedFunction) Resolved() bool { return false }
func (f *UnresolvedFunction) Type() sql.Type { panic("flowql: Type() called on UnresolvedFunction") }
func (f *UnresolvedFunction) Nullable() bool { return true }
func (f *UnresolvedFunction) String() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(args, ", "))
}
func (f *UnresolvedFunction) Children() []sql.Expression { return f.Args }
func (f *UnresolvedFunction) WithChildren(children []sql.Expression) (sql.Expression, error) {
	return &UnresolvedFunction{Name: f.Name, Args: children}, nil
}
func (f *UnresolvedFunction) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	return sql.Value{}, sql.ErrResolution.New("unresolved function: " + f.Name)
}

// UnresolvedGenerator is an UnresolvedFunction that must resolve to a
// sql.Generator, not a plain scalar expression.
type UnresolvedGenerator struct {
	Name string
	Args []sql.Expression
}

func NewUnresolvedGenerator(name string, args []sql.Expression) *UnresolvedGenerator {
	return &UnresolvedGenerator{Name: name, Args: args}
}

func (g *UnresolvedGenerator) Resolved() bool { return false }
func (g *UnresolvedGenerator) Type() sql.Type { panic("flowql: Type() called on UnresolvedGenerator") }
func (g *UnresolvedGenerator) Nullable() bool { return true }
func (g *UnresolvedGenerator) String() string {
	args := make([]string, len(g.Args))
	for i, a := range g.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", g.Name, strings.Join(args, ", "))
}
func (g *UnresolvedGenerator) Children() []sql.Expression { return g.Args }
func (g *UnresolvedGenerator) WithChildren(children []sql.Expression) (sql.Expression, error) {
	return &UnresolvedGenerator{Name: g.Name, Args: children}, nil
}
func (g *UnresolvedGenerator) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	return sql.Value{}, sql.ErrResolution.New("unresolved generator: " + g.Name)
}
func (g *UnresolvedGenerator) ElementSchema() sql.Schema {
	panic("flowql: ElementSchema() called on UnresolvedGenerator")
}
func (g *UnresolvedGenerator) EvalGenerate(ctx *sql.Context, row sql.Row) ([]sql.Row, error) {
	return nil, sql.ErrResolution.New("unresolved generator: " + g.Name)
}

// UnresolvedExtractValue is `child.extraction` or `child[extraction]`
// before the analyzer knows whether child is an Array or Struct.
type UnresolvedExtractValue struct {
	Child      sql.Expression
	Extraction sql.Expression
}

func NewUnresolvedExtractValue(child, extraction sql.Expression) *UnresolvedExtractValue {
	return &UnresolvedExtractValue{Child: child, Extraction: extraction}
}

func (e *UnresolvedExtractValue) Resolved() bool { return false }
func (e *UnresolvedExtractValue) Type() sql.Type {
	panic("flowql: Type() called on UnresolvedExtractValue")
}
func (e *UnresolvedExtractValue) Nullable() bool { return true }
func (e *UnresolvedExtractValue) String() string {
	return fmt.Sprintf("%s[%s]", e.Child, e.Extraction)
}
func (e *UnresolvedExtractValue) Children() []sql.Expression {
	return []sql.Expression{e.Child, e.Extraction}
}
func (e *UnresolvedExtractValue) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("flowql: UnresolvedExtractValue takes exactly 2 children, got %d", len(children))
	}
	return &UnresolvedExtractValue{Child: children[0], Extraction: children[1]}, nil
}
func (e *UnresolvedExtractValue) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	return sql.Value{}, sql.ErrResolution.New("unresolved extract value")
}
