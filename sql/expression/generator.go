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
	"os"
	"path/filepath"

	"github.com/lukoou3/flowql/sql"
)

// Explode implements the table-valued generator explode(arr): one output
// row per array element, schema is a single unnamed column of the array's
// element type.
type Explode struct {
	Child sql.Expression
}

func NewExplode(child sql.Expression) *Explode { return &Explode{Child: child} }

func (e *Explode) Resolved() bool             { return e.Child.Resolved() }
func (e *Explode) Type() sql.Type             { return e.elementType() }
func (e *Explode) Nullable() bool             { return true }
func (e *Explode) String() string             { return fmt.Sprintf("explode(%s)", e.Child) }
func (e *Explode) Children() []sql.Expression { return []sql.Expression{e.Child} }
func (e *Explode) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: Explode takes exactly 1 child, got %d", len(children))
	}
	return &Explode{Child: children[0]}, nil
}
func (e *Explode) elementType() sql.Type {
	if arr, ok := e.Child.Type().(sql.ArrayType); ok {
		return arr.Element
	}
	return sql.Null
}
func (e *Explode) ElementSchema() sql.Schema {
	return sql.Schema{{Name: "col", Type: e.elementType(), Nullable: true}}
}
func (e *Explode) CheckInputDataTypes() error {
	if e.Child.Type().ID() != sql.TypeIDArray {
		return sql.ErrType.New("explode requires an array argument")
	}
	return nil
}
func (e *Explode) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	return sql.Value{}, sql.ErrEvaluation.New("explode must be evaluated through EvalGenerate")
}
func (e *Explode) EvalGenerate(ctx *sql.Context, row sql.Row) ([]sql.Row, error) {
	v, err := e.Child.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return nil, nil
	}
	elems := v.Array()
	out := make([]sql.Row, len(elems))
	for i, elem := range elems {
		out[i] = sql.NewRow(elem)
	}
	return out, nil
}

// PathFileUnroll implements path_file_unroll(glob): one output row per
// file matched by the glob pattern, a single string column holding the
// matched path.
type PathFileUnroll struct {
	Pattern sql.Expression
}

func NewPathFileUnroll(pattern sql.Expression) *PathFileUnroll {
	return &PathFileUnroll{Pattern: pattern}
}

func (p *PathFileUnroll) Resolved() bool             { return p.Pattern.Resolved() }
func (p *PathFileUnroll) Type() sql.Type             { return sql.String }
func (p *PathFileUnroll) Nullable() bool             { return false }
func (p *PathFileUnroll) String() string             { return fmt.Sprintf("path_file_unroll(%s)", p.Pattern) }
func (p *PathFileUnroll) Children() []sql.Expression { return []sql.Expression{p.Pattern} }
func (p *PathFileUnroll) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: PathFileUnroll takes exactly 1 child, got %d", len(children))
	}
	return &PathFileUnroll{Pattern: children[0]}, nil
}
func (p *PathFileUnroll) ElementSchema() sql.Schema {
	return sql.Schema{{Name: "path", Type: sql.String, Nullable: false}}
}
func (p *PathFileUnroll) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	return sql.Value{}, sql.ErrEvaluation.New("path_file_unroll must be evaluated through EvalGenerate")
}
func (p *PathFileUnroll) EvalGenerate(ctx *sql.Context, row sql.Row) ([]sql.Row, error) {
	pv, err := p.Pattern.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	if pv.IsNull() {
		return nil, nil
	}
	matches, err := filepath.Glob(pv.String())
	if err != nil {
		return nil, sql.ErrEvaluation.Wrap(err, "path_file_unroll glob")
	}
	out := make([]sql.Row, 0, len(matches))
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && !info.IsDir() {
			out = append(out, sql.NewRow(sql.StringValue(m)))
		}
	}
	return out, nil
}
