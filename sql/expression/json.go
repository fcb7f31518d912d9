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
	"strings"

	"github.com/goccy/go-json"

	"github.com/lukoou3/flowql/sql"
)

// jsonPathSegment is one step of a parsed JSONPath: either a.field
// access or a [index]/[name] bracket access.
type jsonPathSegment struct {
	field string
	index int
	isIdx bool
}

// parseJSONPath parses the supported JSONPath subset: `$`, dot,
// bracket index, bracket name.
func parseJSONPath(path string) ([]jsonPathSegment, error) {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "$") {
		return nil, fmt.Errorf("flowql: json path must start with $")
	}
	rest := path[1:]
	var segs []jsonPathSegment
	i := 0
	for i < len(rest) {
		switch rest[i] {
		case '.':
			i++
			j := i
			for j < len(rest) && rest[j] != '.' && rest[j] != '[' {
				j++
			}
			if j > i {
				segs = append(segs, jsonPathSegment{field: rest[i:j]})
			}
			i = j
		case '[':
			j := strings.IndexByte(rest[i:], ']')
			if j < 0 {
				return nil, fmt.Errorf("flowql: unterminated [ in json path")
			}
			inner := rest[i+1 : i+j]
			if idx, err := strconv.Atoi(inner); err == nil {
				segs = append(segs, jsonPathSegment{index: idx, isIdx: true})
			} else {
				segs = append(segs, jsonPathSegment{field: strings.Trim(inner, `'"`)})
			}
			i += j + 1
		default:
			return nil, fmt.Errorf("flowql: malformed json path at %q", rest[i:])
		}
	}
	return segs, nil
}

func evalJSONPath(doc interface{}, segs []jsonPathSegment) (interface{}, bool) {
	cur := doc
	for _, seg := range segs {
		if seg.isIdx {
			arr, ok := cur.([]interface{})
			if !ok || seg.index < 0 || seg.index >= len(arr) {
				return nil, false
			}
			cur = arr[seg.index]
		} else {
			m, ok := cur.(map[string]interface{})
			if !ok {
				return nil, false
			}
			v, ok := m[seg.field]
			if !ok {
				return nil, false
			}
			cur = v
		}
	}
	return cur, true
}

// GetJsonObject implements get_json_object(json, path): returns the
// empty string on a missing/type-mismatched path.
type GetJsonObject struct {
	Json, Path sql.Expression
	segs       []jsonPathSegment
}

func NewGetJsonObject(jsonExpr, path sql.Expression) *GetJsonObject {
	g := &GetJsonObject{Json: jsonExpr, Path: path}
	if lit, ok := IsFoldable(path); ok && !lit.Value.IsNull() {
		if segs, err := parseJSONPath(lit.Value.String()); err == nil {
			g.segs = segs
		}
	}
	return g
}

func (g *GetJsonObject) Resolved() bool { return g.Json.Resolved() && g.Path.Resolved() }
func (g *GetJsonObject) Type() sql.Type { return sql.String }
func (g *GetJsonObject) Nullable() bool { return true }
func (g *GetJsonObject) String() string {
	return fmt.Sprintf("get_json_object(%s, %s)", g.Json, g.Path)
}
func (g *GetJsonObject) Children() []sql.Expression { return []sql.Expression{g.Json, g.Path} }
func (g *GetJsonObject) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("flowql: GetJsonObject takes exactly 2 children, got %d", len(children))
	}
	return NewGetJsonObject(children[0], children[1]), nil
}

func (g *GetJsonObject) segments(ctx *sql.Context, row sql.Row) ([]jsonPathSegment, error) {
	if g.segs != nil {
		return g.segs, nil
	}
	pv, err := g.Path.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	if pv.IsNull() {
		return nil, nil
	}
	return parseJSONPath(pv.String())
}

func (g *GetJsonObject) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	jv, err := g.Json.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if jv.IsNull() {
		return sql.NullValue(), nil
	}
	segs, err := g.segments(ctx, row)
	if err != nil || segs == nil {
		return sql.StringValue(""), nil
	}
	var doc interface{}
	if err := json.Unmarshal([]byte(jv.String()), &doc); err != nil {
		return sql.StringValue(""), nil
	}
	result, ok := evalJSONPath(doc, segs)
	if !ok {
		return sql.StringValue(""), nil
	}
	switch v := result.(type) {
	case string:
		return sql.StringValue(v), nil
	case nil:
		return sql.StringValue(""), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return sql.StringValue(""), nil
		}
		return sql.StringValue(string(b)), nil
	}
}

// GetJsonInt implements get_json_int(json, path): returns Null (not
// empty string) on a missing/type-mismatched path.
type GetJsonInt struct {
	Json, Path sql.Expression
	segs       []jsonPathSegment
}

func NewGetJsonInt(jsonExpr, path sql.Expression) *GetJsonInt {
	g := &GetJsonInt{Json: jsonExpr, Path: path}
	if lit, ok := IsFoldable(path); ok && !lit.Value.IsNull() {
		if segs, err := parseJSONPath(lit.Value.String()); err == nil {
			g.segs = segs
		}
	}
	return g
}

func (g *GetJsonInt) Resolved() bool             { return g.Json.Resolved() && g.Path.Resolved() }
func (g *GetJsonInt) Type() sql.Type             { return sql.Long }
func (g *GetJsonInt) Nullable() bool             { return true }
func (g *GetJsonInt) String() string             { return fmt.Sprintf("get_json_int(%s, %s)", g.Json, g.Path) }
func (g *GetJsonInt) Children() []sql.Expression { return []sql.Expression{g.Json, g.Path} }
func (g *GetJsonInt) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("flowql: GetJsonInt takes exactly 2 children, got %d", len(children))
	}
	return NewGetJsonInt(children[0], children[1]), nil
}
func (g *GetJsonInt) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	jv, err := g.Json.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if jv.IsNull() {
		return sql.NullValue(), nil
	}
	segs := g.segs
	if segs == nil {
		pv, err := g.Path.Eval(ctx, row)
		if err != nil {
			return sql.Value{}, err
		}
		if pv.IsNull() {
			return sql.NullValue(), nil
		}
		segs, err = parseJSONPath(pv.String())
		if err != nil {
			return sql.NullValue(), nil
		}
	}
	var doc interface{}
	if err := json.Unmarshal([]byte(jv.String()), &doc); err != nil {
		return sql.NullValue(), nil
	}
	result, ok := evalJSONPath(doc, segs)
	if !ok {
		return sql.NullValue(), nil
	}
	switch v := result.(type) {
	case float64:
		return sql.LongValue(int64(v)), nil
	default:
		return sql.NullValue(), nil
	}
}
