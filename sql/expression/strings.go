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
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/lukoou3/flowql/sql"
)

// unaryStringFunc is shared scaffolding for the single-argument string
// builtins (lower, upper, trim, to_base64,...): each only differs in
// its name and its eval transform.
type unaryStringFunc struct {
	name  string
	child sql.Expression
	typ   sql.Type
	eval  func(string) sql.Value
}

func (u *unaryStringFunc) Resolved() bool             { return u.child.Resolved() }
func (u *unaryStringFunc) Type() sql.Type             { return u.typ }
func (u *unaryStringFunc) Nullable() bool             { return true }
func (u *unaryStringFunc) String() string             { return fmt.Sprintf("%s(%s)", u.name, u.child) }
func (u *unaryStringFunc) Children() []sql.Expression { return []sql.Expression{u.child} }
func (u *unaryStringFunc) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: %s takes exactly 1 child, got %d", u.name, len(children))
	}
	n := *u
	n.child = children[0]
	return &n, nil
}
func (u *unaryStringFunc) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	v, err := u.child.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if v.IsNull() {
		return sql.NullValue(), nil
	}
	return u.eval(v.String()), nil
}

func newUnaryStringFunc(name string, child sql.Expression, typ sql.Type, eval func(string) sql.Value) *unaryStringFunc {
	return &unaryStringFunc{name: name, child: child, typ: typ, eval: eval}
}

func NewLower(child sql.Expression) sql.Expression {
	return newUnaryStringFunc("lower", child, sql.String, func(s string) sql.Value { return sql.StringValue(strings.ToLower(s)) })
}

func NewUpper(child sql.Expression) sql.Expression {
	return newUnaryStringFunc("upper", child, sql.String, func(s string) sql.Value { return sql.StringValue(strings.ToUpper(s)) })
}

func NewTrim(child sql.Expression) sql.Expression {
	return newUnaryStringFunc("trim", child, sql.String, func(s string) sql.Value { return sql.StringValue(strings.TrimSpace(s)) })
}

func NewLength(child sql.Expression) sql.Expression {
	return newUnaryStringFunc("length", child, sql.Int, func(s string) sql.Value { return sql.IntValue(int32(len(s))) })
}

func NewCharLength(child sql.Expression) sql.Expression {
	return newUnaryStringFunc("char_length", child, sql.Int, func(s string) sql.Value { return sql.IntValue(int32(utf8.RuneCountInString(s))) })
}

func NewToBase64(child sql.Expression) sql.Expression {
	return newUnaryStringFunc("to_base64", child, sql.String, func(s string) sql.Value {
		return sql.StringValue(base64.StdEncoding.EncodeToString([]byte(s)))
	})
}

func NewFromBase64(child sql.Expression) sql.Expression {
	return newUnaryStringFunc("from_base64", child, sql.Binary, func(s string) sql.Value {
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return sql.NullValue()
		}
		return sql.BinaryValue(b)
	})
}

func NewHex(child sql.Expression) sql.Expression {
	return newUnaryStringFunc("hex", child, sql.String, func(s string) sql.Value {
		return sql.StringValue(strings.ToUpper(hex.EncodeToString([]byte(s))))
	})
}

func NewUnhex(child sql.Expression) sql.Expression {
	return newUnaryStringFunc("unhex", child, sql.Binary, func(s string) sql.Value {
		b, err := hex.DecodeString(s)
		if err != nil {
			return sql.NullValue()
		}
		return sql.BinaryValue(b)
	})
}

// Concat implements concat(a, b,...): any null argument makes the whole
// result null (ordinary, not three-valued-logic, propagation).
type Concat struct {
	Args []sql.Expression
}

func NewConcat(args []sql.Expression) *Concat { return &Concat{Args: args} }

func (c *Concat) Resolved() bool {
	for _, a := range c.Args {
		if !a.Resolved() {
			return false
		}
	}
	return true
}
func (c *Concat) Type() sql.Type { return sql.String }
func (c *Concat) Nullable() bool { return true }
func (c *Concat) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("concat(%s)", strings.Join(parts, ", "))
}
func (c *Concat) Children() []sql.Expression { return c.Args }
func (c *Concat) WithChildren(children []sql.Expression) (sql.Expression, error) {
	return &Concat{Args: children}, nil
}
func (c *Concat) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	var b strings.Builder
	for _, a := range c.Args {
		v, err := a.Eval(ctx, row)
		if err != nil {
			return sql.Value{}, err
		}
		if v.IsNull() {
			return sql.NullValue(), nil
		}
		b.WriteString(v.String())
	}
	return sql.StringValue(b.String()), nil
}

// ConcatWs implements concat_ws(sep, a, b,...): null arguments are
// skipped, not propagated; a null separator makes the result null.
type ConcatWs struct {
	Sep  sql.Expression
	Args []sql.Expression
}

func NewConcatWs(sep sql.Expression, args []sql.Expression) *ConcatWs {
	return &ConcatWs{Sep: sep, Args: args}
}

func (c *ConcatWs) Resolved() bool {
	if !c.Sep.Resolved() {
		return false
	}
	for _, a := range c.Args {
		if !a.Resolved() {
			return false
		}
	}
	return true
}
func (c *ConcatWs) Type() sql.Type { return sql.String }
func (c *ConcatWs) Nullable() bool { return true }
func (c *ConcatWs) String() string { return fmt.Sprintf("concat_ws(%s,...)", c.Sep) }
func (c *ConcatWs) Children() []sql.Expression {
	return append([]sql.Expression{c.Sep}, c.Args...)
}
func (c *ConcatWs) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) < 1 {
		return nil, fmt.Errorf("flowql: ConcatWs requires at least 1 child")
	}
	return &ConcatWs{Sep: children[0], Args: children[1:]}, nil
}
func (c *ConcatWs) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	sv, err := c.Sep.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if sv.IsNull() {
		return sql.NullValue(), nil
	}
	var parts []string
	for _, a := range c.Args {
		v, err := a.Eval(ctx, row)
		if err != nil {
			return sql.Value{}, err
		}
		if !v.IsNull() {
			parts = append(parts, v.String())
		}
	}
	return sql.StringValue(strings.Join(parts, sv.String())), nil
}

// Substring implements substring(str, pos, len): pos is 1-based; a
// negative pos counts from the end of str, matching the common SQL
// dialect semantics.
type Substring struct {
	Str, Pos, Len sql.Expression
}

func NewSubstring(str, pos, length sql.Expression) *Substring {
	return &Substring{Str: str, Pos: pos, Len: length}
}

func (s *Substring) Resolved() bool {
	return s.Str.Resolved() && s.Pos.Resolved() && (s.Len == nil || s.Len.Resolved())
}
func (s *Substring) Type() sql.Type { return sql.String }
func (s *Substring) Nullable() bool { return true }
func (s *Substring) String() string { return fmt.Sprintf("substring(%s, %s)", s.Str, s.Pos) }
func (s *Substring) Children() []sql.Expression {
	if s.Len == nil {
		return []sql.Expression{s.Str, s.Pos}
	}
	return []sql.Expression{s.Str, s.Pos, s.Len}
}
func (s *Substring) WithChildren(children []sql.Expression) (sql.Expression, error) {
	switch len(children) {
	case 2:
		return &Substring{Str: children[0], Pos: children[1]}, nil
	case 3:
		return &Substring{Str: children[0], Pos: children[1], Len: children[2]}, nil
	default:
		return nil, fmt.Errorf("flowql: Substring takes 2 or 3 children, got %d", len(children))
	}
}
func (s *Substring) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	sv, err := s.Str.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	pv, err := s.Pos.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if sv.IsNull() || pv.IsNull() {
		return sql.NullValue(), nil
	}
	runes := []rune(sv.String())
	n := len(runes)
	pos := int(pv.Int())
	start := substringStart(pos, n)
	end := n
	if s.Len != nil {
		lv, err := s.Len.Eval(ctx, row)
		if err != nil {
			return sql.Value{}, err
		}
		if lv.IsNull() {
			return sql.NullValue(), nil
		}
		end = start + int(lv.Int())
	}
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start >= end {
		return sql.StringValue(""), nil
	}
	return sql.StringValue(string(runes[start:end])), nil
}

func substringStart(pos, n int) int {
	if pos > 0 {
		return pos - 1
	}
	if pos < 0 {
		s := n + pos
		if s < 0 {
			return 0
		}
		return s
	}
	return 0
}

// Split implements split(str, regex): a regex-delimited tokenizer
// returning an Array of String.
type Split struct {
	Str, Pattern sql.Expression
}

func NewSplit(str, pattern sql.Expression) *Split { return &Split{Str: str, Pattern: pattern} }

func (s *Split) Resolved() bool             { return s.Str.Resolved() && s.Pattern.Resolved() }
func (s *Split) Type() sql.Type             { return sql.NewArrayType(sql.String) }
func (s *Split) Nullable() bool             { return true }
func (s *Split) String() string             { return fmt.Sprintf("split(%s, %s)", s.Str, s.Pattern) }
func (s *Split) Children() []sql.Expression { return []sql.Expression{s.Str, s.Pattern} }
func (s *Split) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("flowql: Split takes exactly 2 children, got %d", len(children))
	}
	return &Split{Str: children[0], Pattern: children[1]}, nil
}
func (s *Split) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	sv, err := s.Str.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	pv, err := s.Pattern.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if sv.IsNull() || pv.IsNull() {
		return sql.NullValue(), nil
	}
	re, err := regexp.Compile(pv.String())
	if err != nil {
		return sql.Value{}, sql.ErrEvaluation.Wrap(err, "split pattern "+pv.String())
	}
	parts := re.Split(sv.String(), -1)
	vals := make([]sql.Value, len(parts))
	for i, p := range parts {
		vals[i] = sql.StringValue(p)
	}
	return sql.ArrayValue(vals), nil
}

// SplitPart implements split_part(str, delim, partNum): a literal,
// non-regex delimiter; returns "" when partNum is out of range.
type SplitPart struct {
	Str, Delim, Part sql.Expression
}

func NewSplitPart(str, delim, part sql.Expression) *SplitPart {
	return &SplitPart{Str: str, Delim: delim, Part: part}
}

func (s *SplitPart) Resolved() bool {
	return s.Str.Resolved() && s.Delim.Resolved() && s.Part.Resolved()
}
func (s *SplitPart) Type() sql.Type { return sql.String }
func (s *SplitPart) Nullable() bool { return true }
func (s *SplitPart) String() string {
	return fmt.Sprintf("split_part(%s, %s, %s)", s.Str, s.Delim, s.Part)
}
func (s *SplitPart) Children() []sql.Expression { return []sql.Expression{s.Str, s.Delim, s.Part} }
func (s *SplitPart) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 3 {
		return nil, fmt.Errorf("flowql: SplitPart takes exactly 3 children, got %d", len(children))
	}
	return &SplitPart{Str: children[0], Delim: children[1], Part: children[2]}, nil
}
func (s *SplitPart) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	sv, err := s.Str.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	dv, err := s.Delim.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	pv, err := s.Part.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if sv.IsNull() || dv.IsNull() || pv.IsNull() {
		return sql.NullValue(), nil
	}
	parts := strings.Split(sv.String(), dv.String())
	idx := int(pv.Int()) - 1
	if idx < 0 || idx >= len(parts) {
		return sql.StringValue(""), nil
	}
	return sql.StringValue(parts[idx]), nil
}

// Replace implements replace(str, search, replacement): a literal
// substring replacement, not a regex.
type Replace struct {
	Str, Search, Replacement sql.Expression
}

func NewReplace(str, search, replacement sql.Expression) *Replace {
	return &Replace{Str: str, Search: search, Replacement: replacement}
}

func (r *Replace) Resolved() bool {
	return r.Str.Resolved() && r.Search.Resolved() && r.Replacement.Resolved()
}
func (r *Replace) Type() sql.Type { return sql.String }
func (r *Replace) Nullable() bool { return true }
func (r *Replace) String() string {
	return fmt.Sprintf("replace(%s, %s, %s)", r.Str, r.Search, r.Replacement)
}
func (r *Replace) Children() []sql.Expression {
	return []sql.Expression{r.Str, r.Search, r.Replacement}
}
func (r *Replace) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 3 {
		return nil, fmt.Errorf("flowql: Replace takes exactly 3 children, got %d", len(children))
	}
	return &Replace{Str: children[0], Search: children[1], Replacement: children[2]}, nil
}
func (r *Replace) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	sv, err := r.Str.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	se, err := r.Search.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	rv, err := r.Replacement.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if sv.IsNull() || se.IsNull() || rv.IsNull() {
		return sql.NullValue(), nil
	}
	return sql.StringValue(strings.ReplaceAll(sv.String(), se.String(), rv.String())), nil
}

// RegexpReplace implements regexp_replace(str, pattern, replacement).
type RegexpReplace struct {
	Str, Pattern, Replacement sql.Expression
	compiled                  *regexp.Regexp
}

func NewRegexpReplace(str, pattern, replacement sql.Expression) *RegexpReplace {
	r := &RegexpReplace{Str: str, Pattern: pattern, Replacement: replacement}
	if lit, ok := IsFoldable(pattern); ok && !lit.Value.IsNull() {
		if re, err := regexp.Compile(lit.Value.String()); err == nil {
			r.compiled = re
		}
	}
	return r
}

func (r *RegexpReplace) Resolved() bool {
	return r.Str.Resolved() && r.Pattern.Resolved() && r.Replacement.Resolved()
}
func (r *RegexpReplace) Type() sql.Type { return sql.String }
func (r *RegexpReplace) Nullable() bool { return true }
func (r *RegexpReplace) String() string {
	return fmt.Sprintf("regexp_replace(%s, %s, %s)", r.Str, r.Pattern, r.Replacement)
}
func (r *RegexpReplace) Children() []sql.Expression {
	return []sql.Expression{r.Str, r.Pattern, r.Replacement}
}
func (r *RegexpReplace) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 3 {
		return nil, fmt.Errorf("flowql: RegexpReplace takes exactly 3 children, got %d", len(children))
	}
	return NewRegexpReplace(children[0], children[1], children[2]), nil
}
func (r *RegexpReplace) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	sv, err := r.Str.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if sv.IsNull() {
		return sql.NullValue(), nil
	}
	re := r.compiled
	if re == nil {
		pv, err := r.Pattern.Eval(ctx, row)
		if err != nil {
			return sql.Value{}, err
		}
		if pv.IsNull() {
			return sql.NullValue(), nil
		}
		re, err = regexp.Compile(pv.String())
		if err != nil {
			return sql.Value{}, sql.ErrEvaluation.Wrap(err, "regexp_replace pattern")
		}
	}
	rv, err := r.Replacement.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if rv.IsNull() {
		return sql.NullValue(), nil
	}
	return sql.StringValue(re.ReplaceAllString(sv.String(), rv.String())), nil
}

// RegexpExtract implements regexp_extract(str, pattern, groupIdx):
// returns "" when the pattern does not match or the group is empty.
type RegexpExtract struct {
	Str, Pattern, Group sql.Expression
	compiled            *regexp.Regexp
}

func NewRegexpExtract(str, pattern, group sql.Expression) *RegexpExtract {
	r := &RegexpExtract{Str: str, Pattern: pattern, Group: group}
	if lit, ok := IsFoldable(pattern); ok && !lit.Value.IsNull() {
		if re, err := regexp.Compile(lit.Value.String()); err == nil {
			r.compiled = re
		}
	}
	return r
}

func (r *RegexpExtract) Resolved() bool {
	return r.Str.Resolved() && r.Pattern.Resolved() && r.Group.Resolved()
}
func (r *RegexpExtract) Type() sql.Type { return sql.String }
func (r *RegexpExtract) Nullable() bool { return true }
func (r *RegexpExtract) String() string {
	return fmt.Sprintf("regexp_extract(%s, %s, %s)", r.Str, r.Pattern, r.Group)
}
func (r *RegexpExtract) Children() []sql.Expression {
	return []sql.Expression{r.Str, r.Pattern, r.Group}
}
func (r *RegexpExtract) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 3 {
		return nil, fmt.Errorf("flowql: RegexpExtract takes exactly 3 children, got %d", len(children))
	}
	return NewRegexpExtract(children[0], children[1], children[2]), nil
}
func (r *RegexpExtract) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	sv, err := r.Str.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if sv.IsNull() {
		return sql.NullValue(), nil
	}
	re := r.compiled
	if re == nil {
		pv, err := r.Pattern.Eval(ctx, row)
		if err != nil {
			return sql.Value{}, err
		}
		if pv.IsNull() {
			return sql.NullValue(), nil
		}
		re, err = regexp.Compile(pv.String())
		if err != nil {
			return sql.Value{}, sql.ErrEvaluation.Wrap(err, "regexp_extract pattern")
		}
	}
	gv, err := r.Group.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if gv.IsNull() {
		return sql.NullValue(), nil
	}
	groupIdx := int(gv.Int())
	m := re.FindStringSubmatch(sv.String())
	if m == nil || groupIdx >= len(m) {
		return sql.StringValue(""), nil
	}
	return sql.StringValue(m[groupIdx]), nil
}
