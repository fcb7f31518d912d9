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
	"regexp"
	"strings"

	"github.com/lukoou3/flowql/sql"
)

// Like implements SQL LIKE, translating the % / _ wildcards to a regular
// expression once at construction when the pattern is a foldable literal.
type Like struct {
	Child, Pattern sql.Expression
	compiled       *regexp.Regexp
}

func NewLike(child, pattern sql.Expression) *Like {
	l := &Like{Child: child, Pattern: pattern}
	if lit, ok := IsFoldable(pattern); ok && !lit.Value.IsNull() {
		l.compiled = regexp.MustCompile(likeToRegexp(lit.Value.String()))
	}
	return l
}

func likeToRegexp(pattern string) string {
	var b strings.Builder
	b.WriteString("(?s)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}

func (l *Like) Resolved() bool             { return l.Child.Resolved() && l.Pattern.Resolved() }
func (l *Like) Type() sql.Type             { return sql.Boolean }
func (l *Like) Nullable() bool             { return true }
func (l *Like) String() string             { return fmt.Sprintf("%s LIKE %s", l.Child, l.Pattern) }
func (l *Like) Children() []sql.Expression { return []sql.Expression{l.Child, l.Pattern} }
func (l *Like) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("flowql: Like takes exactly 2 children, got %d", len(children))
	}
	return NewLike(children[0], children[1]), nil
}
func (l *Like) CheckInputDataTypes() error {
	if l.Child.Type().ID() != sql.TypeIDString || l.Pattern.Type().ID() != sql.TypeIDString {
		return sql.ErrType.New("LIKE requires string operands")
	}
	return nil
}
func (l *Like) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	cv, err := l.Child.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if cv.IsNull() {
		return sql.NullValue(), nil
	}
	re := l.compiled
	if re == nil {
		pv, err := l.Pattern.Eval(ctx, row)
		if err != nil {
			return sql.Value{}, err
		}
		if pv.IsNull() {
			return sql.NullValue(), nil
		}
		re = regexp.MustCompile(likeToRegexp(pv.String()))
	}
	return sql.BooleanValue(re.MatchString(cv.String())), nil
}

// RLike implements RLIKE: the pattern is a raw regular expression, not a
// LIKE wildcard pattern.
type RLike struct {
	Child, Pattern sql.Expression
	compiled       *regexp.Regexp
}

func NewRLike(child, pattern sql.Expression) *RLike {
	r := &RLike{Child: child, Pattern: pattern}
	if lit, ok := IsFoldable(pattern); ok && !lit.Value.IsNull() {
		r.compiled = regexp.MustCompile(lit.Value.String())
	}
	return r
}

func (r *RLike) Resolved() bool             { return r.Child.Resolved() && r.Pattern.Resolved() }
func (r *RLike) Type() sql.Type             { return sql.Boolean }
func (r *RLike) Nullable() bool             { return true }
func (r *RLike) String() string             { return fmt.Sprintf("%s RLIKE %s", r.Child, r.Pattern) }
func (r *RLike) Children() []sql.Expression { return []sql.Expression{r.Child, r.Pattern} }
func (r *RLike) WithChildren(children []sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("flowql: RLike takes exactly 2 children, got %d", len(children))
	}
	return NewRLike(children[0], children[1]), nil
}
func (r *RLike) Eval(ctx *sql.Context, row sql.Row) (sql.Value, error) {
	cv, err := r.Child.Eval(ctx, row)
	if err != nil {
		return sql.Value{}, err
	}
	if cv.IsNull() {
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
		re = regexp.MustCompile(pv.String())
	}
	return sql.BooleanValue(re.MatchString(cv.String())), nil
}
