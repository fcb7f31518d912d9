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
	"github.com/lukoou3/flowql/sql/expression"
)

// schemaOf derives one Field per expression in exprs: named expressions
// (Alias, AttributeReference) keep their name; everything else gets a
// positional placeholder name, matching how most SQL dialects name an
// unaliased computed column.
func schemaOf(exprs []sql.Expression) sql.Schema {
	out := make(sql.Schema, len(exprs))
	for i, e := range exprs {
		switch t := e.(type) {
		case *expression.Alias:
			out[i] = sql.Field{Name: t.Name, Type: t.Child.Type(), Nullable: t.Child.Nullable()}
		case *expression.AttributeReference:
			out[i] = sql.Field{Name: t.Name, Type: t.DataType, Nullable: t.IsNullable}
		default:
			out[i] = sql.Field{Name: fmt.Sprintf("_c%d", i), Type: safeType(e), Nullable: true}
		}
	}
	return out
}

// safeType returns e.Type(), or Null if e is not yet resolved enough to
// call Type() on without panicking (unresolved expressions panic there).
func safeType(e sql.Expression) sql.Type {
	if !e.Resolved() {
		return sql.Null
	}
	return e.Type()
}
