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

package parse

import (
	"github.com/alecthomas/participle/v2"

	"github.com/lukoou3/flowql/sql"
)

var (
	queryParser = participle.MustBuild[SingleQuery](
		participle.Lexer(queryLexer),
		participle.CaseInsensitive("Keyword"),
		participle.Elide("Whitespace"),
		participle.UseLookahead(4),
	)
	dataTypeParser = participle.MustBuild[SingleDataType](
		participle.Lexer(queryLexer),
		participle.CaseInsensitive("Keyword"),
		participle.Elide("Whitespace"),
		participle.UseLookahead(4),
	)
	expressionParser = participle.MustBuild[SingleExpression](
		participle.Lexer(queryLexer),
		participle.CaseInsensitive("Keyword"),
		participle.Elide("Whitespace"),
		participle.UseLookahead(4),
	)
)

// ParseQuery parses a single SELECT statement into an unresolved logical
// plan ready for Analyzer.Analyze.
func ParseQuery(text string) (sql.Node, error) {
	ast, err := queryParser.ParseString("", text)
	if err != nil {
		return nil, sql.ErrParse.New(err.Error())
	}
	return buildQuery(ast.Query)
}

// ParseDataType parses a single type expression, e.g. "ARRAY<STRING>".
func ParseDataType(text string) (sql.Type, error) {
	ast, err := dataTypeParser.ParseString("", text)
	if err != nil {
		return nil, sql.ErrParse.New(err.Error())
	}
	return buildDataType(ast.Type)
}

// ParseSchema parses a STRUCT<...> type expression and returns it as a
// schema; any other data type is a parse error.
func ParseSchema(text string) (sql.Schema, error) {
	t, err := ParseDataType(text)
	if err != nil {
		return nil, err
	}
	st, ok := t.(sql.StructType)
	if !ok {
		return nil, sql.ErrParse.New("schema must be a STRUCT type")
	}
	schema := make(sql.Schema, len(st.Fields))
	for i, f := range st.Fields {
		schema[i] = sql.Field{Name: f.Name, Type: f.Type, Nullable: f.Nullable}
	}
	return schema, nil
}

// ParseExpression parses a single standalone expression, e.g. for a
// command-line --filter flag.
func ParseExpression(text string) (sql.Expression, error) {
	ast, err := expressionParser.ParseString("", text)
	if err != nil {
		return nil, sql.ErrParse.New(err.Error())
	}
	return buildExpr(ast.Expr)
}
