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

// Package parse implements the PEG-style grammar for the query language
// : three entry points, singleQuery, singleDataType and expression,
// each producing the corresponding unresolved AST node that the analyzer
// consumes.
package parse

import "github.com/alecthomas/participle/v2/lexer"

// queryLexer tokenizes SQL text. Keyword is matched before Ident so a
// literal keyword never lexes as an identifier; Op groups every multi-
// character operator so longer operators (<=>, <=, >=, !=, <>) are
// preferred over their single-character prefixes by declaring them first.
var queryLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `(?i)\b(SELECT|FROM|WHERE|GROUP|BY|AS|AND|OR|NOT|LIKE|RLIKE|IS|NULL|TRUE|FALSE|CAST|ARRAY|STRUCT|INT|INTEGER|LONG|BIGINT|FLOAT|REAL|DOUBLE|STRING|BOOLEAN|BINARY|TIMESTAMP|DATE)\b`},
	{Name: "Float", Pattern: `\d+\.\d+`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "String", Pattern: `'([^'\\]|\\.|'')*'|"([^"\\]|\\.|"")*"`},
	{Name: "QuotedIdent", Pattern: "`[^`]*`"},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Op", Pattern: `<=>|!=|<>|<=|>=|=|<|>|\+|-|\*|/|%`},
	{Name: "Punct", Pattern: `[(),.:]`},
	{Name: "Whitespace", Pattern: `\s+`},
})
