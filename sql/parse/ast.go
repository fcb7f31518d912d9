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

// Grammar shape: SELECT <named-expr-list> FROM <ident>
// [WHERE <predicate>] [GROUP BY <exprs>], arithmetic + - * / %,
// comparisons = != < <= > >= <> <=>, logical AND OR NOT, LIKE/RLIKE,
// function calls, CAST(e AS type), literals, array/struct type
// constructors, backtick-quoted identifiers. Each grammar level is a
// left-associative operand/operator-tail chain, avoiding left recursion.

// SingleQuery is the singleQuery entry point.
type SingleQuery struct {
	Query *QueryAST `parser:"@@"`
}

// SingleDataType is the singleDataType entry point.
type SingleDataType struct {
	Type *DataTypeAST `parser:"@@"`
}

// SingleExpression is the expression entry point.
type SingleExpression struct {
	Expr *OrExprAST `parser:"@@"`
}

// QueryAST is a SELECT statement.
type QueryAST struct {
	Projections []*NamedExprAST `parser:"\"SELECT\" @@ ( \",\" @@ )*"`
	From        string          `parser:"\"FROM\" @(Ident|QuotedIdent)"`
	Where       *OrExprAST      `parser:"( \"WHERE\" @@ )?"`
	GroupBy     []*OrExprAST    `parser:"( \"GROUP\" \"BY\" @@ ( \",\" @@ )* )?"`
}

// NamedExprAST is a projection list entry: an expression with an optional
// AS alias. A bare (unaliased) entry must itself be a column reference;
// the converter enforces this, since namedAttributes assumes every
// computed projection carries an Alias.
type NamedExprAST struct {
	Expr  *OrExprAST `parser:"@@"`
	Alias *string    `parser:"( \"AS\"? @(Ident|QuotedIdent) )?"`
}

// OrExprAST is the lowest-precedence level: a chain of AND-expressions
// joined by OR.
type OrExprAST struct {
	Left *AndExprAST   `parser:"@@"`
	Rest []*AndExprAST `parser:"( \"OR\" @@ )*"`
}

// AndExprAST is a chain of NOT/comparison-expressions joined by AND.
type AndExprAST struct {
	Left *NotExprAST   `parser:"@@"`
	Rest []*NotExprAST `parser:"( \"AND\" @@ )*"`
}

// NotExprAST is an optional leading NOT over a comparison expression.
type NotExprAST struct {
	Not  bool           `parser:"@\"NOT\"?"`
	Expr *ComparisonAST `parser:"@@"`
}

// ComparisonAST is an additive expression with an optional single
// comparison/LIKE/RLIKE/IS [NOT] NULL tail; comparisons do not chain.
type ComparisonAST struct {
	Left      *AdditiveAST `parser:"@@"`
	CompOp    *string      `parser:"( @(\"<=>\"|\"!=\"|\"<>\"|\"<=\"|\">=\"|\"=\"|\"<\"|\">\")"`
	CompRight *AdditiveAST `parser:"  @@"`
	LikeOp    *string      `parser:"| @(\"LIKE\"|\"RLIKE\")"`
	LikeRight *AdditiveAST `parser:"  @@"`
	IsNot     bool         `parser:"| \"IS\" @\"NOT\"?"`
	IsNull    bool         `parser:"  @\"NULL\" )?"`
}

// AdditiveAST is a chain of multiplicative expressions joined by + or -.
type AdditiveAST struct {
	Left *MultiplicativeAST `parser:"@@"`
	Ops  []*AdditiveOpAST   `parser:"@@*"`
}

type AdditiveOpAST struct {
	Op    string             `parser:"@(\"+\"|\"-\")"`
	Right *MultiplicativeAST `parser:"@@"`
}

// MultiplicativeAST is a chain of unary expressions joined by * / %.
type MultiplicativeAST struct {
	Left *UnaryAST              `parser:"@@"`
	Ops  []*MultiplicativeOpAST `parser:"@@*"`
}

type MultiplicativeOpAST struct {
	Op    string    `parser:"@(\"*\"|\"/\"|\"%\")"`
	Right *UnaryAST `parser:"@@"`
}

// UnaryAST is an optional unary minus over a primary expression.
type UnaryAST struct {
	Neg  bool        `parser:"@\"-\"?"`
	Expr *PrimaryAST `parser:"@@"`
}

// PrimaryAST is a literal, CAST, function call, column reference or a
// fully parenthesized sub-expression.
type PrimaryAST struct {
	Null  bool             `parser:"(  @\"NULL\""`
	True  bool             `parser:"|  @\"TRUE\""`
	False bool             `parser:"|  @\"FALSE\""`
	Float *float64         `parser:"|  @Float"`
	Int   *int64           `parser:"|  @Int"`
	Str   *string          `parser:"|  @String"`
	Cast  *CastAST         `parser:"|  \"CAST\" @@"`
	Func  *FunctionCallAST `parser:"|  @@"`
	Ident *string          `parser:"|  @(Ident|QuotedIdent)"`
	Paren *OrExprAST       `parser:"|  \"(\" @@ \")\" )"`
}

// CastAST is the parenthesized body of CAST(expr AS type); the CAST
// keyword itself is consumed by PrimaryAST.
type CastAST struct {
	Expr *OrExprAST   `parser:"\"(\" @@"`
	Type *DataTypeAST `parser:"\"AS\" @@ \")\""`
}

// FunctionCallAST is name(arg, arg,...).
type FunctionCallAST struct {
	Name string       `parser:"@Ident"`
	Args []*OrExprAST `parser:"\"(\" ( @@ ( \",\" @@ )* )? \")\""`
}

// DataTypeAST is a primitive name, ARRAY<...>, or STRUCT<name:type,...>.
type DataTypeAST struct {
	Primitive *string        `parser:"(  @(\"INT\"|\"INTEGER\"|\"LONG\"|\"BIGINT\"|\"FLOAT\"|\"REAL\"|\"DOUBLE\"|\"STRING\"|\"BOOLEAN\"|\"BINARY\"|\"TIMESTAMP\"|\"DATE\")"`
	Array     *ArrayTypeAST  `parser:"|  @@"`
	Struct    *StructTypeAST `parser:"|  @@ )"`
}

type ArrayTypeAST struct {
	Element *DataTypeAST `parser:"\"ARRAY\" \"<\" @@ \">\""`
}

type StructTypeAST struct {
	Fields []*StructFieldAST `parser:"\"STRUCT\" \"<\" @@ ( \",\" @@ )* \">\""`
}

type StructFieldAST struct {
	Name string       `parser:"@(Ident|QuotedIdent)"`
	Type *DataTypeAST `parser:"\":\" @@"`
}
