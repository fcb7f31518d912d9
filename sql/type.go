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

// Package sql defines the closed data-type algebra, the tagged value and
// row model, the logical plan and expression IR, and the analyzer that
// resolves unresolved SQL into a validated, fully-typed plan.
package sql

import "fmt"

// TypeID tags a concrete Type in the closed data-type algebra.
type TypeID byte

const (
	TypeIDNull TypeID = iota
	TypeIDInt
	TypeIDLong
	TypeIDFloat
	TypeIDDouble
	TypeIDString
	TypeIDBoolean
	TypeIDBinary
	TypeIDTimestamp
	TypeIDDate
	TypeIDStruct
	TypeIDArray
)

// numericPrecedence orders the numeric types for findTightestCommonType
// : Int < Long < Float < Double.
var numericPrecedence = map[TypeID]int{
	TypeIDInt:    0,
	TypeIDLong:   1,
	TypeIDFloat:  2,
	TypeIDDouble: 3,
}

// Type is a member of the closed data-type algebra. Struct and Array carry
// additional shape (Fields / element Type); all other members are
// singletons.
type Type interface {
	fmt.Stringer
	// ID returns the concrete type tag.
	ID() TypeID
	// Equals reports whether t and other denote the same concrete type,
	// recursing into Struct fields and Array element types.
	Equals(other Type) bool
}

type primitiveType struct {
	id   TypeID
	name string
}

func (t primitiveType) ID() TypeID     { return t.id }
func (t primitiveType) String() string { return t.name }
func (t primitiveType) Equals(o Type) bool {
	return o != nil && o.ID() == t.id
}

// Singleton concrete types. These are the only non-Struct/Array members of
// the algebra.
var (
	Null      Type = primitiveType{TypeIDNull, "null"}
	Int       Type = primitiveType{TypeIDInt, "int"}
	Long      Type = primitiveType{TypeIDLong, "long"}
	Float     Type = primitiveType{TypeIDFloat, "float"}
	Double    Type = primitiveType{TypeIDDouble, "double"}
	String    Type = primitiveType{TypeIDString, "string"}
	Boolean   Type = primitiveType{TypeIDBoolean, "boolean"}
	Binary    Type = primitiveType{TypeIDBinary, "binary"}
	Timestamp Type = primitiveType{TypeIDTimestamp, "timestamp"}
	Date      Type = primitiveType{TypeIDDate, "date"}
)

// IsNumeric reports whether t is one of Int, Long, Float, Double.
func IsNumeric(t Type) bool {
	_, ok := numericPrecedence[t.ID()]
	return ok
}

// NumericPrecedence returns t's rank among numeric types, or -1 if t is
// not numeric.
func NumericPrecedence(t Type) int {
	if p, ok := numericPrecedence[t.ID()]; ok {
		return p
	}
	return -1
}

// StructType is the Struct(Fields) member of the algebra.
type StructType struct {
	Fields Fields
}

func NewStructType(fields Fields) StructType { return StructType{Fields: fields} }

func (t StructType) ID() TypeID     { return TypeIDStruct }
func (t StructType) String() string { return "struct<" + t.Fields.String() + ">" }
func (t StructType) Equals(o Type) bool {
	ot, ok := o.(StructType)
	if !ok || len(ot.Fields) != len(t.Fields) {
		return false
	}
	for i := range t.Fields {
		if t.Fields[i].Name != ot.Fields[i].Name || !t.Fields[i].Type.Equals(ot.Fields[i].Type) {
			return false
		}
	}
	return true
}

// ArrayType is the Array(element type) member of the algebra; the element
// type is fixed once constructed.
type ArrayType struct {
	Element Type
}

func NewArrayType(element Type) ArrayType { return ArrayType{Element: element} }

func (t ArrayType) ID() TypeID     { return TypeIDArray }
func (t ArrayType) String() string { return "array<" + t.Element.String() + ">" }
func (t ArrayType) Equals(o Type) bool {
	ot, ok := o.(ArrayType)
	return ok && t.Element.Equals(ot.Element)
}

// Field is one named, typed member of a Fields sequence or a Schema.
type Field struct {
	Name     string
	Type     Type
	Nullable bool
}

// Fields is an ordered sequence of struct members. Names need not be
// unique at construction, only when used for name-based resolution.
type Fields []Field

func (fs Fields) String() string {
	s := ""
	for i, f := range fs {
		if i > 0 {
			s += ", "
		}
		s += f.Name + ":" + f.Type.String()
	}
	return s
}

// IndexOf returns the position of the first field named name, or -1.
func (fs Fields) IndexOf(name string) int {
	for i, f := range fs {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// AbstractKind discriminates AbstractType variants.
type AbstractKind byte

const (
	AbstractConcrete AbstractKind = iota
	AbstractNumeric
	AbstractCollection
	AbstractAny
)

// AbstractType is a predicate over concrete types, used only at type-check
// time by Expression.ExpectsInputTypes.
type AbstractType struct {
	Kind       AbstractKind
	Concrete   Type
	Collection []AbstractType
}

func TypeOf(t Type) AbstractType { return AbstractType{Kind: AbstractConcrete, Concrete: t} }

var AnyType = AbstractType{Kind: AbstractAny}
var NumericType = AbstractType{Kind: AbstractNumeric}

func CollectionOf(alts ...AbstractType) AbstractType {
	return AbstractType{Kind: AbstractCollection, Collection: alts}
}

// Accepts reports whether the abstract type accepts the concrete type t.
func (a AbstractType) Accepts(t Type) bool {
	switch a.Kind {
	case AbstractAny:
		return true
	case AbstractNumeric:
		return IsNumeric(t)
	case AbstractConcrete:
		return a.Concrete.Equals(t)
	case AbstractCollection:
		for _, alt := range a.Collection {
			if alt.Accepts(t) {
				return true
			}
		}
		return false
	}
	return false
}

func (a AbstractType) String() string {
	switch a.Kind {
	case AbstractAny:
		return "any"
	case AbstractNumeric:
		return "numeric"
	case AbstractConcrete:
		return a.Concrete.String()
	case AbstractCollection:
		s := "["
		for i, alt := range a.Collection {
			if i > 0 {
				s += ", "
			}
			s += alt.String()
		}
		return s + "]"
	}
	return "?"
}
