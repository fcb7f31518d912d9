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

package sql

import (
	"bytes"
	"fmt"
	"math"
)

// Value is the tagged sum-type carried in every Row cell. The zero
// Value is Null.
type Value struct {
	typ TypeID
	// scalar holds Int/Long/Float/Double/Boolean/Timestamp/Date payloads
	// reinterpreted as their canonical bit pattern, so equality and
	// hashing share one code path.
	scalar uint64
	str    string
	bin    []byte
	strct  Row
	arr    []Value
	obj    interface{}
}

func NullValue() Value { return Value{typ: TypeIDNull} }

func IntValue(v int32) Value  { return Value{typ: TypeIDInt, scalar: uint64(uint32(v))} }
func LongValue(v int64) Value { return Value{typ: TypeIDLong, scalar: uint64(v)} }
func FloatValue(v float32) Value {
	return Value{typ: TypeIDFloat, scalar: uint64(math.Float32bits(v))}
}
func DoubleValue(v float64) Value {
	return Value{typ: TypeIDDouble, scalar: math.Float64bits(v)}
}
func StringValue(v string) Value { return Value{typ: TypeIDString, str: v} }
func BooleanValue(v bool) Value {
	var s uint64
	if v {
		s = 1
	}
	return Value{typ: TypeIDBoolean, scalar: s}
}
func BinaryValue(v []byte) Value      { return Value{typ: TypeIDBinary, bin: v} }
func TimestampValue(v int64) Value    { return Value{typ: TypeIDTimestamp, scalar: uint64(v)} }
func DateValue(v int32) Value         { return Value{typ: TypeIDDate, scalar: uint64(uint32(v))} }
func StructValue(row Row) Value       { return Value{typ: TypeIDStruct, strct: row} }
func ArrayValue(vs []Value) Value     { return Value{typ: TypeIDArray, arr: vs} }
func ObjectValue(o interface{}) Value { return Value{typ: TypeIDStruct, obj: o} }

func (v Value) IsNull() bool { return v.typ == TypeIDNull }
func (v Value) Tag() TypeID  { return v.typ }

func (v Value) Int() int32          { return int32(uint32(v.scalar)) }
func (v Value) Long() int64         { return int64(v.scalar) }
func (v Value) Float() float32      { return math.Float32frombits(uint32(v.scalar)) }
func (v Value) Double() float64     { return math.Float64frombits(v.scalar) }
func (v Value) String() string      { return v.str }
func (v Value) Boolean() bool       { return v.scalar != 0 }
func (v Value) Binary() []byte      { return v.bin }
func (v Value) Timestamp() int64    { return int64(v.scalar) }
func (v Value) Date() int32         { return int32(uint32(v.scalar)) }
func (v Value) Struct() Row         { return v.strct }
func (v Value) Array() []Value      { return v.arr }
func (v Value) Object() interface{} { return v.obj }

// canonicalFloatBits maps all NaN bit patterns to one representative and
// maps -0.0 to +0.0 so that equal floats under total order hash equally
// .
func canonicalFloatBits(bits uint64, isNaN bool) uint64 {
	if isNaN {
		return 0x7ff8000000000000 // canonical quiet NaN
	}
	if bits == 0x8000000000000000 { // -0.0
		return 0
	}
	return bits
}

// Equal implements Value equality: Null == Null, and total-order float
// comparison (NaN is distinct from every other value but equal to itself).
func (v Value) Equal(o Value) bool {
	if v.typ == TypeIDNull || o.typ == TypeIDNull {
		return v.typ == TypeIDNull && o.typ == TypeIDNull
	}
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case TypeIDFloat:
		return math.Float32frombits(uint32(v.scalar)) == math.Float32frombits(uint32(o.scalar)) ||
			(math.IsNaN(float64(v.Float())) && math.IsNaN(float64(o.Float())))
	case TypeIDDouble:
		return v.Double() == o.Double() || (math.IsNaN(v.Double()) && math.IsNaN(o.Double()))
	case TypeIDString:
		return v.str == o.str
	case TypeIDBinary:
		return bytes.Equal(v.bin, o.bin)
	case TypeIDStruct:
		return v.strct.Equal(o.strct)
	case TypeIDArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	default:
		return v.scalar == o.scalar
	}
}

// Compare implements the total order used by comparison operators and
// sorting: Null sorts before everything, NaN is ordered (not excluded) but
// distinct from every other bit pattern of the same type.
func (v Value) Compare(o Value) int {
	if v.typ == TypeIDNull && o.typ == TypeIDNull {
		return 0
	}
	if v.typ == TypeIDNull {
		return -1
	}
	if o.typ == TypeIDNull {
		return 1
	}
	switch v.typ {
	case TypeIDInt:
		return compareInt64(int64(v.Int()), int64(o.Int()))
	case TypeIDLong:
		return compareInt64(v.Long(), o.Long())
	case TypeIDFloat:
		return totalOrderFloat64(float64(v.Float()), float64(o.Float()))
	case TypeIDDouble:
		return totalOrderFloat64(v.Double(), o.Double())
	case TypeIDString:
		return compareString(v.str, o.str)
	case TypeIDBoolean:
		return compareInt64(boolToInt(v.Boolean()), boolToInt(o.Boolean()))
	case TypeIDTimestamp:
		return compareInt64(v.Timestamp(), o.Timestamp())
	case TypeIDDate:
		return compareInt64(int64(v.Date()), int64(o.Date()))
	case TypeIDBinary:
		return bytes.Compare(v.bin, o.bin)
	default:
		panic(fmt.Sprintf("flowql: incomparable tags %v and %v (coercion should have aligned them)", v.typ, o.typ))
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// totalOrderFloat64 orders floats so that NaN is distinct from, but
// consistently ordered against, every other value (IEEE 754 totalOrder
// predicate, simplified: NaN sorts after +Inf).
func totalOrderFloat64(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// HashBytes returns a canonical byte representation used by the operator's
// grouping-key hash map; floats are canonicalized first so equal floats
// hash equally under total order.
func (v Value) HashBytes() []byte {
	if v.typ == TypeIDNull {
		return []byte{byte(TypeIDNull)}
	}
	buf := make([]byte, 0, 16)
	buf = append(buf, byte(v.typ))
	switch v.typ {
	case TypeIDFloat:
		bits := canonicalFloatBits(math.Float64bits(float64(v.Float())), math.IsNaN(float64(v.Float())))
		return appendUint64(buf, bits)
	case TypeIDDouble:
		bits := canonicalFloatBits(v.scalar, math.IsNaN(v.Double()))
		return appendUint64(buf, bits)
	case TypeIDString:
		return append(buf, v.str...)
	case TypeIDBinary:
		return append(buf, v.bin...)
	case TypeIDStruct:
		for _, cell := range v.strct {
			buf = append(buf, cell.HashBytes()...)
		}
		return buf
	case TypeIDArray:
		for _, e := range v.arr {
			buf = append(buf, e.HashBytes()...)
		}
		return buf
	default:
		return appendUint64(buf, v.scalar)
	}
}

func appendUint64(buf []byte, v uint64) []byte {
	for i := 0; i < 8; i++ {
		buf = append(buf, byte(v>>(8*i)))
	}
	return buf
}
