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

// Row is an indexed container of Values, length fixed at creation.
type Row []Value

// NewRow builds a Row from raw Go values, wrapping each according to its
// dynamic type. Used mostly by tests and by adapters bridging external
// data into the engine.
func NewRow(values ...interface{}) Row {
	row := make(Row, len(values))
	for i, v := range values {
		row[i] = wrapGo(v)
	}
	return row
}

func wrapGo(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return NullValue()
	case Value:
		return t
	case int32:
		return IntValue(t)
	case int:
		return LongValue(int64(t))
	case int64:
		return LongValue(t)
	case float32:
		return FloatValue(t)
	case float64:
		return DoubleValue(t)
	case string:
		return StringValue(t)
	case bool:
		return BooleanValue(t)
	case []byte:
		return BinaryValue(t)
	default:
		panic("flowql: NewRow: unsupported Go type")
	}
}

// NewFixedRow allocates a Row of length n, all cells Null.
func NewFixedRow(n int) Row { return make(Row, n) }

func (r Row) Len() int { return len(r) }

func (r Row) IsNull(i int) bool { return r[i].IsNull() }

func (r Row) Get(i int) *Value { return &r[i] }

func (r Row) Update(i int, v Value) { r[i] = v }

func (r Row) SetNull(i int) { r[i] = NullValue() }

func (r Row) GetInt(i int) int32 {
	if r[i].Tag() != TypeIDInt {
		return 0
	}
	return r[i].Int()
}

func (r Row) GetLong(i int) int64 {
	if r[i].Tag() != TypeIDLong {
		return 0
	}
	return r[i].Long()
}

func (r Row) GetFloat(i int) float32 {
	if r[i].Tag() != TypeIDFloat {
		return 0
	}
	return r[i].Float()
}

func (r Row) GetDouble(i int) float64 {
	if r[i].Tag() != TypeIDDouble {
		return 0
	}
	return r[i].Double()
}

func (r Row) GetString(i int) string {
	if r[i].Tag() != TypeIDString {
		return ""
	}
	return r[i].String()
}

func (r Row) GetBoolean(i int) bool {
	if r[i].Tag() != TypeIDBoolean {
		return false
	}
	return r[i].Boolean()
}

// Copy returns a shallow copy of the row (Values are themselves
// immutable, so a slice copy is a full logical copy).
func (r Row) Copy() Row {
	cp := make(Row, len(r))
	copy(cp, r)
	return cp
}

// Equal compares two rows cell by cell using Value.Equal.
func (r Row) Equal(o Row) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if !r[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// JoinedRow logically concatenates two rows without copying: index
// values below a.Len() read from A, the rest from B. Used by the aggregate
// operator's flush to present "grouping key ⊕ aggregate results" as one row.
type JoinedRow struct {
	A, B Row
}

func NewJoinedRow(a, b Row) JoinedRow { return JoinedRow{A: a, B: b} }

func (j JoinedRow) Len() int { return len(j.A) + len(j.B) }

func (j JoinedRow) IsNull(i int) bool {
	if i < len(j.A) {
		return j.A.IsNull(i)
	}
	return j.B.IsNull(i - len(j.A))
}

func (j JoinedRow) Get(i int) *Value {
	if i < len(j.A) {
		return j.A.Get(i)
	}
	return j.B.Get(i - len(j.A))
}

func (j JoinedRow) Update(i int, v Value) {
	if i < len(j.A) {
		j.A.Update(i, v)
		return
	}
	j.B.Update(i-len(j.A), v)
}

// Flatten materializes the JoinedRow into an owned Row.
func (j JoinedRow) Flatten() Row {
	out := make(Row, j.Len())
	copy(out, j.A)
	copy(out[len(j.A):], j.B)
	return out
}
