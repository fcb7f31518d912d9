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

// Package jsoncodec serializes and deserializes rows as flat JSON objects
// keyed by field name, backed by goccy/go-json.
package jsoncodec

import (
	"fmt"

	gojson "github.com/goccy/go-json"

	"github.com/lukoou3/flowql/sql"
)

// Serializer writes one JSON object per row, field order following the
// schema and null fields omitted. The returned buffer is reused across
// calls.
type Serializer struct {
	schema    sql.Schema
	writeNull bool
	buf       []byte
}

// New returns a Serializer that skips null fields, matching the wire
// format's "absent key means null" convention.
func New(schema sql.Schema) (*Serializer, error) {
	return &Serializer{schema: schema}, nil
}

// NewWriteNull returns a Serializer that emits every field, nulls included.
func NewWriteNull(schema sql.Schema) (*Serializer, error) {
	return &Serializer{schema: schema, writeNull: true}, nil
}

func (s *Serializer) Serialize(row sql.Row) ([]byte, error) {
	if len(row) != len(s.schema) {
		return nil, fmt.Errorf("flowql: jsoncodec: row has %d cells, schema has %d fields", len(row), len(s.schema))
	}
	s.buf = s.buf[:0]
	s.buf = append(s.buf, '{')
	wrote := false
	for i, f := range s.schema {
		v := row[i]
		if v.IsNull() && !s.writeNull {
			continue
		}
		if wrote {
			s.buf = append(s.buf, ',')
		}
		wrote = true
		s.buf = appendJSONString(s.buf, f.Name)
		s.buf = append(s.buf, ':')
		b, err := valueToJSON(v, f.Type)
		if err != nil {
			return nil, err
		}
		s.buf = append(s.buf, b...)
	}
	s.buf = append(s.buf, '}')
	return s.buf, nil
}

func (s *Serializer) Close() error { return nil }

func valueToJSON(v sql.Value, typ sql.Type) ([]byte, error) {
	if v.IsNull() {
		return []byte("null"), nil
	}
	switch typ.ID() {
	case sql.TypeIDInt:
		return gojson.Marshal(v.Int())
	case sql.TypeIDLong, sql.TypeIDTimestamp:
		return gojson.Marshal(v.Long())
	case sql.TypeIDFloat:
		return gojson.Marshal(v.Float())
	case sql.TypeIDDouble:
		return gojson.Marshal(v.Double())
	case sql.TypeIDString:
		return gojson.Marshal(v.String())
	case sql.TypeIDBoolean:
		return gojson.Marshal(v.Boolean())
	case sql.TypeIDBinary:
		return gojson.Marshal(v.Binary())
	case sql.TypeIDDate:
		return gojson.Marshal(v.Date())
	case sql.TypeIDStruct:
		st, ok := typ.(sql.StructType)
		if !ok {
			return nil, fmt.Errorf("flowql: jsoncodec: struct value without struct type")
		}
		return structToJSON(v.Struct(), st.Fields)
	case sql.TypeIDArray:
		at, ok := typ.(sql.ArrayType)
		if !ok {
			return nil, fmt.Errorf("flowql: jsoncodec: array value without array type")
		}
		return arrayToJSON(v.Array(), at.Element)
	default:
		return nil, fmt.Errorf("flowql: jsoncodec: unsupported type %s", typ)
	}
}

func structToJSON(row sql.Row, fields sql.Fields) ([]byte, error) {
	out := []byte{'{'}
	wrote := false
	for i, f := range fields {
		if i >= len(row) || row[i].IsNull() {
			continue
		}
		if wrote {
			out = append(out, ',')
		}
		wrote = true
		out = appendJSONString(out, f.Name)
		out = append(out, ':')
		b, err := valueToJSON(row[i], f.Type)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	out = append(out, '}')
	return out, nil
}

func arrayToJSON(vs []sql.Value, elem sql.Type) ([]byte, error) {
	out := []byte{'['}
	for i, v := range vs {
		if i > 0 {
			out = append(out, ',')
		}
		b, err := valueToJSON(v, elem)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	out = append(out, ']')
	return out, nil
}

func appendJSONString(buf []byte, s string) []byte {
	b, _ := gojson.Marshal(s)
	return append(buf, b...)
}

// Deserializer parses a flat JSON object into a row shaped by schema.
// Unknown keys are ignored; missing keys and JSON nulls leave the field
// null.
type Deserializer struct {
	schema     sql.Schema
	fieldIndex map[string]int
	row        sql.Row
}

func NewDeserializer(schema sql.Schema) (*Deserializer, error) {
	idx := make(map[string]int, len(schema))
	for i, f := range schema {
		idx[f.Name] = i
	}
	return &Deserializer{schema: schema, fieldIndex: idx, row: sql.NewFixedRow(len(schema))}, nil
}

func (d *Deserializer) Deserialize(data []byte) (sql.Row, error) {
	for i := range d.row {
		d.row[i] = sql.NullValue()
	}
	var raw map[string]gojson.RawMessage
	if err := gojson.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("flowql: jsoncodec: %w", err)
	}
	for name, msg := range raw {
		i, ok := d.fieldIndex[name]
		if !ok {
			continue
		}
		v, err := jsonToValue(msg, d.schema[i].Type)
		if err != nil {
			return nil, err
		}
		d.row[i] = v
	}
	return d.row, nil
}

func (d *Deserializer) Close() error { return nil }

func jsonToValue(msg gojson.RawMessage, typ sql.Type) (sql.Value, error) {
	var generic interface{}
	if err := gojson.Unmarshal(msg, &generic); err != nil {
		return sql.Value{}, fmt.Errorf("flowql: jsoncodec: %w", err)
	}
	return genericToValue(generic, typ)
}

func genericToValue(generic interface{}, typ sql.Type) (sql.Value, error) {
	if generic == nil {
		return sql.NullValue(), nil
	}
	switch typ.ID() {
	case sql.TypeIDInt:
		n, ok := generic.(float64)
		if !ok {
			return sql.NullValue(), nil
		}
		return sql.IntValue(int32(n)), nil
	case sql.TypeIDLong, sql.TypeIDTimestamp:
		n, ok := generic.(float64)
		if !ok {
			return sql.NullValue(), nil
		}
		return sql.LongValue(int64(n)), nil
	case sql.TypeIDFloat:
		n, ok := generic.(float64)
		if !ok {
			return sql.NullValue(), nil
		}
		return sql.FloatValue(float32(n)), nil
	case sql.TypeIDDouble:
		n, ok := generic.(float64)
		if !ok {
			return sql.NullValue(), nil
		}
		return sql.DoubleValue(n), nil
	case sql.TypeIDString:
		switch t := generic.(type) {
		case string:
			return sql.StringValue(t), nil
		default:
			b, err := gojson.Marshal(t)
			if err != nil {
				return sql.Value{}, err
			}
			return sql.StringValue(string(b)), nil
		}
	case sql.TypeIDBoolean:
		b, ok := generic.(bool)
		if !ok {
			return sql.NullValue(), nil
		}
		return sql.BooleanValue(b), nil
	case sql.TypeIDBinary:
		s, ok := generic.(string)
		if !ok {
			return sql.NullValue(), nil
		}
		return sql.BinaryValue([]byte(s)), nil
	case sql.TypeIDDate:
		n, ok := generic.(float64)
		if !ok {
			return sql.NullValue(), nil
		}
		return sql.DateValue(int32(n)), nil
	case sql.TypeIDStruct:
		st, ok := typ.(sql.StructType)
		if !ok {
			return sql.Value{}, fmt.Errorf("flowql: jsoncodec: struct type mismatch")
		}
		m, ok := generic.(map[string]interface{})
		if !ok {
			return sql.NullValue(), nil
		}
		row := sql.NewFixedRow(len(st.Fields))
		for i, f := range st.Fields {
			if raw, ok := m[f.Name]; ok {
				v, err := genericToValue(raw, f.Type)
				if err != nil {
					return sql.Value{}, err
				}
				row[i] = v
			}
		}
		return sql.StructValue(row), nil
	case sql.TypeIDArray:
		at, ok := typ.(sql.ArrayType)
		if !ok {
			return sql.Value{}, fmt.Errorf("flowql: jsoncodec: array type mismatch")
		}
		arr, ok := generic.([]interface{})
		if !ok {
			return sql.NullValue(), nil
		}
		out := make([]sql.Value, len(arr))
		for i, e := range arr {
			v, err := genericToValue(e, at.Element)
			if err != nil {
				return sql.Value{}, err
			}
			out[i] = v
		}
		return sql.ArrayValue(out), nil
	default:
		return sql.Value{}, fmt.Errorf("flowql: jsoncodec: unsupported type %s", typ)
	}
}
