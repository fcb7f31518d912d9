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

// Package avro serializes and deserializes rows as Avro records, deriving
// the Avro schema from the engine's sql.Schema rather than requiring an
// externally supplied one, backed by hamba/avro/v2's generic
// map[string]interface{} codec path.
package avro

import (
	"encoding/json"
	"fmt"

	"github.com/hamba/avro/v2"

	"github.com/lukoou3/flowql/sql"
)

type avroField struct {
	Name    string      `json:"name"`
	Type    interface{} `json:"type"`
	Default interface{} `json:"default,omitempty"`
}

type avroRecord struct {
	Type   string      `json:"type"`
	Name   string      `json:"name"`
	Fields []avroField `json:"fields"`
}

// buildSchema derives an Avro JSON schema string for schema, recording
// name collisions on nested struct fields with a depth suffix.
func buildSchema(schema sql.Schema) (avro.Schema, error) {
	rec, err := buildRecord("Row", sql.Fields(schema), 0)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("flowql: avro: marshaling derived schema: %w", err)
	}
	s, err := avro.Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("flowql: avro: parsing derived schema: %w", err)
	}
	return s, nil
}

func buildRecord(name string, fields sql.Fields, depth int) (*avroRecord, error) {
	rec := &avroRecord{Type: "record", Name: name}
	for _, f := range fields {
		t, err := avroType(f.Name, f.Type, f.Nullable, depth)
		if err != nil {
			return nil, err
		}
		af := avroField{Name: f.Name, Type: t}
		if f.Nullable {
			af.Default = nil
		}
		rec.Fields = append(rec.Fields, af)
	}
	return rec, nil
}

func avroType(name string, typ sql.Type, nullable bool, depth int) (interface{}, error) {
	var t interface{}
	switch v := typ.(type) {
	case sql.StructType:
		rec, err := buildRecord(fmt.Sprintf("%s_record_%d", name, depth), v.Fields, depth+1)
		if err != nil {
			return nil, err
		}
		t = rec
	case sql.ArrayType:
		elem, err := avroType(name+"_item", v.Element, false, depth+1)
		if err != nil {
			return nil, err
		}
		t = map[string]interface{}{"type": "array", "items": elem}
	default:
		prim, err := primitiveAvroType(typ)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		t = prim
	}
	if nullable {
		return []interface{}{"null", t}, nil
	}
	return t, nil
}

func primitiveAvroType(t sql.Type) (string, error) {
	switch t.ID() {
	case sql.TypeIDInt, sql.TypeIDDate:
		return "int", nil
	case sql.TypeIDLong, sql.TypeIDTimestamp:
		return "long", nil
	case sql.TypeIDFloat:
		return "float", nil
	case sql.TypeIDDouble:
		return "double", nil
	case sql.TypeIDString:
		return "string", nil
	case sql.TypeIDBoolean:
		return "boolean", nil
	case sql.TypeIDBinary:
		return "bytes", nil
	default:
		return "", fmt.Errorf("unsupported type %s", t)
	}
}

// Serializer encodes a row as an Avro record via a schema derived from
// sql.Schema.
type Serializer struct {
	schema sql.Schema
	avro   avro.Schema
}

func New(schema sql.Schema) (*Serializer, error) {
	s, err := buildSchema(schema)
	if err != nil {
		return nil, err
	}
	return &Serializer{schema: schema, avro: s}, nil
}

func (s *Serializer) Serialize(row sql.Row) ([]byte, error) {
	m, err := rowToMap(row, s.schema)
	if err != nil {
		return nil, fmt.Errorf("flowql: avro: %w", err)
	}
	b, err := avro.Marshal(s.avro, m)
	if err != nil {
		return nil, fmt.Errorf("flowql: avro: %w", err)
	}
	return b, nil
}

func (s *Serializer) Close() error { return nil }

func rowToMap(row sql.Row, schema sql.Schema) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(schema))
	for i, f := range schema {
		v, err := valueToGo(row[i], f.Type, f.Nullable)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

func valueToGo(v sql.Value, typ sql.Type, nullable bool) (interface{}, error) {
	if v.IsNull() {
		return nil, nil
	}
	var inner interface{}
	switch t := typ.(type) {
	case sql.StructType:
		m, err := rowToMap(v.Struct(), sql.Schema(t.Fields))
		if err != nil {
			return nil, err
		}
		inner = m
	case sql.ArrayType:
		vs := v.Array()
		arr := make([]interface{}, len(vs))
		for i, e := range vs {
			ev, err := valueToGo(e, t.Element, false)
			if err != nil {
				return nil, err
			}
			arr[i] = ev
		}
		inner = arr
	default:
		switch typ.ID() {
		case sql.TypeIDInt, sql.TypeIDDate:
			inner = v.Int()
		case sql.TypeIDLong, sql.TypeIDTimestamp:
			inner = v.Long()
		case sql.TypeIDFloat:
			inner = v.Float()
		case sql.TypeIDDouble:
			inner = v.Double()
		case sql.TypeIDString:
			inner = v.String()
		case sql.TypeIDBoolean:
			inner = v.Boolean()
		case sql.TypeIDBinary:
			inner = v.Binary()
		default:
			return nil, fmt.Errorf("unsupported type %s", typ)
		}
	}
	if nullable {
		return map[string]interface{}{unionBranch(typ): inner}, nil
	}
	return inner, nil
}

// unionBranch names the non-null branch of a ["null", T] union the way
// hamba/avro's generic map codec expects it keyed, for primitive T.
func unionBranch(typ sql.Type) string {
	switch t := typ.(type) {
	case sql.StructType:
		return "record"
	case sql.ArrayType:
		_ = t
		return "array"
	default:
		p, _ := primitiveAvroType(typ)
		return p
	}
}

// Deserializer decodes an Avro record into a row shaped by schema.
type Deserializer struct {
	schema sql.Schema
	avro   avro.Schema
	row    sql.Row
}

func NewDeserializer(schema sql.Schema) (*Deserializer, error) {
	s, err := buildSchema(schema)
	if err != nil {
		return nil, err
	}
	return &Deserializer{schema: schema, avro: s, row: sql.NewFixedRow(len(schema))}, nil
}

func (d *Deserializer) Deserialize(data []byte) (sql.Row, error) {
	for i := range d.row {
		d.row[i] = sql.NullValue()
	}
	var m map[string]interface{}
	if err := avro.Unmarshal(d.avro, data, &m); err != nil {
		return nil, fmt.Errorf("flowql: avro: %w", err)
	}
	for i, f := range d.schema {
		raw, ok := m[f.Name]
		if !ok || raw == nil {
			continue
		}
		v, err := goToValue(raw, f.Type, f.Nullable)
		if err != nil {
			return nil, fmt.Errorf("flowql: avro: field %q: %w", f.Name, err)
		}
		d.row[i] = v
	}
	return d.row, nil
}

func (d *Deserializer) Close() error { return nil }

func goToValue(raw interface{}, typ sql.Type, nullable bool) (sql.Value, error) {
	if nullable {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return sql.NullValue(), nil
		}
		v, ok := m[unionBranch(typ)]
		if !ok {
			return sql.NullValue(), nil
		}
		raw = v
	}
	switch t := typ.(type) {
	case sql.StructType:
		m, ok := raw.(map[string]interface{})
		if !ok {
			return sql.Value{}, fmt.Errorf("expected record for struct field")
		}
		row := sql.NewFixedRow(len(t.Fields))
		for i, f := range t.Fields {
			v, ok := m[f.Name]
			if !ok || v == nil {
				continue
			}
			cv, err := goToValue(v, f.Type, f.Nullable)
			if err != nil {
				return sql.Value{}, err
			}
			row[i] = cv
		}
		return sql.StructValue(row), nil
	case sql.ArrayType:
		arr, ok := raw.([]interface{})
		if !ok {
			return sql.Value{}, fmt.Errorf("expected array")
		}
		out := make([]sql.Value, len(arr))
		for i, e := range arr {
			v, err := goToValue(e, t.Element, false)
			if err != nil {
				return sql.Value{}, err
			}
			out[i] = v
		}
		return sql.ArrayValue(out), nil
	default:
		return primitiveGoToValue(raw, typ)
	}
}

func primitiveGoToValue(raw interface{}, typ sql.Type) (sql.Value, error) {
	switch typ.ID() {
	case sql.TypeIDInt:
		n, ok := raw.(int32)
		if !ok {
			return sql.NullValue(), nil
		}
		return sql.IntValue(n), nil
	case sql.TypeIDDate:
		n, ok := raw.(int32)
		if !ok {
			return sql.NullValue(), nil
		}
		return sql.DateValue(n), nil
	case sql.TypeIDLong:
		n, ok := raw.(int64)
		if !ok {
			return sql.NullValue(), nil
		}
		return sql.LongValue(n), nil
	case sql.TypeIDTimestamp:
		n, ok := raw.(int64)
		if !ok {
			return sql.NullValue(), nil
		}
		return sql.TimestampValue(n), nil
	case sql.TypeIDFloat:
		f, ok := raw.(float32)
		if !ok {
			return sql.NullValue(), nil
		}
		return sql.FloatValue(f), nil
	case sql.TypeIDDouble:
		f, ok := raw.(float64)
		if !ok {
			return sql.NullValue(), nil
		}
		return sql.DoubleValue(f), nil
	case sql.TypeIDString:
		s, ok := raw.(string)
		if !ok {
			return sql.NullValue(), nil
		}
		return sql.StringValue(s), nil
	case sql.TypeIDBoolean:
		b, ok := raw.(bool)
		if !ok {
			return sql.NullValue(), nil
		}
		return sql.BooleanValue(b), nil
	case sql.TypeIDBinary:
		b, ok := raw.([]byte)
		if !ok {
			return sql.NullValue(), nil
		}
		return sql.BinaryValue(b), nil
	default:
		return sql.Value{}, fmt.Errorf("unsupported type %s", typ)
	}
}
