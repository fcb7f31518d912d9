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

// Package csvcodec serializes and deserializes rows as single CSV records,
// column order fixed at construction from the schema. Built on the
// standard library's encoding/csv: no third-party CSV library appears
// anywhere in the retrieval pack.
package csvcodec

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/lukoou3/flowql/sql"
)

// Serializer writes one CSV record per row. The returned buffer is reused
// across calls, trailing newline included (csv.Writer always terminates a
// record).
type Serializer struct {
	schema sql.Schema
	buf    bytes.Buffer
	w      *csv.Writer
	fields []string
}

func New(schema sql.Schema) (*Serializer, error) {
	s := &Serializer{schema: schema, fields: make([]string, len(schema))}
	s.w = csv.NewWriter(&s.buf)
	return s, nil
}

func (s *Serializer) Serialize(row sql.Row) ([]byte, error) {
	if len(row) != len(s.schema) {
		return nil, fmt.Errorf("flowql: csvcodec: row has %d cells, schema has %d fields", len(row), len(s.schema))
	}
	for i, f := range s.schema {
		text, err := valueToText(row[i], f.Type)
		if err != nil {
			return nil, err
		}
		s.fields[i] = text
	}
	s.buf.Reset()
	if err := s.w.Write(s.fields); err != nil {
		return nil, fmt.Errorf("flowql: csvcodec: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return nil, fmt.Errorf("flowql: csvcodec: %w", err)
	}
	return s.buf.Bytes(), nil
}

func (s *Serializer) Close() error { return nil }

func valueToText(v sql.Value, typ sql.Type) (string, error) {
	if v.IsNull() {
		return "", nil
	}
	switch typ.ID() {
	case sql.TypeIDInt:
		return strconv.FormatInt(int64(v.Int()), 10), nil
	case sql.TypeIDLong, sql.TypeIDTimestamp:
		return strconv.FormatInt(v.Long(), 10), nil
	case sql.TypeIDFloat:
		return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32), nil
	case sql.TypeIDDouble:
		return strconv.FormatFloat(v.Double(), 'g', -1, 64), nil
	case sql.TypeIDString:
		return v.String(), nil
	case sql.TypeIDBoolean:
		return strconv.FormatBool(v.Boolean()), nil
	case sql.TypeIDBinary:
		return string(v.Binary()), nil
	case sql.TypeIDDate:
		return strconv.FormatInt(int64(v.Date()), 10), nil
	default:
		return "", fmt.Errorf("flowql: csvcodec: unsupported column type %s", typ)
	}
}

// Deserializer parses one CSV record into a row shaped by schema; column
// position, not name, drives the mapping.
type Deserializer struct {
	schema sql.Schema
	r      *csv.Reader
	buf    *bytes.Reader
	row    sql.Row
}

func NewDeserializer(schema sql.Schema) (*Deserializer, error) {
	buf := bytes.NewReader(nil)
	r := csv.NewReader(buf)
	r.FieldsPerRecord = -1
	return &Deserializer{schema: schema, r: r, buf: buf, row: sql.NewFixedRow(len(schema))}, nil
}

func (d *Deserializer) Deserialize(data []byte) (sql.Row, error) {
	for i := range d.row {
		d.row[i] = sql.NullValue()
	}
	d.buf.Reset(data)
	d.r = csv.NewReader(d.buf)
	d.r.FieldsPerRecord = -1
	record, err := d.r.Read()
	if err != nil {
		return nil, fmt.Errorf("flowql: csvcodec: %w", err)
	}
	for i, f := range d.schema {
		if i >= len(record) || record[i] == "" {
			continue
		}
		v, err := textToValue(record[i], f.Type)
		if err != nil {
			return nil, err
		}
		d.row[i] = v
	}
	return d.row, nil
}

func (d *Deserializer) Close() error { return nil }

func textToValue(text string, typ sql.Type) (sql.Value, error) {
	switch typ.ID() {
	case sql.TypeIDInt:
		n, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return sql.NullValue(), nil
		}
		return sql.IntValue(int32(n)), nil
	case sql.TypeIDLong, sql.TypeIDTimestamp:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return sql.NullValue(), nil
		}
		return sql.LongValue(n), nil
	case sql.TypeIDFloat:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return sql.NullValue(), nil
		}
		return sql.FloatValue(float32(f)), nil
	case sql.TypeIDDouble:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return sql.NullValue(), nil
		}
		return sql.DoubleValue(f), nil
	case sql.TypeIDString:
		return sql.StringValue(text), nil
	case sql.TypeIDBoolean:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return sql.NullValue(), nil
		}
		return sql.BooleanValue(b), nil
	case sql.TypeIDBinary:
		return sql.BinaryValue([]byte(text)), nil
	case sql.TypeIDDate:
		n, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return sql.NullValue(), nil
		}
		return sql.DateValue(int32(n)), nil
	default:
		return sql.Value{}, fmt.Errorf("flowql: csvcodec: unsupported column type %s", typ)
	}
}
