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

// Package rawcodec passes a single binary or string column straight
// through to the wire with no framing at all.
package rawcodec

import (
	"fmt"

	"github.com/lukoou3/flowql/sql"
)

func checkSchema(schema sql.Schema) (isStr bool, err error) {
	if len(schema) != 1 {
		return false, fmt.Errorf("flowql: rawcodec: schema must have exactly one field, got %d", len(schema))
	}
	switch schema[0].Type.ID() {
	case sql.TypeIDString:
		return true, nil
	case sql.TypeIDBinary:
		return false, nil
	default:
		return false, fmt.Errorf("flowql: rawcodec: field %q must be string or binary, got %s", schema[0].Name, schema[0].Type)
	}
}

// Serializer writes the row's sole column's bytes unmodified.
type Serializer struct {
	isStr bool
}

func New(schema sql.Schema) (*Serializer, error) {
	isStr, err := checkSchema(schema)
	if err != nil {
		return nil, err
	}
	return &Serializer{isStr: isStr}, nil
}

func (s *Serializer) Serialize(row sql.Row) ([]byte, error) {
	if s.isStr {
		return []byte(row[0].String()), nil
	}
	return row[0].Binary(), nil
}

func (s *Serializer) Close() error { return nil }

// Deserializer wraps raw bytes as the row's sole column, reusing the row
// across calls.
type Deserializer struct {
	isStr bool
	row   sql.Row
}

func NewDeserializer(schema sql.Schema) (*Deserializer, error) {
	isStr, err := checkSchema(schema)
	if err != nil {
		return nil, err
	}
	return &Deserializer{isStr: isStr, row: sql.NewFixedRow(1)}, nil
}

func (d *Deserializer) Deserialize(data []byte) (sql.Row, error) {
	if d.isStr {
		d.row[0] = sql.StringValue(string(data))
	} else {
		cp := make([]byte, len(data))
		copy(cp, data)
		d.row[0] = sql.BinaryValue(cp)
	}
	return d.row, nil
}

func (d *Deserializer) Close() error { return nil }
