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

// Package msgpackcodec serializes rows as MessagePack arrays, one element
// per schema column in order (struct-free: field names aren't carried on
// the wire), backed by vmihailenco/msgpack/v5.
package msgpackcodec

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/lukoou3/flowql/sql"
)

// Serializer encodes a row as a MessagePack array, reusing its underlying
// byte buffer across calls.
type Serializer struct {
	schema sql.Schema
	buf    bytes.Buffer
	enc    *msgpack.Encoder
}

func New(schema sql.Schema) (*Serializer, error) {
	s := &Serializer{schema: schema}
	s.enc = msgpack.NewEncoder(&s.buf)
	return s, nil
}

func (s *Serializer) Serialize(row sql.Row) ([]byte, error) {
	if len(row) != len(s.schema) {
		return nil, fmt.Errorf("flowql: msgpackcodec: row has %d cells, schema has %d fields", len(row), len(s.schema))
	}
	s.buf.Reset()
	if err := s.enc.EncodeArrayLen(len(row)); err != nil {
		return nil, fmt.Errorf("flowql: msgpackcodec: %w", err)
	}
	for i, f := range s.schema {
		if err := encodeValue(s.enc, row[i], f.Type); err != nil {
			return nil, fmt.Errorf("flowql: msgpackcodec: %w", err)
		}
	}
	return s.buf.Bytes(), nil
}

func (s *Serializer) Close() error { return nil }

func encodeValue(enc *msgpack.Encoder, v sql.Value, typ sql.Type) error {
	if v.IsNull() {
		return enc.EncodeNil()
	}
	switch typ.ID() {
	case sql.TypeIDInt:
		return enc.EncodeInt(int64(v.Int()))
	case sql.TypeIDLong, sql.TypeIDTimestamp:
		return enc.EncodeInt(v.Long())
	case sql.TypeIDFloat:
		return enc.EncodeFloat32(v.Float())
	case sql.TypeIDDouble:
		return enc.EncodeFloat64(v.Double())
	case sql.TypeIDString:
		return enc.EncodeString(v.String())
	case sql.TypeIDBoolean:
		return enc.EncodeBool(v.Boolean())
	case sql.TypeIDBinary:
		return enc.EncodeBytes(v.Binary())
	case sql.TypeIDDate:
		return enc.EncodeInt(int64(v.Date()))
	case sql.TypeIDStruct:
		st, ok := typ.(sql.StructType)
		if !ok {
			return fmt.Errorf("struct value without struct type")
		}
		row := v.Struct()
		if err := enc.EncodeArrayLen(len(st.Fields)); err != nil {
			return err
		}
		for i, f := range st.Fields {
			if err := encodeValue(enc, row[i], f.Type); err != nil {
				return err
			}
		}
		return nil
	case sql.TypeIDArray:
		at, ok := typ.(sql.ArrayType)
		if !ok {
			return fmt.Errorf("array value without array type")
		}
		arr := v.Array()
		if err := enc.EncodeArrayLen(len(arr)); err != nil {
			return err
		}
		for _, e := range arr {
			if err := encodeValue(enc, e, at.Element); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported type %s", typ)
	}
}

// Deserializer decodes a MessagePack array into a row shaped by schema,
// position driving the mapping.
type Deserializer struct {
	schema sql.Schema
	buf    bytes.Reader
	dec    *msgpack.Decoder
	row    sql.Row
}

func NewDeserializer(schema sql.Schema) (*Deserializer, error) {
	d := &Deserializer{schema: schema, row: sql.NewFixedRow(len(schema))}
	d.dec = msgpack.NewDecoder(&d.buf)
	return d, nil
}

func (d *Deserializer) Deserialize(data []byte) (sql.Row, error) {
	for i := range d.row {
		d.row[i] = sql.NullValue()
	}
	d.buf.Reset(data)
	d.dec.Reset(&d.buf)
	n, err := d.dec.DecodeArrayLen()
	if err != nil {
		return nil, fmt.Errorf("flowql: msgpackcodec: %w", err)
	}
	for i := 0; i < n && i < len(d.schema); i++ {
		v, err := decodeValue(d.dec, d.schema[i].Type)
		if err != nil {
			return nil, fmt.Errorf("flowql: msgpackcodec: %w", err)
		}
		d.row[i] = v
	}
	return d.row, nil
}

func (d *Deserializer) Close() error { return nil }

func decodeValue(dec *msgpack.Decoder, typ sql.Type) (sql.Value, error) {
	isNil, err := peekNil(dec)
	if err != nil {
		return sql.Value{}, err
	}
	if isNil {
		if err := dec.DecodeNil(); err != nil {
			return sql.Value{}, err
		}
		return sql.NullValue(), nil
	}
	switch typ.ID() {
	case sql.TypeIDInt:
		n, err := dec.DecodeInt32()
		return sql.IntValue(n), err
	case sql.TypeIDLong, sql.TypeIDTimestamp:
		n, err := dec.DecodeInt64()
		if typ.ID() == sql.TypeIDTimestamp {
			return sql.TimestampValue(n), err
		}
		return sql.LongValue(n), err
	case sql.TypeIDFloat:
		f, err := dec.DecodeFloat32()
		return sql.FloatValue(f), err
	case sql.TypeIDDouble:
		f, err := dec.DecodeFloat64()
		return sql.DoubleValue(f), err
	case sql.TypeIDString:
		s, err := dec.DecodeString()
		return sql.StringValue(s), err
	case sql.TypeIDBoolean:
		b, err := dec.DecodeBool()
		return sql.BooleanValue(b), err
	case sql.TypeIDBinary:
		b, err := dec.DecodeBytes()
		return sql.BinaryValue(b), err
	case sql.TypeIDDate:
		n, err := dec.DecodeInt32()
		return sql.DateValue(n), err
	case sql.TypeIDStruct:
		st, ok := typ.(sql.StructType)
		if !ok {
			return sql.Value{}, fmt.Errorf("struct type mismatch")
		}
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return sql.Value{}, err
		}
		row := sql.NewFixedRow(len(st.Fields))
		for i := 0; i < n && i < len(st.Fields); i++ {
			v, err := decodeValue(dec, st.Fields[i].Type)
			if err != nil {
				return sql.Value{}, err
			}
			row[i] = v
		}
		return sql.StructValue(row), nil
	case sql.TypeIDArray:
		at, ok := typ.(sql.ArrayType)
		if !ok {
			return sql.Value{}, fmt.Errorf("array type mismatch")
		}
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return sql.Value{}, err
		}
		out := make([]sql.Value, n)
		for i := 0; i < n; i++ {
			v, err := decodeValue(dec, at.Element)
			if err != nil {
				return sql.Value{}, err
			}
			out[i] = v
		}
		return sql.ArrayValue(out), nil
	default:
		return sql.Value{}, fmt.Errorf("unsupported type %s", typ)
	}
}

func peekNil(dec *msgpack.Decoder) (bool, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return false, err
	}
	return msgpack.IsNilCode(code), nil
}
