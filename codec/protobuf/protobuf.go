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

// Package protobuf serializes and deserializes rows as protobuf messages
// built dynamically, via protoreflect, from the engine's sql.Schema — no
// .proto-generated Go code is required at compile time. Array-of-array
// columns aren't representable (protobuf has no repeated-of-repeated) and
// are rejected at construction; a SQL NULL in an array-typed column is
// indistinguishable from an empty array once on the wire (proto3 has no
// list-presence bit).
package protobuf

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/lukoou3/flowql/sql"
)

// buildDescriptor synthesizes a top-level "Row" message descriptor out of
// schema, with one nested message per struct-typed column (recursively).
func buildDescriptor(schema sql.Schema) (protoreflect.MessageDescriptor, error) {
	root, err := buildMessageProto("Row", "flowql.Row", schema.ToStruct().Fields, 0)
	if err != nil {
		return nil, err
	}
	fd := &descriptorpb.FileDescriptorProto{
		Name:        proto.String("flowql/row.proto"),
		Package:     proto.String("flowql"),
		Syntax:      proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{root},
	}
	file, err := protodesc.NewFile(fd, nil)
	if err != nil {
		return nil, fmt.Errorf("flowql: protobuf: building descriptor: %w", err)
	}
	return file.Messages().Get(0), nil
}

// buildMessageProto recursively builds a DescriptorProto for fields,
// nesting one message type per struct column. fqn is this message's
// fully-qualified name (package.Outer.Inner...), used to address nested
// types from FieldDescriptorProto.TypeName. depth bounds the synthetic
// nested-type names.
func buildMessageProto(name, fqn string, fields sql.Fields, depth int) (*descriptorpb.DescriptorProto, error) {
	msg := &descriptorpb.DescriptorProto{Name: proto.String(name)}
	for i, f := range fields {
		fieldProto := &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(f.Name),
			Number: proto.Int32(int32(i + 1)),
			Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		}
		elemType := f.Type
		repeated := false
		if at, ok := f.Type.(sql.ArrayType); ok {
			if _, nested := at.Element.(sql.ArrayType); nested {
				return nil, fmt.Errorf("flowql: protobuf: array of array is not representable (field %q)", f.Name)
			}
			repeated = true
			elemType = at.Element
			fieldProto.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
		}

		if st, ok := elemType.(sql.StructType); ok {
			nestedName := fmt.Sprintf("%s_%d", nestedTypeName(f.Name), depth)
			nestedFQN := fqn + "." + nestedName
			nested, err := buildMessageProto(nestedName, nestedFQN, st.Fields, depth+1)
			if err != nil {
				return nil, err
			}
			msg.NestedType = append(msg.NestedType, nested)
			fieldProto.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
			fieldProto.TypeName = proto.String("." + nestedFQN)
		} else {
			pt, err := scalarProtoType(elemType)
			if err != nil {
				return nil, fmt.Errorf("flowql: protobuf: field %q: %w", f.Name, err)
			}
			fieldProto.Type = pt.Enum()
		}
		if !repeated && fieldProto.GetType() != descriptorpb.FieldDescriptorProto_TYPE_MESSAGE {
			fieldProto.Proto3Optional = proto.Bool(true)
			fieldProto.OneofIndex = proto.Int32(int32(len(msg.OneofDecl)))
			msg.OneofDecl = append(msg.OneofDecl, &descriptorpb.OneofDescriptorProto{Name: proto.String("_" + f.Name)})
		}
		msg.Field = append(msg.Field, fieldProto)
	}
	return msg, nil
}

func nestedTypeName(fieldName string) string {
	return "Nested_" + fieldName
}

func scalarProtoType(t sql.Type) (descriptorpb.FieldDescriptorProto_Type, error) {
	switch t.ID() {
	case sql.TypeIDInt, sql.TypeIDDate:
		return descriptorpb.FieldDescriptorProto_TYPE_INT32, nil
	case sql.TypeIDLong, sql.TypeIDTimestamp:
		return descriptorpb.FieldDescriptorProto_TYPE_INT64, nil
	case sql.TypeIDFloat:
		return descriptorpb.FieldDescriptorProto_TYPE_FLOAT, nil
	case sql.TypeIDDouble:
		return descriptorpb.FieldDescriptorProto_TYPE_DOUBLE, nil
	case sql.TypeIDString:
		return descriptorpb.FieldDescriptorProto_TYPE_STRING, nil
	case sql.TypeIDBoolean:
		return descriptorpb.FieldDescriptorProto_TYPE_BOOL, nil
	case sql.TypeIDBinary:
		return descriptorpb.FieldDescriptorProto_TYPE_BYTES, nil
	default:
		return 0, fmt.Errorf("unsupported scalar type %s", t)
	}
}

// Serializer encodes a row as a protobuf message matching the schema.
type Serializer struct {
	schema sql.Schema
	desc   protoreflect.MessageDescriptor
}

func New(schema sql.Schema) (*Serializer, error) {
	desc, err := buildDescriptor(schema)
	if err != nil {
		return nil, err
	}
	return &Serializer{schema: schema, desc: desc}, nil
}

func (s *Serializer) Serialize(row sql.Row) ([]byte, error) {
	msg := dynamicpb.NewMessage(s.desc)
	if err := populateMessage(msg, s.schema, row); err != nil {
		return nil, fmt.Errorf("flowql: protobuf: %w", err)
	}
	b, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("flowql: protobuf: %w", err)
	}
	return b, nil
}

func (s *Serializer) Close() error { return nil }

func populateMessage(msg *dynamicpb.Message, schema sql.Schema, row sql.Row) error {
	fields := msg.Descriptor().Fields()
	for i, f := range schema {
		if i >= len(row) || row[i].IsNull() {
			continue
		}
		fd := fields.ByName(protoreflect.Name(f.Name))
		if fd == nil {
			continue
		}
		if err := setField(msg, fd, row[i], f.Type); err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
	}
	return nil
}

func setField(msg *dynamicpb.Message, fd protoreflect.FieldDescriptor, v sql.Value, typ sql.Type) error {
	if at, ok := typ.(sql.ArrayType); ok {
		list := msg.Mutable(fd).List()
		for _, e := range v.Array() {
			val, err := scalarValue(msg, fd, e, at.Element)
			if err != nil {
				return err
			}
			list.Append(val)
		}
		return nil
	}
	val, err := scalarValue(msg, fd, v, typ)
	if err != nil {
		return err
	}
	msg.Set(fd, val)
	return nil
}

func scalarValue(msg *dynamicpb.Message, fd protoreflect.FieldDescriptor, v sql.Value, typ sql.Type) (protoreflect.Value, error) {
	if st, ok := typ.(sql.StructType); ok {
		nested := dynamicpb.NewMessage(fd.Message())
		if err := populateMessage(nested, sql.Schema(st.Fields), v.Struct()); err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfMessage(nested), nil
	}
	switch typ.ID() {
	case sql.TypeIDInt, sql.TypeIDDate:
		return protoreflect.ValueOfInt32(v.Int()), nil
	case sql.TypeIDLong, sql.TypeIDTimestamp:
		return protoreflect.ValueOfInt64(v.Long()), nil
	case sql.TypeIDFloat:
		return protoreflect.ValueOfFloat32(v.Float()), nil
	case sql.TypeIDDouble:
		return protoreflect.ValueOfFloat64(v.Double()), nil
	case sql.TypeIDString:
		return protoreflect.ValueOfString(v.String()), nil
	case sql.TypeIDBoolean:
		return protoreflect.ValueOfBool(v.Boolean()), nil
	case sql.TypeIDBinary:
		return protoreflect.ValueOfBytes(v.Binary()), nil
	default:
		return protoreflect.Value{}, fmt.Errorf("unsupported type %s", typ)
	}
}

// Deserializer decodes a protobuf message into a row shaped by schema.
type Deserializer struct {
	schema sql.Schema
	desc   protoreflect.MessageDescriptor
	row    sql.Row
}

func NewDeserializer(schema sql.Schema) (*Deserializer, error) {
	desc, err := buildDescriptor(schema)
	if err != nil {
		return nil, err
	}
	return &Deserializer{schema: schema, desc: desc, row: sql.NewFixedRow(len(schema))}, nil
}

func (d *Deserializer) Deserialize(data []byte) (sql.Row, error) {
	for i := range d.row {
		d.row[i] = sql.NullValue()
	}
	msg := dynamicpb.NewMessage(d.desc)
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("flowql: protobuf: %w", err)
	}
	fields := msg.Descriptor().Fields()
	for i, f := range d.schema {
		fd := fields.ByName(protoreflect.Name(f.Name))
		if fd == nil || !msg.Has(fd) {
			continue
		}
		v, err := readField(msg, fd, f.Type)
		if err != nil {
			return nil, fmt.Errorf("flowql: protobuf: field %q: %w", f.Name, err)
		}
		d.row[i] = v
	}
	return d.row, nil
}

func (d *Deserializer) Close() error { return nil }

func readField(msg *dynamicpb.Message, fd protoreflect.FieldDescriptor, typ sql.Type) (sql.Value, error) {
	if at, ok := typ.(sql.ArrayType); ok {
		list := msg.Get(fd).List()
		out := make([]sql.Value, list.Len())
		for i := 0; i < list.Len(); i++ {
			v, err := scalarToValue(list.Get(i), at.Element)
			if err != nil {
				return sql.Value{}, err
			}
			out[i] = v
		}
		return sql.ArrayValue(out), nil
	}
	return scalarToValue(msg.Get(fd), typ)
}

func scalarToValue(pv protoreflect.Value, typ sql.Type) (sql.Value, error) {
	if st, ok := typ.(sql.StructType); ok {
		nested := pv.Message().Interface().(*dynamicpb.Message)
		row := sql.NewFixedRow(len(st.Fields))
		fields := nested.Descriptor().Fields()
		for i, f := range st.Fields {
			fd := fields.ByName(protoreflect.Name(f.Name))
			if fd == nil || !nested.Has(fd) {
				continue
			}
			v, err := readField(nested, fd, f.Type)
			if err != nil {
				return sql.Value{}, err
			}
			row[i] = v
		}
		return sql.StructValue(row), nil
	}
	switch typ.ID() {
	case sql.TypeIDInt:
		return sql.IntValue(int32(pv.Int())), nil
	case sql.TypeIDDate:
		return sql.DateValue(int32(pv.Int())), nil
	case sql.TypeIDLong:
		return sql.LongValue(pv.Int()), nil
	case sql.TypeIDTimestamp:
		return sql.TimestampValue(pv.Int()), nil
	case sql.TypeIDFloat:
		return sql.FloatValue(float32(pv.Float())), nil
	case sql.TypeIDDouble:
		return sql.DoubleValue(pv.Float()), nil
	case sql.TypeIDString:
		return sql.StringValue(pv.String()), nil
	case sql.TypeIDBoolean:
		return sql.BooleanValue(pv.Bool()), nil
	case sql.TypeIDBinary:
		return sql.BinaryValue(pv.Bytes()), nil
	default:
		return sql.Value{}, fmt.Errorf("unsupported type %s", typ)
	}
}
