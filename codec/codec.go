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

// Package codec defines the wire-format contract connectors use to turn
// sql.Row values into bytes and back. Implementations live in sibling
// packages (jsoncodec, csvcodec, msgpackcodec, protobuf, avro, rawcodec)
// and are registered by RegisterDefaults into a Registry keyed by the
// config's tagged-union name, matching the codec config's "codec" tag.
package codec

import (
	"fmt"

	"github.com/lukoou3/flowql/sql"
)

// Serializer turns rows into bytes. Serialize may reuse the returned
// slice's backing array on the next call, so callers must copy before
// calling Serialize again if they need to retain the bytes.
type Serializer interface {
	Serialize(row sql.Row) ([]byte, error)
	Close() error
}

// Deserializer turns bytes into rows. Deserialize may reuse the returned
// Row's backing array on the next call; it clears nullable fields before
// populating so no stale value survives between records.
type Deserializer interface {
	Deserialize(data []byte) (sql.Row, error)
	Close() error
}

// SerializerFactory builds a Serializer bound to schema.
type SerializerFactory func(schema sql.Schema) (Serializer, error)

// DeserializerFactory builds a Deserializer bound to schema.
type DeserializerFactory func(schema sql.Schema) (Deserializer, error)

// Registry maps a codec's tagged-union config name ("json", "csv", "avro",
// "protobuf", "msgpack", "raw") to its Serializer/Deserializer factories.
type Registry struct {
	serializers   map[string]SerializerFactory
	deserializers map[string]DeserializerFactory
}

// NewRegistry returns an empty registry; call RegisterDefaults or Register
// to populate it.
func NewRegistry() *Registry {
	return &Registry{
		serializers:   map[string]SerializerFactory{},
		deserializers: map[string]DeserializerFactory{},
	}
}

// Register adds both directions for name in one call. Either factory may
// be nil if a codec only goes one way.
func (r *Registry) Register(name string, ser SerializerFactory, de DeserializerFactory) {
	if ser != nil {
		r.serializers[name] = ser
	}
	if de != nil {
		r.deserializers[name] = de
	}
}

func (r *Registry) NewSerializer(name string, schema sql.Schema) (Serializer, error) {
	f, ok := r.serializers[name]
	if !ok {
		return nil, fmt.Errorf("flowql: unknown serializer codec %q", name)
	}
	return f(schema)
}

func (r *Registry) NewDeserializer(name string, schema sql.Schema) (Deserializer, error) {
	f, ok := r.deserializers[name]
	if !ok {
		return nil, fmt.Errorf("flowql: unknown deserializer codec %q", name)
	}
	return f(schema)
}
