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

package codec

import (
	"github.com/lukoou3/flowql/codec/avro"
	"github.com/lukoou3/flowql/codec/csvcodec"
	"github.com/lukoou3/flowql/codec/jsoncodec"
	"github.com/lukoou3/flowql/codec/msgpackcodec"
	"github.com/lukoou3/flowql/codec/protobuf"
	"github.com/lukoou3/flowql/codec/rawcodec"
	"github.com/lukoou3/flowql/sql"
)

// NewDefaultRegistry returns a Registry with every built-in codec
// registered under the name its config uses: json, csv, avro, protobuf,
// msgpack, raw.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// RegisterDefaults adds every built-in codec to r under its config name.
func RegisterDefaults(r *Registry) {
	r.Register("json",
		func(schema sql.Schema) (Serializer, error) { return jsoncodec.New(schema) },
		func(schema sql.Schema) (Deserializer, error) { return jsoncodec.NewDeserializer(schema) },
	)
	r.Register("csv",
		func(schema sql.Schema) (Serializer, error) { return csvcodec.New(schema) },
		func(schema sql.Schema) (Deserializer, error) { return csvcodec.NewDeserializer(schema) },
	)
	r.Register("msgpack",
		func(schema sql.Schema) (Serializer, error) { return msgpackcodec.New(schema) },
		func(schema sql.Schema) (Deserializer, error) { return msgpackcodec.NewDeserializer(schema) },
	)
	r.Register("protobuf",
		func(schema sql.Schema) (Serializer, error) { return protobuf.New(schema) },
		func(schema sql.Schema) (Deserializer, error) { return protobuf.NewDeserializer(schema) },
	)
	r.Register("avro",
		func(schema sql.Schema) (Serializer, error) { return avro.New(schema) },
		func(schema sql.Schema) (Deserializer, error) { return avro.NewDeserializer(schema) },
	)
	r.Register("raw",
		func(schema sql.Schema) (Serializer, error) { return rawcodec.New(schema) },
		func(schema sql.Schema) (Deserializer, error) { return rawcodec.NewDeserializer(schema) },
	)
}
