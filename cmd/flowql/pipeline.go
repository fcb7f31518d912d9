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

package main

import (
	"fmt"

	"github.com/lukoou3/flowql/codec"
	cfgpkg "github.com/lukoou3/flowql/internal/config"
	"github.com/lukoou3/flowql/sql"
	"github.com/lukoou3/flowql/sql/analyzer"
	"github.com/lukoou3/flowql/sql/expression/function"
	"github.com/lukoou3/flowql/sql/parse"
)

// resolvePlan parses sqlText against a session that has relationName
// registered with schema, and returns the fully analyzed plan.
func resolvePlan(sqlText, relationName string, schema sql.Schema) (sql.Node, error) {
	node, err := parse.ParseQuery(sqlText)
	if err != nil {
		return nil, fmt.Errorf("parsing query: %w", err)
	}
	session := analyzer.NewSession()
	session.Register(relationName, schema)
	az := analyzer.NewAnalyzer(session, function.DefaultCatalog)
	resolved, err := az.Analyze(node)
	if err != nil {
		return nil, fmt.Errorf("analyzing query: %w", err)
	}
	return resolved, nil
}

// serializerFor builds the Serializer a Sink connector needs from a
// config.CodecConfig; name is "sink_codec" for error messages only.
func serializerFor(reg *codec.Registry, cc cfgpkg.CodecConfig, schema sql.Schema, name string) (codec.Serializer, error) {
	if cc.Name == "" {
		return nil, fmt.Errorf("%s: missing codec name", name)
	}
	ser, err := reg.NewSerializer(cc.Name, schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return ser, nil
}

// deserializerFor builds the Deserializer a Source connector needs from a
// config.CodecConfig; name is "source_codec" for error messages only.
func deserializerFor(reg *codec.Registry, cc cfgpkg.CodecConfig, schema sql.Schema, name string) (codec.Deserializer, error) {
	if cc.Name == "" {
		return nil, fmt.Errorf("%s: missing codec name", name)
	}
	de, err := reg.NewDeserializer(cc.Name, schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return de, nil
}
