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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lukoou3/flowql/sql"
)

const validYAML = `
sql: "SELECT a FROM input"
relation_name: events
rows_per_second: 10
max_rows: 100
interval_ms: 1000
parallelism: 1
schema:
  - name: a
    type: int
  - name: b
    type: string
    nullable: true
source:
  name: faker
sink:
  name: print
source_codec:
  name: json
sink_codec:
  name: json
`

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadParsesAndValidatesAWellFormedConfig(t *testing.T) {
	require := require.New(t)

	cfg, err := Load(writeTemp(t, validYAML))
	require.NoError(err)
	require.Equal("events", cfg.RelationName)
	require.Equal("faker", cfg.Source.Name)
	require.Equal("json", cfg.SourceCodec.Name)
	require.Len(cfg.Schema, 2)
}

func TestLoadDefaultsRelationNameWhenUnset(t *testing.T) {
	require := require.New(t)

	const noRelationName = `
sql: "SELECT a FROM input"
rows_per_second: 1
max_rows: 1
interval_ms: 1
parallelism: 1
schema:
  - name: a
    type: int
`
	cfg, err := Load(writeTemp(t, noRelationName))
	require.NoError(err)
	require.Equal("input", cfg.RelationName)
}

func TestLoadRejectsNonPositiveIntegerFields(t *testing.T) {
	require := require.New(t)

	const zeroRows = `
sql: "SELECT a FROM input"
rows_per_second: 0
max_rows: 1
interval_ms: 1
parallelism: 1
schema:
  - name: a
    type: int
`
	_, err := Load(writeTemp(t, zeroRows))
	require.Error(err)
	require.Contains(err.Error(), "rows_per_second")
}

func TestLoadReturnsErrorForMissingFile(t *testing.T) {
	require := require.New(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(err)
}

func TestResolveSchemaMapsEveryTypeName(t *testing.T) {
	require := require.New(t)

	cfg := &Config{Schema: []FieldConfig{
		{Name: "a", Type: "int"},
		{Name: "b", Type: "long"},
		{Name: "c", Type: "float"},
		{Name: "d", Type: "double"},
		{Name: "e", Type: "string"},
		{Name: "f", Type: "boolean"},
		{Name: "g", Type: "binary"},
		{Name: "h", Type: "timestamp"},
		{Name: "i", Type: "date", Nullable: true},
	}}
	schema, err := cfg.ResolveSchema()
	require.NoError(err)
	require.Len(schema, 9)
	require.Equal(sql.Int, schema[0].Type)
	require.True(schema[8].Nullable)
}

func TestResolveSchemaRejectsUnknownType(t *testing.T) {
	require := require.New(t)
	cfg := &Config{Schema: []FieldConfig{{Name: "a", Type: "nope"}}}
	_, err := cfg.ResolveSchema()
	require.Error(err)
}
