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

// Package config loads and validates the YAML document describing one run
// of the engine: its schema, codec, connector, and trigger settings,
// mirroring the original Rust ExecutionConfig.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/lukoou3/flowql/sql"
)

// FieldConfig describes one schema column.
type FieldConfig struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Nullable bool   `yaml:"nullable"`
}

// CodecConfig names a codec and carries its codec-specific options as a
// raw map, left to the codec package to interpret.
type CodecConfig struct {
	Name    string                 `yaml:"name"`
	Options map[string]interface{} `yaml:"options"`
}

// ConnectorConfig names a connector (source or sink) and carries its
// connector-specific options the same way.
type ConnectorConfig struct {
	Name    string                 `yaml:"name"`
	Options map[string]interface{} `yaml:"options"`
}

// Config is the top-level execution config: SQL text, schema, triggers,
// and the source/sink connector + codec pairing.
type Config struct {
	SQL           string          `yaml:"sql"`
	RelationName  string          `yaml:"relation_name"`
	Schema        []FieldConfig   `yaml:"schema"`
	RowsPerSecond int             `yaml:"rows_per_second"`
	MaxRows       int             `yaml:"max_rows"`
	IntervalMs    int64           `yaml:"interval_ms"`
	Parallelism   int             `yaml:"parallelism"`
	Source        ConnectorConfig `yaml:"source"`
	SourceCodec   CodecConfig     `yaml:"source_codec"`
	Sink          ConnectorConfig `yaml:"sink"`
	SinkCodec     CodecConfig     `yaml:"sink_codec"`
	// MetricsAddr, if set, serves Prometheus metrics over HTTP at /metrics
	// on this address for the lifetime of the run.
	MetricsAddr string `yaml:"metrics_addr"`
}

// Load reads and parses the YAML config at path, then validates it.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("flowql: config: reading %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("flowql: config: parsing %s: %w", path, err)
	}
	if cfg.RelationName == "" {
		cfg.RelationName = "input"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the four integer fields are positive, per the runtime
// config contract.
func (c *Config) Validate() error {
	if c.RowsPerSecond <= 0 {
		return sql.ErrBadArguments.New("rows_per_second must be positive, got " + fmt.Sprint(c.RowsPerSecond))
	}
	if c.MaxRows <= 0 {
		return sql.ErrBadArguments.New("max_rows must be positive, got " + fmt.Sprint(c.MaxRows))
	}
	if c.IntervalMs <= 0 {
		return sql.ErrBadArguments.New("interval_ms must be positive, got " + fmt.Sprint(c.IntervalMs))
	}
	if c.Parallelism <= 0 {
		return sql.ErrBadArguments.New("parallelism must be positive, got " + fmt.Sprint(c.Parallelism))
	}
	return nil
}

// ResolveSchema converts the YAML field list into a sql.Schema.
func (c *Config) ResolveSchema() (sql.Schema, error) {
	schema := make(sql.Schema, len(c.Schema))
	for i, f := range c.Schema {
		typ, err := parseType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("flowql: config: field %q: %w", f.Name, err)
		}
		schema[i] = sql.Field{Name: f.Name, Type: typ, Nullable: f.Nullable}
	}
	return schema, nil
}

func parseType(name string) (sql.Type, error) {
	switch name {
	case "int":
		return sql.Int, nil
	case "long":
		return sql.Long, nil
	case "float":
		return sql.Float, nil
	case "double":
		return sql.Double, nil
	case "string":
		return sql.String, nil
	case "boolean":
		return sql.Boolean, nil
	case "binary":
		return sql.Binary, nil
	case "timestamp":
		return sql.Timestamp, nil
	case "date":
		return sql.Date, nil
	default:
		return nil, fmt.Errorf("unknown type %q", name)
	}
}
