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

// Package logging configures the process-wide logrus logger the CLI hands
// down into the engine and connectors.
package logging

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Options configures New.
type Options struct {
	Format string // "json" or "text"
	Level  string // logrus level name, defaults to "info"
}

// New builds a *logrus.Logger per opts, writing to stderr so stdout stays
// free for the REPL and "sql" subcommand's own output.
func New(opts Options) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	switch opts.Format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("flowql: logging: unknown format %q", opts.Format)
	}

	level := opts.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("flowql: logging: %w", err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}
