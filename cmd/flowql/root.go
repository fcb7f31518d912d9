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
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lukoou3/flowql/internal/logging"
)

// usageError marks an error that should exit with code 2 (bad invocation
// or config) rather than 1 (runtime failure).
type usageError struct{ error }

var (
	logFormat string
	logLevel  string
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "flowql",
		Short: "Run and inspect streaming ETL pipelines",
	}
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format: text or json")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")
	_ = viper.BindPFlag("log-format", root.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newRunCommand())
	root.AddCommand(newSQLCommand())
	root.AddCommand(newKafkaCommand())
	return root
}

func newLogger() (*logrus.Logger, error) {
	return logging.New(logging.Options{Format: logFormat, Level: logLevel})
}
