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
	"os"

	"github.com/spf13/cobra"

	"github.com/lukoou3/flowql/cmd/flowql/repl"
	cfgpkg "github.com/lukoou3/flowql/internal/config"
	"github.com/lukoou3/flowql/sql"
)

func newSQLCommand() *cobra.Command {
	var (
		exprFlag   string
		fileFlag   string
		configFlag string
	)
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Parse and analyze a query against a config's schema, or open a REPL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cfgpkg.Load(configFlag)
			if err != nil {
				return usageError{err}
			}
			schema, err := cfg.ResolveSchema()
			if err != nil {
				return usageError{err}
			}

			switch {
			case exprFlag != "":
				return explain(exprFlag, cfg.RelationName, schema)
			case fileFlag != "":
				b, err := os.ReadFile(fileFlag)
				if err != nil {
					return usageError{err}
				}
				return explain(string(b), cfg.RelationName, schema)
			default:
				return repl.Run(cfg.RelationName, schema)
			}
		},
	}
	cmd.Flags().StringVarP(&exprFlag, "execute", "e", "", "SQL text to analyze and print the resolved plan for")
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "path to a file of SQL text")
	cmd.Flags().StringVar(&configFlag, "config", "", "path to the YAML config whose schema/relation_name the query resolves against")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func explain(sqlText, relationName string, schema sql.Schema) error {
	resolved, err := resolvePlan(sqlText, relationName, schema)
	if err != nil {
		return err
	}
	fmt.Println(resolved.String())
	return nil
}
