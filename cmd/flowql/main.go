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

// Command flowql runs and inspects streaming ETL pipelines described by a
// YAML config and a SQL statement.
package main

import "os"

func main() {
	os.Exit(run())
}

// run returns the process exit code: 0 success, 1 runtime failure, 2
// usage/config error.
func run() int {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		if _, ok := err.(usageError); ok {
			return 2
		}
		return 1
	}
	return 0
}
