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

package analyzer

import (
	"strings"
	"sync"

	"github.com/lukoou3/flowql/sql"
)

// Session holds the set of named relations (streams, tables, temp views)
// visible to ResolveRelations; one Session is shared by every query
// compiled in a process.
type Session struct {
	mu        sync.RWMutex
	relations map[string]sql.Schema
}

func NewSession() *Session {
	return &Session{relations: make(map[string]sql.Schema)}
}

// Register makes name resolvable with the given output schema. Re-
// registering a name replaces its schema.
func (s *Session) Register(name string, schema sql.Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relations[strings.ToLower(name)] = schema
}

// Lookup returns name's schema and whether it is registered.
func (s *Session) Lookup(name string) (sql.Schema, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schema, ok := s.relations[strings.ToLower(name)]
	return schema, ok
}
