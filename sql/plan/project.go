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

package plan

import (
	"fmt"
	"strings"

	"github.com/lukoou3/flowql/sql"
)

// Project evaluates Projections against its child's output, producing one
// output row per input row with a possibly different column set.
type Project struct {
	Projections []sql.Expression
	Child       sql.Node
}

func NewProject(projections []sql.Expression, child sql.Node) *Project {
	return &Project{Projections: projections, Child: child}
}

func (p *Project) Resolved() bool {
	if !p.Child.Resolved() {
		return false
	}
	for _, e := range p.Projections {
		if !e.Resolved() {
			return false
		}
	}
	return true
}
func (p *Project) Schema() sql.Schema   { return schemaOf(p.Projections) }
func (p *Project) Children() []sql.Node { return []sql.Node{p.Child} }
func (p *Project) WithChildren(children []sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("flowql: Project takes exactly 1 child, got %d", len(children))
	}
	return &Project{Projections: p.Projections, Child: children[0]}, nil
}
func (p *Project) Expressions() []sql.Expression { return p.Projections }
func (p *Project) WithExpressions(e []sql.Expression) (sql.Node, error) {
	return &Project{Projections: e, Child: p.Child}, nil
}
func (p *Project) String() string {
	parts := make([]string, len(p.Projections))
	for i, e := range p.Projections {
		parts[i] = e.String()
	}
	return fmt.Sprintf("Project(%s)\n  %s", strings.Join(parts, ", "), p.Child)
}
