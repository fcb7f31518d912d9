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

// Package repl implements an interactive bubbletea program that accepts one
// SQL statement per line, analyzes it against a fixed relation, and prints
// the resolved plan back.
package repl

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lukoou3/flowql/sql"
	"github.com/lukoou3/flowql/sql/analyzer"
	"github.com/lukoou3/flowql/sql/expression/function"
	"github.com/lukoou3/flowql/sql/parse"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	planStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
)

// Run starts the REPL, blocking until the user exits with ctrl+c or ctrl+d.
// relationName and schema are the fixed FROM target every typed query
// resolves against.
func Run(relationName string, schema sql.Schema) error {
	m := newModel(relationName, schema)
	p := tea.NewProgram(m)
	_, err := p.Run()
	return err
}

// entry is one evaluated line of REPL history: the query the user typed and
// either its resolved plan or the error analyzing it produced.
type entry struct {
	query string
	plan  string
	err   error
}

type model struct {
	relationName string
	schema       sql.Schema
	session      *analyzer.Session
	catalog      *sql.Catalog

	input   string
	cursor  int
	history []entry
	width   int
	height  int
}

func newModel(relationName string, schema sql.Schema) model {
	session := analyzer.NewSession()
	session.Register(relationName, schema)
	return model{
		relationName: relationName,
		schema:       schema,
		session:      session,
		catalog:      function.DefaultCatalog,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyEnter:
			m.submit()
			return m, nil
		case tea.KeyBackspace:
			if m.cursor > 0 {
				m.input = m.input[:m.cursor-1] + m.input[m.cursor:]
				m.cursor--
			}
			return m, nil
		case tea.KeyLeft:
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case tea.KeyRight:
			if m.cursor < len(m.input) {
				m.cursor++
			}
			return m, nil
		case tea.KeyRunes, tea.KeySpace:
			s := string(msg.Runes)
			if msg.Type == tea.KeySpace {
				s = " "
			}
			m.input = m.input[:m.cursor] + s + m.input[m.cursor:]
			m.cursor += len(s)
			return m, nil
		}
	}
	return m, nil
}

// submit analyzes the current input line, appends the result to history,
// and clears the input.
func (m *model) submit() {
	query := strings.TrimSpace(m.input)
	m.input = ""
	m.cursor = 0
	if query == "" {
		return
	}
	if query == "exit" || query == "quit" {
		m.history = append(m.history, entry{query: query, plan: "bye"})
		return
	}

	node, err := parse.ParseQuery(query)
	if err != nil {
		m.history = append(m.history, entry{query: query, err: fmt.Errorf("parse error: %w", err)})
		return
	}
	az := analyzer.NewAnalyzer(m.session, m.catalog)
	resolved, err := az.Analyze(node)
	if err != nil {
		m.history = append(m.history, entry{query: query, err: fmt.Errorf("analyze error: %w", err)})
		return
	}
	m.history = append(m.history, entry{query: query, plan: resolved.String()})
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("flowql sql  (relation %q, %d columns)", m.relationName, len(m.schema))))
	b.WriteString("\n\n")
	for _, e := range m.history {
		b.WriteString(promptStyle.Render("> " + e.query))
		b.WriteString("\n")
		if e.err != nil {
			b.WriteString(errorStyle.Render(e.err.Error()))
		} else {
			b.WriteString(planStyle.Render(e.plan))
		}
		b.WriteString("\n\n")
	}
	b.WriteString(promptStyle.Render("> "))
	b.WriteString(m.input[:m.cursor])
	b.WriteString("█")
	b.WriteString(m.input[m.cursor:])
	b.WriteString("\n")
	return b.String()
}
