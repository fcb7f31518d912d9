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

package faker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lukoou3/flowql/sql"
)

func testSchema() sql.Schema {
	return sql.Schema{
		{Name: "name", Type: sql.String},
		{Name: "age", Type: sql.Long},
		{Name: "score", Type: sql.Double},
	}
}

// captureSink records the last row Collect was given.
type captureSink struct {
	row sql.Row
}

func (c *captureSink) Collect(ctx *sql.Context, row sql.Row) error {
	c.row = row.Copy()
	return nil
}

func TestNewResolvesNamedAndDefaultGenerators(t *testing.T) {
	require := require.New(t)

	src, err := New(testSchema(), Config{
		Fields: []FieldFaker{
			{Column: "name", Kind: "name"},
			{Column: "age", Kind: "int_range", Min: 18, Max: 19},
		},
		RowsPerSecond: 1000,
	})
	require.NoError(err)
	require.Equal(testSchema(), src.Schema())

	sink := &captureSink{}
	require.Eventually(func() bool {
		ok, err := src.Poll(sql.NewEmptyContext(), sink)
		require.NoError(err)
		return ok
	}, time.Second, time.Millisecond)

	require.NotEmpty(sink.row[0].String())
	age := sink.row[1].Long()
	require.True(age == 18 || age == 19)
}

func TestPollRateLimitsToConfiguredRowsPerSecond(t *testing.T) {
	require := require.New(t)

	src, err := New(testSchema(), Config{RowsPerSecond: 5})
	require.NoError(err)

	sink := &captureSink{}
	ok, err := src.Poll(sql.NewEmptyContext(), sink)
	require.NoError(err)
	require.True(ok, "first poll always emits")

	ok, err = src.Poll(sql.NewEmptyContext(), sink)
	require.NoError(err)
	require.False(ok, "immediate second poll should be rate limited")
}

func TestNewRejectsUnknownFakerKind(t *testing.T) {
	require := require.New(t)
	_, err := New(testSchema(), Config{
		Fields: []FieldFaker{{Column: "name", Kind: "not_a_kind"}},
	})
	require.Error(err)
}
