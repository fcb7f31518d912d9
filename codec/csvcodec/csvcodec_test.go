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

package csvcodec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lukoou3/flowql/sql"
)

func testSchema() sql.Schema {
	return sql.Schema{
		{Name: "id", Type: sql.Long},
		{Name: "name", Type: sql.String, Nullable: true},
		{Name: "score", Type: sql.Double, Nullable: true},
	}
}

func TestRoundTrip(t *testing.T) {
	require := require.New(t)
	schema := testSchema()
	ser, err := New(schema)
	require.NoError(err)
	de, err := NewDeserializer(schema)
	require.NoError(err)

	out, err := ser.Serialize(sql.NewRow(int64(1), "a,b", 2.5))
	require.NoError(err)
	require.True(strings.HasPrefix(string(out), "1,"))

	row, err := de.Deserialize(out)
	require.NoError(err)
	require.Equal(int64(1), row[0].Long())
	require.Equal("a,b", row[1].String())
	require.Equal(2.5, row[2].Double())
}

func TestEmptyFieldDeserializesToNull(t *testing.T) {
	require := require.New(t)
	de, err := NewDeserializer(testSchema())
	require.NoError(err)

	row, err := de.Deserialize([]byte("1,,\n"))
	require.NoError(err)
	require.Equal(int64(1), row[0].Long())
	require.True(row[1].IsNull())
	require.True(row[2].IsNull())
}
