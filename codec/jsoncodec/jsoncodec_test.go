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

package jsoncodec

import (
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

func TestSerializeSkipsNullFields(t *testing.T) {
	require := require.New(t)
	ser, err := New(testSchema())
	require.NoError(err)

	out, err := ser.Serialize(sql.NewRow(int64(1), nil, 60.5))
	require.NoError(err)
	require.JSONEq(`{"id":1,"score":60.5}`, string(out))
}

func TestRoundTrip(t *testing.T) {
	require := require.New(t)
	schema := testSchema()
	ser, err := New(schema)
	require.NoError(err)
	de, err := NewDeserializer(schema)
	require.NoError(err)

	encoded, err := ser.Serialize(sql.NewRow(int64(7), "莫南", 12.0))
	require.NoError(err)

	row, err := de.Deserialize(encoded)
	require.NoError(err)
	require.Equal(int64(7), row[0].Long())
	require.Equal("莫南", row[1].String())
	require.Equal(float64(12), row[2].Double())
}

func TestDeserializeIgnoresUnknownKeysAndMissingFieldsStayNull(t *testing.T) {
	require := require.New(t)
	de, err := NewDeserializer(testSchema())
	require.NoError(err)

	row, err := de.Deserialize([]byte(`{"id":3,"extra":"ignored"}`))
	require.NoError(err)
	require.Equal(int64(3), row[0].Long())
	require.True(row[1].IsNull())
	require.True(row[2].IsNull())
}

func TestDeserializeReusesRowAndClearsStaleValues(t *testing.T) {
	require := require.New(t)
	de, err := NewDeserializer(testSchema())
	require.NoError(err)

	first, err := de.Deserialize([]byte(`{"id":1,"name":"a"}`))
	require.NoError(err)
	require.Equal("a", first[1].String())

	second, err := de.Deserialize([]byte(`{"id":2}`))
	require.NoError(err)
	require.True(second[1].IsNull(), "name should reset to null when absent from the next record")
}
