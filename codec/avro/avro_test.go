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

package avro

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

func TestRoundTrip(t *testing.T) {
	require := require.New(t)
	schema := testSchema()
	ser, err := New(schema)
	require.NoError(err)
	de, err := NewDeserializer(schema)
	require.NoError(err)

	encoded, err := ser.Serialize(sql.NewRow(int64(11), "bob", nil))
	require.NoError(err)

	row, err := de.Deserialize(encoded)
	require.NoError(err)
	require.Equal(int64(11), row[0].Long())
	require.Equal("bob", row[1].String())
	require.True(row[2].IsNull())
}

func TestRoundTripAllNullOptionalFields(t *testing.T) {
	require := require.New(t)
	schema := testSchema()
	ser, err := New(schema)
	require.NoError(err)
	de, err := NewDeserializer(schema)
	require.NoError(err)

	encoded, err := ser.Serialize(sql.NewRow(int64(0), nil, nil))
	require.NoError(err)

	row, err := de.Deserialize(encoded)
	require.NoError(err)
	require.True(row[1].IsNull())
	require.True(row[2].IsNull())
}

func TestRoundTripNestedStructAndArray(t *testing.T) {
	require := require.New(t)
	inner := sql.NewStructType(sql.Fields{{Name: "x", Type: sql.Int}})
	schema := sql.Schema{
		{Name: "tags", Type: sql.NewArrayType(sql.String)},
		{Name: "point", Type: inner, Nullable: true},
	}
	ser, err := New(schema)
	require.NoError(err)
	de, err := NewDeserializer(schema)
	require.NoError(err)

	row := sql.NewRow(
		sql.ArrayValue([]sql.Value{sql.StringValue("a"), sql.StringValue("b")}),
		sql.StructValue(sql.NewRow(int32(7))),
	)
	encoded, err := ser.Serialize(row)
	require.NoError(err)

	out, err := de.Deserialize(encoded)
	require.NoError(err)
	require.Equal(2, len(out[0].Array()))
	require.Equal("a", out[0].Array()[0].String())
	require.Equal(int32(7), out[1].Struct()[0].Int())
}

func TestDeserializeReusesRowAndClearsStaleValues(t *testing.T) {
	require := require.New(t)
	schema := testSchema()
	ser, err := New(schema)
	require.NoError(err)
	de, err := NewDeserializer(schema)
	require.NoError(err)

	first, err := ser.Serialize(sql.NewRow(int64(1), "a", 2.0))
	require.NoError(err)
	row1, err := de.Deserialize(first)
	require.NoError(err)
	require.Equal("a", row1[1].String())

	second, err := ser.Serialize(sql.NewRow(int64(2), nil, nil))
	require.NoError(err)
	row2, err := de.Deserialize(second)
	require.NoError(err)
	require.True(row2[1].IsNull())
	require.True(row2[2].IsNull())
}
