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

package rawcodec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lukoou3/flowql/sql"
)

func TestRoundTripString(t *testing.T) {
	require := require.New(t)
	schema := sql.Schema{{Name: "line", Type: sql.String}}
	ser, err := New(schema)
	require.NoError(err)
	de, err := NewDeserializer(schema)
	require.NoError(err)

	encoded, err := ser.Serialize(sql.NewRow("hello world"))
	require.NoError(err)
	require.Equal("hello world", string(encoded))

	row, err := de.Deserialize(encoded)
	require.NoError(err)
	require.Equal("hello world", row[0].String())
}

func TestRoundTripBinary(t *testing.T) {
	require := require.New(t)
	schema := sql.Schema{{Name: "payload", Type: sql.Binary}}
	ser, err := New(schema)
	require.NoError(err)
	de, err := NewDeserializer(schema)
	require.NoError(err)

	data := []byte{0x01, 0x02, 0xff}
	encoded, err := ser.Serialize(sql.NewRow(data))
	require.NoError(err)

	row, err := de.Deserialize(encoded)
	require.NoError(err)
	require.Equal(data, row[0].Binary())
}

func TestRejectsWrongShapedSchema(t *testing.T) {
	require := require.New(t)
	_, err := New(sql.Schema{{Name: "a", Type: sql.Int}})
	require.Error(err)

	_, err = New(sql.Schema{
		{Name: "a", Type: sql.String},
		{Name: "b", Type: sql.String},
	})
	require.Error(err)
}
