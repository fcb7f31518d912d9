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

package sql

// Schema is an ordered sequence of fields describing a plan's output or an
// external row format.
type Schema []Field

// ToStruct projects the schema onto a Struct type.
func (s Schema) ToStruct() StructType {
	fields := make(Fields, len(s))
	for i, f := range s {
		fields[i] = Field{Name: f.Name, Type: f.Type}
	}
	return NewStructType(fields)
}

// IndexOf returns the position of the first field named name, or -1.
func (s Schema) IndexOf(name string) int {
	for i, f := range s {
		if f.Name == name {
			return i
		}
	}
	return -1
}
