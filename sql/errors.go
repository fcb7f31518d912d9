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

import "gopkg.in/src-d/go-errors.v1"

// Error kinds. Each is a distinct *errors.Kind so callers can test
// provenance with Kind.Is(err) rather than string matching.
var (
	// ErrParse is returned when the grammar rejects input.
	ErrParse = errors.NewKind("parse error: %s")
	// ErrResolution is returned when name/function/type resolution fails
	// during analysis or post-analysis validation.
	ErrResolution = errors.NewKind("resolution error: %s")
	// ErrType is returned when check_input_data_types rejects operand
	// types.
	ErrType = errors.NewKind("type error: %s")
	// ErrBadArguments is returned when a function builder rejects arity
	// or shape.
	ErrBadArguments = errors.NewKind("bad arguments: %s")
	// ErrUnknownFunction is returned on a function registry miss.
	ErrUnknownFunction = errors.NewKind("unknown function: %s")
	// ErrEvaluation is returned for runtime errors not covered by null
	// propagation (codec-layer errors surfacing through the core).
	ErrEvaluation = errors.NewKind("evaluation error: %s")
	// ErrRuntime is returned for I/O or operator-level failures that pass
	// through the core's error type.
	ErrRuntime = errors.NewKind("runtime error: %s")
)
