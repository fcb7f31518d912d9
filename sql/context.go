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

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Context carries the ambient stdlib context plus the logger the core
// hands down to expressions and operators; it is never stored, only
// threaded through call chains. There are no suspension points inside
// the core, so Context never blocks on its own.
type Context struct {
	context.Context
	Logger logrus.FieldLogger
}

// NewContext wraps a stdlib context with a logger.
func NewContext(ctx context.Context, logger logrus.FieldLogger) *Context {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Context{Context: ctx, Logger: logger}
}

// NewEmptyContext returns a background Context with the standard logger,
// used pervasively by tests.
func NewEmptyContext() *Context {
	return NewContext(context.Background(), logrus.StandardLogger())
}
