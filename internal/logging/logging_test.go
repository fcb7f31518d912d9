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

package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToTextFormatterAndInfoLevel(t *testing.T) {
	require := require.New(t)

	logger, err := New(Options{})
	require.NoError(err)
	require.IsType(&logrus.TextFormatter{}, logger.Formatter)
	require.Equal(logrus.InfoLevel, logger.Level)
}

func TestNewAcceptsJSONFormat(t *testing.T) {
	require := require.New(t)

	logger, err := New(Options{Format: "json", Level: "debug"})
	require.NoError(err)
	require.IsType(&logrus.JSONFormatter{}, logger.Formatter)
	require.Equal(logrus.DebugLevel, logger.Level)
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	require := require.New(t)
	_, err := New(Options{Format: "xml"})
	require.Error(err)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	require := require.New(t)
	_, err := New(Options{Level: "not-a-level"})
	require.Error(err)
}
