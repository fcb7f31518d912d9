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

// Package print is a trivial Sink that serializes each row and writes it
// to stdout (the default mode), through the ambient logger (debug,
// log_info, log_warn modes) or nowhere (null mode), used in examples and
// smoke tests.
package print

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lukoou3/flowql/codec"
	"github.com/lukoou3/flowql/sql"
)

// Mode selects where a serialized row goes.
type Mode int

const (
	ModeStdout Mode = iota
	ModeDebug
	ModeLogInfo
	ModeLogWarn
	ModeNull
)

func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "stdout":
		return ModeStdout, nil
	case "debug":
		return ModeDebug, nil
	case "log_info":
		return ModeLogInfo, nil
	case "log_warn":
		return ModeLogWarn, nil
	case "null":
		return ModeNull, nil
	default:
		return 0, fmt.Errorf("flowql: print: invalid mode %q", s)
	}
}

// Sink serializes each row with ser and writes the result per mode.
type Sink struct {
	ser    codec.Serializer
	mode   Mode
	logger logrus.FieldLogger
}

func New(ser codec.Serializer, mode Mode, logger logrus.FieldLogger) *Sink {
	return &Sink{ser: ser, mode: mode, logger: logger}
}

func (s *Sink) Consume(ctx *sql.Context, row sql.Row) error {
	b, err := s.ser.Serialize(row)
	if err != nil {
		s.write(fmt.Sprintf("serialize error: %v", err))
		return nil
	}
	s.write(string(b))
	return nil
}

func (s *Sink) write(line string) {
	switch s.mode {
	case ModeStdout:
		fmt.Println(line)
	case ModeDebug:
		s.logger.Debug(line)
	case ModeLogInfo:
		s.logger.Info(line)
	case ModeLogWarn:
		s.logger.Warn(line)
	case ModeNull:
	}
}

func (s *Sink) Close() error { return s.ser.Close() }
