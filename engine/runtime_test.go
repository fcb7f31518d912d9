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

package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/lukoou3/flowql/sql"
)

// fakeSource emits values in order, one per Poll call, then reports no more
// rows forever, matching Source.Poll's "nothing right now" contract.
type fakeSource struct {
	mu     sync.Mutex
	values []int32
	next   int
	closed bool
}

func (s *fakeSource) Schema() sql.Schema {
	return sql.Schema{{Name: "v", Type: sql.Int}}
}

func (s *fakeSource) Poll(ctx *sql.Context, out Collector) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.values) {
		return false, nil
	}
	v := s.values[s.next]
	s.next++
	return true, out.Collect(ctx, sql.NewRow(v))
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// fakeSink records every row it consumes.
type fakeSink struct {
	mu     sync.Mutex
	rows   []sql.Row
	closed bool
}

func (s *fakeSink) Consume(ctx *sql.Context, row sql.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row.Copy())
	return nil
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSink) snapshot() []sql.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sql.Row, len(s.rows))
	copy(out, s.rows)
	return out
}

func TestChainRunThreadsRowsFromSourceToSinkWithNoTransforms(t *testing.T) {
	require := require.New(t)

	source := &fakeSource{values: []int32{1, 2, 3}}
	sink := &fakeSink{}
	chain := &Chain{
		ID:     "test-chain",
		Source: source,
		Sink:   sink,
		Logger: logrus.StandardLogger(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	sqlCtx := sql.NewContext(ctx, logrus.StandardLogger())

	err := chain.Run(sqlCtx)
	require.NoError(err, "Run treats context cancellation as a clean shutdown, not a failure")

	rows := sink.snapshot()
	require.Len(rows, 3)
	require.Equal(int32(1), rows[0][0].Int())
	require.Equal(int32(2), rows[1][0].Int())
	require.Equal(int32(3), rows[2][0].Int())

	source.mu.Lock()
	require.True(source.closed)
	source.mu.Unlock()
	sink.mu.Lock()
	require.True(sink.closed)
	sink.mu.Unlock()
}

func TestChainRunStopsOnSourcePollError(t *testing.T) {
	require := require.New(t)

	boom := &erroringSource{}
	sink := &fakeSink{}
	chain := &Chain{
		Source: boom,
		Sink:   sink,
		Logger: logrus.StandardLogger(),
	}

	err := chain.Run(sql.NewEmptyContext())
	require.Error(err)
	require.Contains(err.Error(), "boom")
}

type erroringSource struct{}

func (erroringSource) Schema() sql.Schema { return sql.Schema{{Name: "v", Type: sql.Int}} }
func (erroringSource) Poll(ctx *sql.Context, out Collector) (bool, error) {
	return false, errBoom
}
func (erroringSource) Close() error { return nil }

var errBoom = &boomError{}

type boomError struct{}

func (*boomError) Error() string { return "boom" }
