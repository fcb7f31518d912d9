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

// Package ratestat implements a sliding-window throughput counter sampled
// by a chain's periodic status log. Readers run on a different goroutine
// than the recording chain, so SlidingWindowRateStat serializes access
// with a mutex even though the rest of the engine is single-threaded per
// chain.
package ratestat

import (
	"sync"
	"time"
)

const numBuckets = 100

// SlidingWindowRateStat tracks a rolling count over a window of
// windowSeconds, bucketed into 100 sub-windows so Rate() reflects only
// recent activity instead of an all-time average.
type SlidingWindowRateStat struct {
	mu sync.Mutex

	windowSeconds    int64
	bucketWindowMs   int64
	buckets          []uint64
	current          int
	currentWindowEnd int64 // ms
	total            uint64
}

// New returns a counter with the default 5 second window.
func New() *SlidingWindowRateStat {
	return WithWindow(5)
}

// WithWindow returns a counter over a window of windowSeconds, which must
// be in [1, 300].
func WithWindow(windowSeconds int64) *SlidingWindowRateStat {
	if windowSeconds <= 0 || windowSeconds > 300 {
		panic("ratestat: windowSeconds must be between 1 and 300")
	}
	windowMs := windowSeconds * 1000
	bucketWindowMs := windowMs / numBuckets
	bucketCount := int(windowMs / bucketWindowMs)

	nowMs := time.Now().UnixMilli()
	return &SlidingWindowRateStat{
		windowSeconds:    windowSeconds,
		bucketWindowMs:   bucketWindowMs,
		buckets:          make([]uint64, bucketCount),
		current:          bucketCount - 1,
		currentWindowEnd: nowMs / bucketWindowMs * bucketWindowMs,
	}
}

// Record adds value to the current bucket.
func (s *SlidingWindowRateStat) Record(value uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance(time.Now().UnixMilli())
	s.buckets[s.current] += value
	s.total += value
}

// RecordAndRate records value and returns the resulting per-second rate.
func (s *SlidingWindowRateStat) RecordAndRate(value uint64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance(time.Now().UnixMilli())
	s.buckets[s.current] += value
	s.total += value
	return s.total / uint64(s.windowSeconds)
}

// Rate returns the current per-second rate over the window.
func (s *SlidingWindowRateStat) Rate() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance(time.Now().UnixMilli())
	return s.total / uint64(s.windowSeconds)
}

// advance rotates buckets forward to nowMs, subtracting the value of each
// bucket it evicts from the running total.
func (s *SlidingWindowRateStat) advance(nowMs int64) {
	if nowMs <= s.currentWindowEnd {
		return
	}
	for s.currentWindowEnd < nowMs {
		s.current++
		if s.current >= len(s.buckets) {
			s.current = 0
		}
		s.total -= s.buckets[s.current]
		s.buckets[s.current] = 0
		s.currentWindowEnd += s.bucketWindowMs
	}
}
