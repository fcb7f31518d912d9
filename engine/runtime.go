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
	"container/heap"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lukoou3/flowql/sql"
)

// Chain drives one Source through a fixed list of Transforms into a Sink,
// all on the calling goroutine: Run never spawns a goroutine of its own,
// so callers that want concurrent chains run each on its own goroutine.
type Chain struct {
	// ID identifies this chain instance in logs and metrics; callers
	// typically mint it once per process with a UUID.
	ID         string
	Source     Source
	Transforms []Transform
	Sink       Sink
	Logger     logrus.FieldLogger

	timers timerHeap
}

// timerEntry is one operator's pending wake-up, ordered by timestamp so
// OnTime fires in non-decreasing order.
type timerEntry struct {
	at    int64
	index int
}

type timerHeap []timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].at < h[j].at }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x interface{}) { *h = append(*h, x.(timerEntry)) }
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// chainTimerService is the TimerService handed to one Transform; index
// identifies which transform in the chain registered a wake-up so Run
// knows whose OnTime to call.
type chainTimerService struct {
	chain *Chain
	index int
}

func (s chainTimerService) RegisterTimer(timestampMicros int64) {
	heap.Push(&s.chain.timers, timerEntry{at: timestampMicros, index: s.index})
}

// Run polls Source until ctx is done or Poll returns a terminal error,
// pushing each row through Transforms into Sink and firing any Transform's
// due timers in between polls. It logs chain lifecycle events at Debug,
// never per-row.
func (c *Chain) Run(ctx *sql.Context) error {
	c.Logger.WithField("chain_id", c.ID).Debug("engine: chain starting")
	defer c.Logger.WithField("chain_id", c.ID).Debug("engine: chain stopped")

	collectors := c.buildCollectors()
	idleBackoff := time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return c.closeAll()
		default:
		}

		if err := c.fireDueTimers(ctx, collectors); err != nil {
			return err
		}

		got, err := c.Source.Poll(ctx, collectors[0])
		if err != nil {
			c.closeAll()
			return err
		}
		if got {
			idleBackoff = time.Millisecond
			continue
		}

		wait := c.nextTimerWait()
		if wait <= 0 {
			continue
		}
		if wait > idleBackoff {
			wait = idleBackoff
		}
		time.Sleep(wait)
		if idleBackoff < 50*time.Millisecond {
			idleBackoff *= 2
		}
	}
}

// buildCollectors wires collectors[i] to feed Transforms[i]'s output into
// collectors[i+1], and the last stage into Sink; collectors[0] is what the
// Source (or a fired OnTime) writes into.
func (c *Chain) buildCollectors() []Collector {
	n := len(c.Transforms)
	collectors := make([]Collector, n+1)
	collectors[n] = CollectorFunc(func(ctx *sql.Context, row sql.Row) error {
		return c.Sink.Consume(ctx, row)
	})
	for i := n - 1; i >= 0; i-- {
		i := i
		next := collectors[i+1]
		collectors[i] = CollectorFunc(func(ctx *sql.Context, row sql.Row) error {
			timers := chainTimerService{chain: c, index: i}
			return c.Transforms[i].Process(ctx, row, next, timers)
		})
	}
	return collectors
}

func (c *Chain) fireDueTimers(ctx *sql.Context, collectors []Collector) error {
	now := time.Now().UnixMicro()
	for c.timers.Len() > 0 && c.timers[0].at <= now {
		e := heap.Pop(&c.timers).(timerEntry)
		c.Logger.WithField("transform_index", e.index).Debug("engine: timer fired")
		if err := c.Transforms[e.index].OnTime(ctx, e.at, collectors[e.index+1]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chain) nextTimerWait() time.Duration {
	if c.timers.Len() == 0 {
		return time.Millisecond
	}
	d := time.Duration(c.timers[0].at-time.Now().UnixMicro()) * time.Microsecond
	if d < 0 {
		return 0
	}
	return d
}

func (c *Chain) closeAll() error {
	var first error
	if err := c.Source.Close(); err != nil && first == nil {
		first = err
	}
	for _, t := range c.Transforms {
		if err := t.Close(); err != nil && first == nil {
			first = err
		}
	}
	if err := c.Sink.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
