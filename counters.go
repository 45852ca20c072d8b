// Copyright 2026 The Covtrace Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package covtrace

import (
	"math"
	"slices"

	"github.com/covtrace/covtrace/internal/invariants"
)

// Counters is a per-thread hit accumulator: a flat array of saturating
// counters indexed by BlockID, sized to the session's max-blocks bound.
//
// Inc is the instrumentation hot path. It takes no locks and makes no
// cross-thread visibility promises; hits become visible in the ledger only
// after the owning thread's Flush is merged by the collector. A Counters
// must never be shared across threads: each worker receives its own from
// Collector.NewCounters and retains exclusive ownership until it is drained.
type Counters struct {
	counts []uint64
	// touched holds the blocks with a non-zero count, in first-touch order.
	// It keeps Flush proportional to the number of distinct blocks hit
	// rather than the counter capacity.
	touched    []BlockID
	overflowed []BlockID
	outOfRange []BlockID
}

// Hit is one drained (block, count) pair.
type Hit struct {
	Block BlockID
	Count uint64
}

// FlushResult carries everything drained from a Counters: the non-zero
// counts plus the anomalies observed since the previous flush. The caller is
// responsible for escalating Overflowed into CounterOverflow violations and
// OutOfRange into UninstrumentedExecution violations.
type FlushResult struct {
	Hits       []Hit
	Overflowed []BlockID
	OutOfRange []BlockID
}

func newCounters(maxBlocks int) *Counters {
	return &Counters{counts: make([]uint64, maxBlocks)}
}

// Inc increments the counter for a block by one. The add saturates: a
// counter that reaches the numeric maximum stays there and the saturation is
// reported through the next Flush as a CounterOverflow, never as a panic.
// A block beyond the configured capacity is remembered for escalation
// rather than written out of bounds.
func (c *Counters) Inc(b BlockID) {
	if int(b) >= len(c.counts) {
		if !slices.Contains(c.outOfRange, b) {
			c.outOfRange = append(c.outOfRange, b)
		}
		return
	}
	invariants.CheckBounds(int(b), len(c.counts))
	switch c.counts[b] {
	case 0:
		c.touched = append(c.touched, b)
		c.counts[b] = 1
	case math.MaxUint64:
		// Saturated; the overflow was recorded when we got here.
	default:
		c.counts[b]++
		if c.counts[b] == math.MaxUint64 {
			c.overflowed = append(c.overflowed, b)
		}
	}
}

// Count returns the current private count for a block, for introspection and
// tests. It does not drain.
func (c *Counters) Count(b BlockID) uint64 {
	if int(b) >= len(c.counts) {
		return 0
	}
	return c.counts[b]
}

// Flush atomically (with respect to the owning thread) reads and zeroes all
// non-zero counters, returning them in ascending block order. Flushing twice
// with no intervening increments yields an empty result: the drain is
// destructive.
func (c *Counters) Flush() FlushResult {
	slices.Sort(c.touched)
	res := FlushResult{
		Hits:       make([]Hit, 0, len(c.touched)),
		Overflowed: c.overflowed,
		OutOfRange: c.outOfRange,
	}
	for _, b := range c.touched {
		res.Hits = append(res.Hits, Hit{Block: b, Count: c.counts[b]})
		c.counts[b] = 0
	}
	c.touched = c.touched[:0]
	c.overflowed = nil
	c.outOfRange = nil
	return res
}

// Capacity returns the counter array's block capacity.
func (c *Counters) Capacity() int {
	return len(c.counts)
}
