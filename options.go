// Copyright 2026 The Covtrace Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package covtrace

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Granularity selects the unit of instrumentation the upstream pass
// produced. It is semantic only: it describes what a BlockID denotes and
// does not change any API behavior in this core.
type Granularity uint8

const (
	// Function granularity: one block per function.
	Function Granularity = iota
	// BasicBlock granularity: one block per basic block. The default.
	BasicBlock
	// Edge granularity: one block per control-flow edge.
	Edge
	// Path granularity: one block per acyclic path.
	Path
)

// String implements fmt.Stringer.
func (g Granularity) String() string {
	switch g {
	case Function:
		return "function"
	case BasicBlock:
		return "basic-block"
	case Edge:
		return "edge"
	case Path:
		return "path"
	default:
		return "unknown"
	}
}

// DefaultMaxBlocks bounds the ledger's capacity and each thread-local
// counter array when Options.MaxBlocks is zero.
const DefaultMaxBlocks = 100_000

// Options holds the knobs consumed at collector construction.
type Options struct {
	// Granularity describes the instrumentation unit. Semantic only.
	Granularity Granularity

	// Parallel signals that test execution runs on multiple worker threads.
	// It expresses intent to external schedulers; the collector's merge
	// discipline is identical either way.
	Parallel bool

	// DisableJidoka, if true, still records violations but never escalates a
	// Stop disposition into a session abort.
	DisableJidoka bool

	// CheckpointInterval is an advisory period for external schedulers that
	// trigger periodic flushes. The core itself never schedules anything.
	CheckpointInterval time.Duration

	// MaxBlocks bounds both the ledger's capacity and each thread-local
	// counter array. Defaults to DefaultMaxBlocks.
	MaxBlocks int

	// Logger for informational messages. Defaults to DefaultLogger.
	Logger Logger

	// WarnRateLimit bounds log lines per second for LogAndContinue and Warn
	// dispositions, so a hot tainted block cannot flood the log. Defaults to
	// 10/s. Stop dispositions are never throttled.
	WarnRateLimit float64

	// MergeLatency, if set, records the latency of each flush-and-merge.
	MergeLatency prometheus.Histogram
}

// EnsureDefaults ensures that the default values for all options are set if
// a valid value was not already specified, returning the options for
// chaining.
func (o *Options) EnsureDefaults() *Options {
	if o.MaxBlocks <= 0 {
		o.MaxBlocks = DefaultMaxBlocks
	}
	if o.Logger == nil {
		o.Logger = DefaultLogger{}
	}
	if o.WarnRateLimit <= 0 {
		o.WarnRateLimit = 10
	}
	return o
}
