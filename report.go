// Copyright 2026 The Covtrace Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package covtrace

import (
	"fmt"
	"iter"
	"math"
	"strings"
)

// Report is the session's authoritative coverage ledger: per-block hit
// counts, source locations and function names, the list of tests executed,
// and the violation log. Storage is flat arrays indexed by BlockID, sized to
// the session's max-blocks bound, so every access is O(1).
//
// A Report is mutated only by the collector that owns it for the session's
// duration; once EndSession returns it, it must be treated as immutable by
// report-generation consumers.
type Report struct {
	name      string
	hits      []uint64
	locations []string
	funcNames []string
	tests     []string
	// violations is the ledger's own record; the session TaintSet keeps the
	// per-block view of the same events.
	violations []Violation
	// numBlocks is one past the highest block index seen via hits or
	// metadata; it bounds iteration.
	numBlocks int
}

// BlockCoverage is one block's row in the ledger, as seen by downstream
// formatters.
type BlockCoverage struct {
	Block          BlockID
	Hits           uint64
	SourceLocation string
	FunctionName   string
}

// NewReport returns an empty ledger for the named session with capacity for
// maxBlocks blocks.
func NewReport(name string, maxBlocks int) *Report {
	return &Report{
		name:      name,
		hits:      make([]uint64, maxBlocks),
		locations: make([]string, maxBlocks),
		funcNames: make([]string, maxBlocks),
	}
}

// Name returns the session name.
func (r *Report) Name() string { return r.name }

func (r *Report) noteBlock(b BlockID) {
	if int(b)+1 > r.numBlocks {
		r.numBlocks = int(b) + 1
	}
}

// RecordHits adds n to the block's hit count. Hit counts are monotonically
// non-decreasing within a session; the add saturates rather than wrapping.
// If the block exceeds the ledger's capacity the write is not performed and
// the returned UninstrumentedExecution violation must be escalated by the
// caller; a hit is never silently dropped and never written out of bounds.
func (r *Report) RecordHits(b BlockID, n uint64) Violation {
	if int(b) >= len(r.hits) {
		return UninstrumentedExecution{Block: b}
	}
	if r.hits[b] > math.MaxUint64-n {
		r.hits[b] = math.MaxUint64
	} else {
		r.hits[b] += n
	}
	r.noteBlock(b)
	return nil
}

// SetSourceLocation records the "file:line" position of a block. Idempotent.
func (r *Report) SetSourceLocation(b BlockID, loc string) Violation {
	if int(b) >= len(r.locations) {
		return UninstrumentedExecution{Block: b}
	}
	r.locations[b] = loc
	r.noteBlock(b)
	return nil
}

// SetFunctionName records the name of the function enclosing a block.
// Idempotent.
func (r *Report) SetFunctionName(b BlockID, name string) Violation {
	if int(b) >= len(r.funcNames) {
		return UninstrumentedExecution{Block: b}
	}
	r.funcNames[b] = name
	r.noteBlock(b)
	return nil
}

// AddTest appends a test name to the executed-tests list.
func (r *Report) AddTest(name string) {
	r.tests = append(r.tests, name)
}

// RecordViolation appends to the ledger's violation log.
func (r *Report) RecordViolation(v Violation) {
	r.violations = append(r.violations, v)
}

// HitCount returns the recorded hit count for a block; zero for blocks
// beyond capacity.
func (r *Report) HitCount(b BlockID) uint64 {
	if int(b) >= len(r.hits) {
		return 0
	}
	return r.hits[b]
}

// NumBlocks returns one past the highest block index recorded in the
// ledger.
func (r *Report) NumBlocks() int { return r.numBlocks }

// Capacity returns the ledger's block capacity.
func (r *Report) Capacity() int { return len(r.hits) }

// Tests returns the executed-tests list in execution order.
func (r *Report) Tests() []string { return r.tests }

// Violations returns the ledger's violation log in record order.
func (r *Report) Violations() []Violation { return r.violations }

// All iterates the ledger's block coverages in block order.
func (r *Report) All() iter.Seq[BlockCoverage] {
	return func(yield func(BlockCoverage) bool) {
		for i := 0; i < r.numBlocks; i++ {
			bc := BlockCoverage{
				Block:          BlockID(i),
				Hits:           r.hits[i],
				SourceLocation: r.locations[i],
				FunctionName:   r.funcNames[i],
			}
			if !yield(bc) {
				return
			}
		}
	}
}

// ExecutedBlocks returns the number of blocks with a non-zero hit count.
func (r *Report) ExecutedBlocks() int {
	n := 0
	for i := 0; i < r.numBlocks; i++ {
		if r.hits[i] > 0 {
			n++
		}
	}
	return n
}

// CoveragePercent returns executed blocks as a percentage of all blocks
// known to the ledger. A ledger that saw no blocks reports zero.
func (r *Report) CoveragePercent() float64 {
	if r.numBlocks == 0 {
		return 0
	}
	return float64(r.ExecutedBlocks()) / float64(r.numBlocks) * 100
}

// String returns a short human-readable summary.
func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "session %q: %d/%d blocks executed (%.2f%%), %d tests, %d violations",
		r.name, r.ExecutedBlocks(), r.numBlocks, r.CoveragePercent(),
		len(r.tests), len(r.violations))
	return sb.String()
}
