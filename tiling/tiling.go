// Copyright 2026 The Covtrace Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package tiling groups fine-grained instrumented blocks into superblocks,
// coarser schedulable units. A basic block may represent only a few
// instructions; if a scheduler coordinates work at that granularity, the
// coordination overhead exceeds the work itself. Chunking consecutive
// blocks into superblocks amortizes it.
//
// Superblocks are build-time artifacts: they are recomputed whenever the
// instrumented block set changes and are consulted by schedulers before
// execution, never on the measurement hot path. Once built they are
// read-only and may be shared freely across threads.
package tiling

import (
	"fmt"

	"github.com/cockroachdb/redact"
	"github.com/cockroachdb/swiss"
	"github.com/covtrace/covtrace"
)

// SuperblockID identifies one superblock. IDs are allocated monotonically
// by a Builder and form a namespace distinct from covtrace.BlockID; the two
// are never compared.
type SuperblockID uint32

// SafeFormat implements redact.SafeFormatter.
func (id SuperblockID) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("sb%d", redact.SafeUint(id))
}

// String implements fmt.Stringer.
func (id SuperblockID) String() string {
	return redact.StringWithoutMarkers(id)
}

// DefaultTargetSize is the superblock size a Builder aims for.
const DefaultTargetSize = 64

// DefaultMaxSize is the hard ceiling on superblock size.
const DefaultMaxSize = 256

// Superblock is an ordered set of blocks from a single function, treated as
// one schedulable unit. Block order within a superblock mirrors the input
// order, which signals intended program locality; there is no rebalancing
// or reordering after chunking.
type Superblock struct {
	id       SuperblockID
	function covtrace.FunctionID
	blocks   []covtrace.BlockID
	members  swiss.Map[covtrace.BlockID, struct{}]
	// estimatedCost defaults to the block count and may be overridden by
	// external profiling. The override is not lock-protected: it is expected
	// to happen during build preparation, before the superblock is shared.
	estimatedCost uint64
}

func newSuperblock(id SuperblockID, fn covtrace.FunctionID, blocks []covtrace.BlockID) *Superblock {
	sb := &Superblock{
		id:            id,
		function:      fn,
		blocks:        blocks,
		estimatedCost: uint64(len(blocks)),
	}
	sb.members.Init(len(blocks))
	for _, b := range blocks {
		sb.members.Put(b, struct{}{})
	}
	return sb
}

// ID returns the superblock's identifier.
func (sb *Superblock) ID() SuperblockID { return sb.id }

// Function returns the enclosing function.
func (sb *Superblock) Function() covtrace.FunctionID { return sb.function }

// Blocks returns the member blocks in input order. The returned slice must
// not be mutated.
func (sb *Superblock) Blocks() []covtrace.BlockID { return sb.blocks }

// Len returns the number of member blocks.
func (sb *Superblock) Len() int { return len(sb.blocks) }

// Contains reports in O(1) whether the block belongs to this superblock.
func (sb *Superblock) Contains(b covtrace.BlockID) bool {
	_, ok := sb.members.Get(b)
	return ok
}

// EstimatedCost returns the superblock's estimated execution cost. It
// defaults to the block count.
func (sb *Superblock) EstimatedCost() uint64 { return sb.estimatedCost }

// SetEstimatedCost overrides the estimated execution cost with a value from
// external profiling.
func (sb *Superblock) SetEstimatedCost(cost uint64) { sb.estimatedCost = cost }

// String implements fmt.Stringer.
func (sb *Superblock) String() string {
	return fmt.Sprintf("%s(%s: %d blocks, cost %d)", sb.id, sb.function, len(sb.blocks), sb.estimatedCost)
}

// FunctionBlocks pairs a function with its ordered block sequence, for
// batch construction.
type FunctionBlocks struct {
	Function covtrace.FunctionID
	Blocks   []covtrace.BlockID
}

// Builder partitions block sequences into superblocks. IDs are allocated
// monotonically for the builder's lifetime: resizing after some IDs have
// been handed out continues numbering from the next unused ordinal.
//
// Builder is not safe for concurrent use.
type Builder struct {
	targetSize int
	maxSize    int
	nextID     SuperblockID
}

// NewBuilder returns a Builder with the given target and maximum superblock
// sizes. Non-positive values select the defaults.
func NewBuilder(targetSize, maxSize int) *Builder {
	b := &Builder{}
	b.SetTargetSize(targetSize)
	b.SetMaxSize(maxSize)
	return b
}

// SetTargetSize changes the target size for subsequent builds. Non-positive
// values select the default.
func (b *Builder) SetTargetSize(n int) {
	if n <= 0 {
		n = DefaultTargetSize
	}
	b.targetSize = n
}

// SetMaxSize changes the hard maximum for subsequent builds. Non-positive
// values select the default.
func (b *Builder) SetMaxSize(n int) {
	if n <= 0 {
		n = DefaultMaxSize
	}
	b.maxSize = n
}

// ChunkSize returns the effective superblock size, min(target, max).
func (b *Builder) ChunkSize() int {
	return min(b.targetSize, b.maxSize)
}

// NextID returns the next SuperblockID the builder will allocate.
func (b *Builder) NextID() SuperblockID { return b.nextID }

// BuildFromBlocks partitions one function's ordered block sequence into
// superblocks of ChunkSize consecutive blocks. Every input block lands in
// exactly one superblock; concatenating the outputs in order reproduces the
// input. An empty sequence yields no superblocks.
func (b *Builder) BuildFromBlocks(
	fn covtrace.FunctionID, blocks []covtrace.BlockID,
) []*Superblock {
	if len(blocks) == 0 {
		return nil
	}
	chunk := b.ChunkSize()
	res := make([]*Superblock, 0, (len(blocks)+chunk-1)/chunk)
	for start := 0; start < len(blocks); start += chunk {
		end := min(start+chunk, len(blocks))
		res = append(res, newSuperblock(b.nextID, fn, blocks[start:end:end]))
		b.nextID++
	}
	return res
}

// Build partitions a batch of functions, preserving both function order and
// block order. A superblock never spans two functions.
func (b *Builder) Build(funcs []FunctionBlocks) []*Superblock {
	var res []*Superblock
	for _, fb := range funcs {
		res = append(res, b.BuildFromBlocks(fb.Function, fb.Blocks)...)
	}
	return res
}
