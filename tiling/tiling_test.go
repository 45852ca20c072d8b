// Copyright 2026 The Covtrace Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package tiling

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/covtrace/covtrace"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestBuilderDataDriven(t *testing.T) {
	builder := NewBuilder(0, 0)
	var built []*Superblock

	datadriven.RunTest(t, "testdata/build", func(t *testing.T, td *datadriven.TestData) string {
		var buf bytes.Buffer
		switch td.Cmd {
		case "new":
			target, max := 0, 0
			td.MaybeScanArgs(t, "target", &target)
			td.MaybeScanArgs(t, "max", &max)
			builder = NewBuilder(target, max)
			built = nil
			fmt.Fprintf(&buf, "chunk-size=%d\n", builder.ChunkSize())

		case "resize":
			var n int
			if td.MaybeScanArgs(t, "target", &n) {
				builder.SetTargetSize(n)
			}
			if td.MaybeScanArgs(t, "max", &n) {
				builder.SetMaxSize(n)
			}
			fmt.Fprintf(&buf, "chunk-size=%d\n", builder.ChunkSize())

		case "build":
			var funcs []FunctionBlocks
			for _, line := range strings.Split(strings.TrimSpace(td.Input), "\n") {
				funcs = append(funcs, parseFunctionBlocks(t, td, line))
			}
			sbs := builder.Build(funcs)
			built = append(built, sbs...)
			if len(sbs) == 0 {
				buf.WriteString("(no superblocks)\n")
			}
			for _, sb := range sbs {
				fmt.Fprintf(&buf, "%s(%s): %v cost=%d\n",
					sb.ID(), sb.Function(), sb.Blocks(), sb.EstimatedCost())
			}

		case "next-id":
			fmt.Fprintf(&buf, "%s\n", builder.NextID())

		case "contains":
			var idx, blk int
			td.ScanArgs(t, "sb", &idx)
			td.ScanArgs(t, "block", &blk)
			fmt.Fprintf(&buf, "%t\n", built[idx].Contains(covtrace.BlockID(blk)))

		default:
			td.Fatalf(t, "unknown command %q", td.Cmd)
		}
		return buf.String()
	})
}

// parseFunctionBlocks parses a line like "fn=1 blocks=0-9" or
// "fn=2 blocks=3,7,11".
func parseFunctionBlocks(t *testing.T, td *datadriven.TestData, line string) FunctionBlocks {
	var fb FunctionBlocks
	for _, field := range strings.Fields(line) {
		key, val, ok := strings.Cut(field, "=")
		if !ok {
			td.Fatalf(t, "bad field %q", field)
		}
		switch key {
		case "fn":
			n, err := strconv.Atoi(val)
			if err != nil {
				td.Fatalf(t, "bad fn %q: %v", val, err)
			}
			fb.Function = covtrace.FunctionID(n)
		case "blocks":
			fb.Blocks = parseBlocks(t, td, val)
		default:
			td.Fatalf(t, "unknown key %q", key)
		}
	}
	return fb
}

func parseBlocks(t *testing.T, td *datadriven.TestData, s string) []covtrace.BlockID {
	if s == "" {
		return nil
	}
	var blocks []covtrace.BlockID
	if lo, hi, ok := strings.Cut(s, "-"); ok {
		a, err := strconv.Atoi(lo)
		if err != nil {
			td.Fatalf(t, "bad range %q: %v", s, err)
		}
		b, err := strconv.Atoi(hi)
		if err != nil {
			td.Fatalf(t, "bad range %q: %v", s, err)
		}
		for i := a; i <= b; i++ {
			blocks = append(blocks, covtrace.BlockID(i))
		}
		return blocks
	}
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(part)
		if err != nil {
			td.Fatalf(t, "bad block %q: %v", part, err)
		}
		blocks = append(blocks, covtrace.BlockID(n))
	}
	return blocks
}

// TestBuilderTotality checks, over random inputs, that building partitions
// the input exactly: every block appears in exactly one superblock, order is
// preserved, and no superblock exceeds min(target, max).
func TestBuilderTotality(t *testing.T) {
	rng := rand.New(rand.NewSource(20260829))
	for i := 0; i < 200; i++ {
		target := 1 + rng.Intn(10)
		max := 1 + rng.Intn(10)
		b := NewBuilder(target, max)

		n := rng.Intn(100)
		blocks := make([]covtrace.BlockID, n)
		for j := range blocks {
			blocks[j] = covtrace.BlockID(rng.Intn(1 << 20))
		}

		sbs := b.BuildFromBlocks(7, blocks)
		var flat []covtrace.BlockID
		for _, sb := range sbs {
			require.LessOrEqual(t, sb.Len(), min(target, max))
			require.Positive(t, sb.Len())
			require.Equal(t, covtrace.FunctionID(7), sb.Function())
			require.Equal(t, uint64(sb.Len()), sb.EstimatedCost())
			for _, blk := range sb.Blocks() {
				require.True(t, sb.Contains(blk))
			}
			flat = append(flat, sb.Blocks()...)
		}
		require.Equal(t, blocks, flat)
		if n == 0 {
			require.Empty(t, sbs)
		}
	}
}

func TestBuilderMonotonicIDs(t *testing.T) {
	b := NewBuilder(2, 2)
	require.Equal(t, SuperblockID(0), b.NextID())

	sbs := b.BuildFromBlocks(1, []covtrace.BlockID{0, 1, 2})
	require.Len(t, sbs, 2)
	require.Equal(t, SuperblockID(2), b.NextID())

	// Resizing does not reset numbering.
	b.SetTargetSize(5)
	sbs = b.BuildFromBlocks(2, []covtrace.BlockID{3})
	require.Equal(t, SuperblockID(2), sbs[0].ID())
	require.Equal(t, SuperblockID(3), b.NextID())
}

func TestSuperblockCostOverride(t *testing.T) {
	b := NewBuilder(4, 4)
	sb := b.BuildFromBlocks(1, []covtrace.BlockID{0, 1, 2})[0]
	require.Equal(t, uint64(3), sb.EstimatedCost())

	// External profiling may override the block-count default.
	sb.SetEstimatedCost(1700)
	require.Equal(t, uint64(1700), sb.EstimatedCost())
	require.Equal(t, "sb0(f1: 3 blocks, cost 1700)", sb.String())
}
