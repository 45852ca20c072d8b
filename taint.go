// Copyright 2026 The Covtrace Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package covtrace

import (
	"slices"

	"github.com/cockroachdb/swiss"
)

// TaintEntry is one (block, violation) pair in the ordered taint log.
type TaintEntry struct {
	Block     BlockID
	Violation Violation
}

// TaintSet tracks which blocks have unreliable recorded data and why. It is
// independent of the ledger's hit counts: a tainted block keeps its counts,
// they are just suspect. Taint is monotonic for the life of a session; only
// an explicit Reset clears it.
//
// TaintSet is owned by the session's collector and is not safe for
// concurrent use.
type TaintSet struct {
	blocks swiss.Map[BlockID, []Violation]
	// log preserves taint order across blocks; all additionally holds
	// violations with no associated block.
	log []TaintEntry
	all []Violation
}

// Init must be called before a TaintSet can be used.
func (t *TaintSet) Init() {
	*t = TaintSet{}
	t.blocks.Init(16)
}

// Taint marks a block as unreliable, appending to the block's violation log
// and to the global log. A block may be tainted by any number of violations.
func (t *TaintSet) Taint(b BlockID, v Violation) {
	vs, _ := t.blocks.Get(b)
	t.blocks.Put(b, append(vs, v))
	t.log = append(t.log, TaintEntry{Block: b, Violation: v})
	t.all = append(t.all, v)
}

// RecordViolation is the entry point for violations that may or may not
// carry an associated block. Violations without a block are logged globally
// only.
func (t *TaintSet) RecordViolation(v Violation) {
	if b, ok := v.TaintTarget(); ok {
		t.Taint(b, v)
		return
	}
	t.all = append(t.all, v)
}

// IsTainted reports whether the block has been tainted this session.
func (t *TaintSet) IsTainted(b BlockID) bool {
	_, ok := t.blocks.Get(b)
	return ok
}

// TaintedBlocks returns the tainted blocks in ascending order.
func (t *TaintSet) TaintedBlocks() []BlockID {
	res := make([]BlockID, 0, t.blocks.Len())
	t.blocks.All(func(b BlockID, _ []Violation) bool {
		res = append(res, b)
		return true
	})
	slices.Sort(res)
	return res
}

// ViolationsFor returns the violations recorded against a block, in taint
// order. The result is nil for an untainted block.
func (t *TaintSet) ViolationsFor(b BlockID) []Violation {
	vs, _ := t.blocks.Get(b)
	return vs
}

// AllViolations returns every recorded violation, including those with no
// associated block, in record order.
func (t *TaintSet) AllViolations() []Violation {
	return t.all
}

// Log returns the ordered (block, violation) taint log.
func (t *TaintSet) Log() []TaintEntry {
	return t.log
}

// Len returns the number of tainted blocks.
func (t *TaintSet) Len() int {
	return t.blocks.Len()
}

// Reset clears all taint state. This is the only way taint is ever cleared.
func (t *TaintSet) Reset() {
	t.Init()
}
