// Copyright 2026 The Covtrace Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package covtrace

import "github.com/cockroachdb/redact"

// BlockID identifies one instrumented region of code. IDs are dense
// ordinals, assigned from 0 by the upstream instrumentation pass, and are
// used directly as indexes into the session's flat counter and ledger
// arrays. An ID is never reused within a session.
type BlockID uint32

// SafeFormat implements redact.SafeFormatter.
func (b BlockID) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("b%d", redact.SafeUint(b))
}

// String implements fmt.Stringer.
func (b BlockID) String() string {
	return redact.StringWithoutMarkers(b)
}

// FunctionID identifies the function enclosing a block. It exists purely for
// grouping and locality; many BlockIDs map to one FunctionID, and nothing in
// the core ever dereferences it.
type FunctionID uint32

// SafeFormat implements redact.SafeFormatter.
func (f FunctionID) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("f%d", redact.SafeUint(f))
}

// String implements fmt.Stringer.
func (f FunctionID) String() string {
	return redact.StringWithoutMarkers(f)
}
