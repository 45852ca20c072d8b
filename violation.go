// Copyright 2026 The Covtrace Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package covtrace

import (
	"fmt"

	"github.com/cockroachdb/redact"
)

// Violation describes one anomaly detected while recording coverage.
// Abnormal recording conditions are represented as values, never as panics:
// a violation during one block's recording must not abort recording for
// unrelated blocks.
//
// The concrete types are UninstrumentedExecution, CounterOverflow,
// ImpossibleEdge and CoverageRegression. Classify maps each to its fixed
// disposition.
type Violation interface {
	redact.SafeFormatter
	fmt.Stringer

	// TaintTarget returns the block whose recorded data the violation calls
	// into question, and true; or false when the violation carries no
	// specific block (CoverageRegression) and is logged globally only.
	TaintTarget() (BlockID, bool)
}

// UninstrumentedExecution reports that a region executed which the
// instrumentation build did not know about. The whole instrumentation map is
// suspect.
type UninstrumentedExecution struct {
	Block BlockID
}

// CounterOverflow reports that a block's hit counter saturated. Precision is
// degraded for that block only.
type CounterOverflow struct {
	Block BlockID
}

// ImpossibleEdge reports that a control-flow edge fired which static
// analysis proved unreachable. The control-flow model itself is wrong.
type ImpossibleEdge struct {
	From, To BlockID
}

// CoverageRegression reports that observed coverage fell below an expected
// level. This is a quality signal, not a recording-correctness failure.
type CoverageRegression struct {
	ExpectedPercent float64
	ActualPercent   float64
}

// TaintTarget implements Violation.
func (v UninstrumentedExecution) TaintTarget() (BlockID, bool) { return v.Block, true }

// TaintTarget implements Violation.
func (v CounterOverflow) TaintTarget() (BlockID, bool) { return v.Block, true }

// TaintTarget implements Violation. An impossible edge taints its
// destination block: the hit recorded there is the one that cannot be
// trusted.
func (v ImpossibleEdge) TaintTarget() (BlockID, bool) { return v.To, true }

// TaintTarget implements Violation.
func (v CoverageRegression) TaintTarget() (BlockID, bool) { return 0, false }

// SafeFormat implements redact.SafeFormatter.
func (v UninstrumentedExecution) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("uninstrumented execution of %s", v.Block)
}

// SafeFormat implements redact.SafeFormatter.
func (v CounterOverflow) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("counter overflow on %s", v.Block)
}

// SafeFormat implements redact.SafeFormatter.
func (v ImpossibleEdge) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("impossible edge %s->%s", v.From, v.To)
}

// SafeFormat implements redact.SafeFormatter.
func (v CoverageRegression) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("coverage regression: expected %.2f%%, got %.2f%%",
		redact.Safe(v.ExpectedPercent), redact.Safe(v.ActualPercent))
}

// String implements fmt.Stringer.
func (v UninstrumentedExecution) String() string { return redact.StringWithoutMarkers(v) }

// String implements fmt.Stringer.
func (v CounterOverflow) String() string { return redact.StringWithoutMarkers(v) }

// String implements fmt.Stringer.
func (v ImpossibleEdge) String() string { return redact.StringWithoutMarkers(v) }

// String implements fmt.Stringer.
func (v CoverageRegression) String() string { return redact.StringWithoutMarkers(v) }

// Disposition is the jidoka verdict for a violation: whether the anomaly
// invalidates the whole session or only degrades part of it.
type Disposition uint8

const (
	// Warn means the violation is informational only.
	Warn Disposition = iota
	// LogAndContinue means a specific region is unreliable but the rest of
	// the session's data remains trustworthy; collection continues.
	LogAndContinue
	// Stop means the instrumentation cannot be trusted and the active
	// session must be aborted without merging further data.
	Stop
)

// SafeFormat implements redact.SafeFormatter.
func (d Disposition) SafeFormat(w redact.SafePrinter, _ rune) {
	switch d {
	case Warn:
		w.SafeString("warn")
	case LogAndContinue:
		w.SafeString("log-and-continue")
	case Stop:
		w.SafeString("stop")
	default:
		w.Printf("unknown-disposition(%d)", redact.SafeUint(uint64(d)))
	}
}

// String implements fmt.Stringer.
func (d Disposition) String() string { return redact.StringWithoutMarkers(d) }

// Classify returns the disposition for a violation. The mapping is fixed and
// total, and this switch is the single place it lives:
//
//	UninstrumentedExecution -> Stop
//	ImpossibleEdge          -> Stop
//	CounterOverflow         -> LogAndContinue
//	CoverageRegression      -> LogAndContinue
//
// Classify is pure: any abort implied by a Stop disposition is carried out
// by the collector owning the session, keeping the classifier independently
// testable.
func Classify(v Violation) Disposition {
	switch v.(type) {
	case UninstrumentedExecution:
		return Stop
	case ImpossibleEdge:
		return Stop
	case CounterOverflow:
		return LogAndContinue
	case CoverageRegression:
		return LogAndContinue
	default:
		return Warn
	}
}
