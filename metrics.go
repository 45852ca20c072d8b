// Copyright 2026 The Covtrace Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package covtrace

import "github.com/cockroachdb/redact"

// Metrics holds metrics for the collector, aggregated across sessions. A
// snapshot is obtained via Collector.Metrics.
type Metrics struct {
	Sessions struct {
		// Started is the number of sessions begun.
		Started uint64
		// Completed is the number of sessions ended normally.
		Completed uint64
		// Aborted is the number of sessions discarded on a Stop disposition.
		Aborted uint64
	}

	// Flushes is the number of flush-and-merge operations performed.
	Flushes uint64
	// HitsMerged is the total hit count merged into ledgers.
	HitsMerged uint64

	Violations struct {
		// Stop counts violations classified as session-fatal.
		Stop uint64
		// LogAndContinue counts violations that tainted a region.
		LogAndContinue uint64
		// Warn counts informational violations.
		Warn uint64
		// Suppressed counts log lines dropped by the warn rate limit. The
		// violations themselves are always recorded.
		Suppressed uint64
	}

	// TaintedBlocks is the number of tainted blocks in the active session;
	// zero between sessions.
	TaintedBlocks uint64
}

// SafeFormat implements redact.SafeFormatter.
func (m *Metrics) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("sessions: %d started, %d completed, %d aborted\n",
		redact.SafeUint(m.Sessions.Started),
		redact.SafeUint(m.Sessions.Completed),
		redact.SafeUint(m.Sessions.Aborted))
	w.Printf("flushes: %d (%d hits merged)\n",
		redact.SafeUint(m.Flushes), redact.SafeUint(m.HitsMerged))
	w.Printf("violations: %d stop, %d log-and-continue, %d warn (%d log lines suppressed)\n",
		redact.SafeUint(m.Violations.Stop),
		redact.SafeUint(m.Violations.LogAndContinue),
		redact.SafeUint(m.Violations.Warn),
		redact.SafeUint(m.Violations.Suppressed))
	w.Printf("tainted blocks: %d", redact.SafeUint(m.TaintedBlocks))
}

// String implements fmt.Stringer.
func (m *Metrics) String() string {
	return redact.StringWithoutMarkers(m)
}
