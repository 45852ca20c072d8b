// Copyright 2026 The Covtrace Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package covtrace implements the coverage-instrumentation core of a test
// execution framework: per-thread hit counters, a session-scoped coverage
// ledger, jidoka triage of recording anomalies, and the taint tracking that
// annotates the ledger's trustworthiness. The tiling and hypothesis layers
// live in the tiling and hypothesis packages.
package covtrace

import (
	"sync"

	"github.com/cockroachdb/crlib/crtime"
	"github.com/cockroachdb/errors"
	"github.com/covtrace/covtrace/internal/rate"
)

// ErrSessionAborted is returned by EndSession when a Stop-disposition
// violation invalidated the session's instrumentation.
var ErrSessionAborted = errors.New("covtrace: session aborted due to instrumentation violation")

// ErrNoSession is returned by operations that require an active session.
var ErrNoSession = errors.New("covtrace: no active session")

// Collector owns one coverage session at a time: it is the single writer to
// the session's ledger and taint set. Worker threads obtain private Counters
// from NewCounters and record hits without synchronization; the collector
// serializes every flush-and-merge under its mutex.
//
// A Stop disposition from the classifier marks the session aborted: further
// merges are drained but discarded, and EndSession surfaces the originating
// violation instead of the ledger. Prior completed sessions are unaffected.
type Collector struct {
	opts Options
	// logLimiter throttles LogAndContinue/Warn log lines. Stop lines bypass
	// it.
	logLimiter *rate.Limiter
	nowFn      func() crtime.Mono

	mu struct {
		sync.Mutex
		report     *Report
		taint      TaintSet
		counters   []*Counters
		activeTest string
		aborted    bool
		abortCause Violation
		start      crtime.Mono
		metrics    Metrics
	}
}

// NewCollector constructs a Collector with the given options.
func NewCollector(opts Options) *Collector {
	opts.EnsureDefaults()
	c := &Collector{
		opts:       opts,
		logLimiter: rate.NewLimiter(opts.WarnRateLimit, opts.WarnRateLimit),
		nowFn:      crtime.NowMono,
	}
	c.mu.taint.Init()
	return c
}

// BeginSession starts a new named session, creating a fresh ledger and taint
// set. It fails if a session is already active.
func (c *Collector) BeginSession(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mu.report != nil {
		return errors.Newf("covtrace: session %q still active", errors.Safe(c.mu.report.Name()))
	}
	c.mu.report = NewReport(name, c.opts.MaxBlocks)
	c.mu.taint.Init()
	c.mu.counters = nil
	c.mu.activeTest = ""
	c.mu.aborted = false
	c.mu.abortCause = nil
	c.mu.start = c.nowFn()
	c.mu.metrics.Sessions.Started++
	return nil
}

// NewCounters hands the calling worker a private, exclusively owned counter
// array for the active session. The collector remembers it so that
// EndSession can drain any outstanding counts. The worker must not share the
// Counters and must have quiesced before the collector drains it.
func (c *Collector) NewCounters() (*Counters, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mu.report == nil {
		return nil, ErrNoSession
	}
	tc := newCounters(c.opts.MaxBlocks)
	c.mu.counters = append(c.mu.counters, tc)
	return tc, nil
}

// BeginTest records the start of a named test within the active session.
func (c *Collector) BeginTest(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mu.report == nil {
		return ErrNoSession
	}
	if c.mu.activeTest != "" {
		return errors.Newf("covtrace: test %q still active", errors.Safe(c.mu.activeTest))
	}
	c.mu.activeTest = name
	c.mu.report.AddTest(name)
	return nil
}

// EndTest ends the active test, draining all outstanding thread-local
// counters into the ledger. Workers must have quiesced.
func (c *Collector) EndTest() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mu.report == nil {
		return ErrNoSession
	}
	c.drainAllLocked()
	c.mu.activeTest = ""
	return nil
}

// RecordHit records a single hit, for single-threaded callers that have no
// Counters of their own. Multi-threaded recording should go through
// NewCounters/Merge instead.
func (c *Collector) RecordHit(b BlockID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mu.report == nil || c.mu.aborted {
		return
	}
	if v := c.mu.report.RecordHits(b, 1); v != nil {
		c.recordViolationLocked(v)
		return
	}
	c.mu.metrics.HitsMerged++
}

// Merge drains a worker's Counters and merges the result into the ledger.
// Merges are serialized with respect to each other; this is the single
// writer to the shared ledger. After a Stop disposition the drain still
// happens (so the Counters is logically destroyed) but the data is
// discarded.
func (c *Collector) Merge(tc *Counters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mergeLocked(tc)
}

func (c *Collector) mergeLocked(tc *Counters) {
	start := c.nowFn()
	res := tc.Flush()
	if c.mu.report == nil || c.mu.aborted {
		return
	}
	c.mu.metrics.Flushes++
	for _, h := range res.Hits {
		if v := c.mu.report.RecordHits(h.Block, h.Count); v != nil {
			c.recordViolationLocked(v)
			continue
		}
		c.mu.metrics.HitsMerged += h.Count
	}
	for _, b := range res.Overflowed {
		c.recordViolationLocked(CounterOverflow{Block: b})
	}
	for _, b := range res.OutOfRange {
		c.recordViolationLocked(UninstrumentedExecution{Block: b})
	}
	if c.opts.MergeLatency != nil {
		c.opts.MergeLatency.Observe(start.Elapsed().Seconds())
	}
}

func (c *Collector) drainAllLocked() {
	for _, tc := range c.mu.counters {
		c.mergeLocked(tc)
	}
}

// SetSourceLocation records a block's "file:line" position in the ledger.
func (c *Collector) SetSourceLocation(b BlockID, loc string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mu.report == nil {
		return
	}
	if v := c.mu.report.SetSourceLocation(b, loc); v != nil {
		c.recordViolationLocked(v)
	}
}

// SetFunctionName records the name of the function enclosing a block.
func (c *Collector) SetFunctionName(b BlockID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mu.report == nil {
		return
	}
	if v := c.mu.report.SetFunctionName(b, name); v != nil {
		c.recordViolationLocked(v)
	}
}

// RecordViolation runs the jidoka classifier on a detected violation,
// records it in the ledger and the taint set, and returns the disposition.
// On Stop (with jidoka enabled) the active session is marked aborted; the
// ledger will be discarded by EndSession.
func (c *Collector) RecordViolation(v Violation) Disposition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recordViolationLocked(v)
}

func (c *Collector) recordViolationLocked(v Violation) Disposition {
	d := Classify(v)
	if c.mu.report != nil {
		c.mu.report.RecordViolation(v)
		c.mu.taint.RecordViolation(v)
	}
	switch d {
	case Stop:
		c.mu.metrics.Violations.Stop++
		c.opts.Logger.Infof("covtrace: %s: %s", d, v)
		if !c.opts.DisableJidoka && c.mu.report != nil && !c.mu.aborted {
			c.mu.aborted = true
			c.mu.abortCause = v
		}
	case LogAndContinue:
		c.mu.metrics.Violations.LogAndContinue++
		c.logThrottled(d, v)
	default:
		c.mu.metrics.Violations.Warn++
		c.logThrottled(d, v)
	}
	return d
}

func (c *Collector) logThrottled(d Disposition, v Violation) {
	if c.logLimiter.Allow() {
		c.opts.Logger.Infof("covtrace: %s: %s", d, v)
	} else {
		c.mu.metrics.Violations.Suppressed++
	}
}

// EndSession drains all outstanding counters and ends the active session,
// returning the completed ledger. The ledger is handed off immutably: the
// collector retains no reference and the caller must not hand it back.
//
// If the session was aborted by a Stop disposition, the ledger is discarded
// and EndSession returns an error wrapping ErrSessionAborted and naming the
// originating violation.
func (c *Collector) EndSession() (*Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mu.report == nil {
		return nil, ErrNoSession
	}
	c.drainAllLocked()
	report := c.mu.report
	c.mu.report = nil
	c.mu.counters = nil
	c.mu.activeTest = ""
	if c.mu.aborted {
		c.mu.metrics.Sessions.Aborted++
		cause := c.mu.abortCause
		c.opts.Logger.Infof("covtrace: session %q aborted: %s", report.Name(), cause)
		return nil, errors.Wrapf(ErrSessionAborted, "%s", cause)
	}
	c.mu.metrics.Sessions.Completed++
	c.opts.Logger.Infof("covtrace: session %q ended in %s: %s",
		report.Name(), c.mu.start.Elapsed(), report)
	return report, nil
}

// IsTainted reports whether a block has been tainted in the active session.
func (c *Collector) IsTainted(b BlockID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mu.taint.IsTainted(b)
}

// TaintedBlocks enumerates the active session's tainted blocks in ascending
// order.
func (c *Collector) TaintedBlocks() []BlockID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mu.taint.TaintedBlocks()
}

// ViolationsFor returns the violations recorded against a block in the
// active session.
func (c *Collector) ViolationsFor(b BlockID) []Violation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mu.taint.ViolationsFor(b)
}

// AllViolations returns every violation recorded in the active session,
// including those with no associated block.
func (c *Collector) AllViolations() []Violation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mu.taint.AllViolations()
}

// Metrics returns a snapshot of the collector's metrics.
func (c *Collector) Metrics() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.mu.metrics
	m.TaintedBlocks = uint64(c.mu.taint.Len())
	return m
}
