// Copyright 2026 The Covtrace Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package covtrace

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type testLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *testLogger) Infof(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *testLogger) Fatalf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

// TestCollectorSmoke runs the end-to-end scenario: a session with one test,
// two workers each incrementing block 0 five times, both flushed into the
// ledger.
func TestCollectorSmoke(t *testing.T) {
	c := NewCollector(Options{MaxBlocks: 16, Parallel: true})
	require.NoError(t, c.BeginSession("smoke"))
	require.NoError(t, c.BeginTest("t1"))

	var g errgroup.Group
	for i := 0; i < 2; i++ {
		tc, err := c.NewCounters()
		require.NoError(t, err)
		g.Go(func() error {
			for j := 0; j < 5; j++ {
				tc.Inc(0)
			}
			c.Merge(tc)
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.NoError(t, c.EndTest())

	report, err := c.EndSession()
	require.NoError(t, err)
	require.Equal(t, uint64(10), report.HitCount(0))
	require.Equal(t, uint64(0), report.HitCount(1))
	require.Equal(t, []string{"t1"}, report.Tests())

	m := c.Metrics()
	require.Equal(t, uint64(10), m.HitsMerged)
	require.Equal(t, uint64(1), m.Sessions.Completed)
}

func TestCollectorStopAbortsSession(t *testing.T) {
	logger := &testLogger{}
	c := NewCollector(Options{MaxBlocks: 16, Logger: logger})
	require.NoError(t, c.BeginSession("s"))
	c.RecordHit(1)

	d := c.RecordViolation(ImpossibleEdge{From: 1, To: 2})
	require.Equal(t, Stop, d)

	// Post-stop merges are drained but discarded.
	tc, err := c.NewCounters()
	require.NoError(t, err)
	tc.Inc(3)
	c.Merge(tc)
	require.Equal(t, uint64(0), tc.Count(3))

	report, err := c.EndSession()
	require.Nil(t, report)
	require.True(t, errors.Is(err, ErrSessionAborted))
	require.Contains(t, err.Error(), "impossible edge b1->b2")

	m := c.Metrics()
	require.Equal(t, uint64(1), m.Sessions.Aborted)
	require.Equal(t, uint64(0), m.Sessions.Completed)

	// A prior abort does not poison the next session.
	require.NoError(t, c.BeginSession("s2"))
	c.RecordHit(0)
	report, err = c.EndSession()
	require.NoError(t, err)
	require.Equal(t, uint64(1), report.HitCount(0))
}

func TestCollectorJidokaDisabled(t *testing.T) {
	c := NewCollector(Options{MaxBlocks: 16, DisableJidoka: true, Logger: &testLogger{}})
	require.NoError(t, c.BeginSession("s"))

	// The classification is unchanged, but the session survives.
	d := c.RecordViolation(UninstrumentedExecution{Block: 5})
	require.Equal(t, Stop, d)
	require.True(t, c.IsTainted(5))

	report, err := c.EndSession()
	require.NoError(t, err)
	require.Len(t, report.Violations(), 1)
}

func TestCollectorViolationQuerySurface(t *testing.T) {
	c := NewCollector(Options{MaxBlocks: 16, Logger: &testLogger{}})
	require.NoError(t, c.BeginSession("s"))

	require.Equal(t, LogAndContinue, c.RecordViolation(CounterOverflow{Block: 2}))
	require.Equal(t, LogAndContinue, c.RecordViolation(CounterOverflow{Block: 2}))
	require.Equal(t, LogAndContinue,
		c.RecordViolation(CoverageRegression{ExpectedPercent: 90, ActualPercent: 50}))

	require.True(t, c.IsTainted(2))
	require.False(t, c.IsTainted(3))
	require.Equal(t, []BlockID{2}, c.TaintedBlocks())
	require.Len(t, c.ViolationsFor(2), 2)
	// The global log includes the blockless regression.
	require.Len(t, c.AllViolations(), 3)

	report, err := c.EndSession()
	require.NoError(t, err)
	require.Len(t, report.Violations(), 3)
}

func TestCollectorCounterEscalation(t *testing.T) {
	logger := &testLogger{}
	c := NewCollector(Options{MaxBlocks: 4, Logger: logger})
	require.NoError(t, c.BeginSession("s"))

	tc, err := c.NewCounters()
	require.NoError(t, err)
	// An out-of-range increment escalates to UninstrumentedExecution at
	// merge time, which is a Stop.
	tc.Inc(99)
	c.Merge(tc)

	_, err = c.EndSession()
	require.True(t, errors.Is(err, ErrSessionAborted))
	require.Contains(t, err.Error(), "uninstrumented execution of b99")
}

func TestCollectorMetadata(t *testing.T) {
	c := NewCollector(Options{MaxBlocks: 16})
	require.NoError(t, c.BeginSession("s"))
	c.SetSourceLocation(1, "pkg/a.go:42")
	c.SetFunctionName(1, "Frobnicate")
	c.RecordHit(1)

	report, err := c.EndSession()
	require.NoError(t, err)
	var got BlockCoverage
	for bc := range report.All() {
		if bc.Block == 1 {
			got = bc
		}
	}
	require.Equal(t, BlockCoverage{
		Block: 1, Hits: 1, SourceLocation: "pkg/a.go:42", FunctionName: "Frobnicate",
	}, got)
}

func TestCollectorEndTestDrains(t *testing.T) {
	c := NewCollector(Options{MaxBlocks: 16})
	require.NoError(t, c.BeginSession("s"))
	require.NoError(t, c.BeginTest("t1"))

	tc, err := c.NewCounters()
	require.NoError(t, err)
	tc.Inc(2)
	tc.Inc(2)

	// EndTest drains outstanding counters without an explicit Merge.
	require.NoError(t, c.EndTest())
	require.Equal(t, uint64(0), tc.Count(2))

	report, err := c.EndSession()
	require.NoError(t, err)
	require.Equal(t, uint64(2), report.HitCount(2))
}

func TestCollectorSessionLifecycleErrors(t *testing.T) {
	c := NewCollector(Options{MaxBlocks: 16})

	_, err := c.NewCounters()
	require.True(t, errors.Is(err, ErrNoSession))
	require.True(t, errors.Is(c.BeginTest("t"), ErrNoSession))
	require.True(t, errors.Is(c.EndTest(), ErrNoSession))
	_, err = c.EndSession()
	require.True(t, errors.Is(err, ErrNoSession))

	require.NoError(t, c.BeginSession("a"))
	err = c.BeginSession("b")
	require.Error(t, err)
	require.Contains(t, err.Error(), `session "a" still active`)

	require.NoError(t, c.BeginTest("t1"))
	err = c.BeginTest("t2")
	require.Error(t, err)
	require.Contains(t, err.Error(), `test "t1" still active`)
}

func TestCollectorWarnThrottle(t *testing.T) {
	logger := &testLogger{}
	// Burst of 2 per second; the remaining lines are suppressed but the
	// violations are still recorded.
	c := NewCollector(Options{MaxBlocks: 16, Logger: logger, WarnRateLimit: 2})
	require.NoError(t, c.BeginSession("s"))
	for i := 0; i < 10; i++ {
		c.RecordViolation(CounterOverflow{Block: 1})
	}

	m := c.Metrics()
	require.Equal(t, uint64(10), m.Violations.LogAndContinue)
	require.NotZero(t, m.Violations.Suppressed)
	require.Len(t, c.ViolationsFor(1), 10)

	logged := 0
	for _, line := range logger.lines {
		if strings.Contains(line, "counter overflow") {
			logged++
		}
	}
	require.Equal(t, 10-int(m.Violations.Suppressed), logged)
}
