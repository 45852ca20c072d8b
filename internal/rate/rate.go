// Copyright 2026 The Covtrace Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package rate provides a non-blocking rate limiter used to throttle
// per-violation log output.
package rate // import "github.com/covtrace/covtrace/internal/rate"

import (
	"sync"
	"time"

	"github.com/cockroachdb/tokenbucket"
)

// A Limiter bounds how frequently events are allowed to happen. It
// implements a token bucket of size b, initially full and refilled at rate r
// tokens per second.
//
// Unlike a pacing limiter, a Limiter never sleeps: callers ask whether an
// event may happen now and drop the event otherwise. This is the right shape
// for log throttling, where a delayed log line is worthless.
//
// Limiter is thread-safe.
type Limiter struct {
	mu struct {
		sync.Mutex
		tb tokenbucket.TokenBucket
	}
}

// NewLimiter returns a new Limiter that allows events up to rate r and
// permits bursts of at most b tokens.
func NewLimiter(r float64, b float64) *Limiter {
	l := &Limiter{}
	l.mu.tb.Init(tokenbucket.TokensPerSecond(r), tokenbucket.Tokens(b))
	return l
}

// NewLimiterWithNowFn is like NewLimiter but uses the given function to
// retrieve the current time (useful for testing).
func NewLimiterWithNowFn(r float64, b float64, nowFn func() time.Time) *Limiter {
	l := &Limiter{}
	l.mu.tb.InitWithNowFn(tokenbucket.TokensPerSecond(r), tokenbucket.Tokens(b), nowFn)
	return l
}

// Allow reports whether one event may happen now, consuming a token if so.
// It never blocks.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	ok, _ := l.mu.tb.TryToFulfill(tokenbucket.Tokens(1))
	return ok
}
