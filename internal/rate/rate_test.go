// Copyright 2026 The Covtrace Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package rate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterAllow(t *testing.T) {
	now := time.Unix(100, 0)
	l := NewLimiterWithNowFn(1, 2, func() time.Time { return now })

	// The bucket starts full with the burst.
	require.True(t, l.Allow())
	require.True(t, l.Allow())
	require.False(t, l.Allow())

	// One token per second refills.
	now = now.Add(time.Second)
	require.True(t, l.Allow())
	require.False(t, l.Allow())

	now = now.Add(10 * time.Second)
	require.True(t, l.Allow())
	require.True(t, l.Allow())
	require.False(t, l.Allow())
}
