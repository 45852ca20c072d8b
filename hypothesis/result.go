// Copyright 2026 The Covtrace Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package hypothesis

import "fmt"

// Result is the outcome of evaluating a hypothesis against a set of
// observations: a nullification verdict with quantified confidence.
type Result struct {
	// Hypothesis is the canonical hypothesis name, e.g. "H0-COV-02".
	Hypothesis string
	// Rejected is true if the observations falsified the claim.
	Rejected bool
	// PValue is the two-state significance proxy: 0.01 when rejected, 0.5
	// when not, and 0 for an empty observation set.
	PValue float64
	// EffectSize quantifies how strongly the observations bear on the
	// claim; its scale is variant-specific.
	EffectSize float64
	// ConfidenceInterval is the 95% interval around the estimate.
	ConfidenceInterval [2]float64
	// N is the number of observations evaluated.
	N int
}

// IsSignificant reports whether the p-value clears the conventional
// Alpha = 0.05 level. It is independent of Rejected; callers may combine
// both for reporting.
func (r Result) IsSignificant() bool {
	return r.PValue < Alpha
}

// Report returns a one-line human-readable verdict.
func (r Result) Report() string {
	verdict := "not rejected"
	if r.Rejected {
		verdict = "REJECTED"
	}
	return fmt.Sprintf("%s: %s (p=%.3f, effect=%.3f, 95%% CI [%.3f, %.3f], n=%d)",
		r.Hypothesis, verdict, r.PValue, r.EffectSize,
		r.ConfidenceInterval[0], r.ConfidenceInterval[1], r.N)
}
