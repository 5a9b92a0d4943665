//go:build fastmath

package smooth

import "github.com/meko-christian/algo-approx"

// Ramp factors are computed once per target change, so the approximation
// error only shifts the intermediate glide; the final step still lands on
// the exact target.
func expFn(x float64) float64 { return approx.FastExp(x) }

func logFn(x float64) float64 { return approx.FastLog(x) }
