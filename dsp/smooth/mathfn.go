//go:build !fastmath

package smooth

import "math"

func expFn(x float64) float64 { return math.Exp(x) }

func logFn(x float64) float64 { return math.Log(x) }
