package metrics

import "math"

func round2(f float64) float64 { return math.Round(f*100) / 100 }

// round2p rounds a nullable figure, leaving nil untouched.
func round2p(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := round2(*f)
	return &v
}

func ptr(f float64) *float64 { return &f }

func safeDiv(a, b float64) *float64 {
	if b == 0 {
		return nil
	}
	return ptr(a / b)
}
