package operation

import "math"

// ddcPercent maps a monitor's raw level in [lo,hi] to 0-100.
func ddcPercent(lo, cur, hi uint32) int {
	if hi <= lo {
		return clampPercent(int(cur))
	}
	if cur <= lo {
		return 0
	}
	if cur >= hi {
		return 100
	}
	return int(math.Round(float64(cur-lo) * 100 / float64(hi-lo)))
}

// ddcRaw maps 0-100 into a monitor's [lo,hi] range.
func ddcRaw(lo, hi uint32, percent int) uint32 {
	percent = clampPercent(percent)
	if hi <= lo {
		return uint32(percent)
	}
	return lo + uint32(math.Round(float64(percent)*float64(hi-lo)/100))
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	} else if p > 100 {
		return 100
	}
	return p
}
