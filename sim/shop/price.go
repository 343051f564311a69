package shop

import "math"

// priceEpsilon absorbs float representation error so that exact products such
// as 10×1.4 = 14 do not truncate to 13.
const priceEpsilon = 1e-9

// Price returns the cost of buying an upgrade currently at level:
// floor(base × growth^(level−1)). Level 1 costs the base price.
// For base 10 and growth 1.4 the sequence is 10, 14, 19, 27, 38.
func Price(base int, growth float64, level int) int {
	if level < 1 {
		level = 1
	}
	return int(math.Floor(float64(base)*math.Pow(growth, float64(level-1)) + priceEpsilon))
}

// Effect constants for the three upgrade types.
const (
	SpeedFactor       = 1.25
	CapacityStep      = 5
	ProcessingFactor  = 0.85
	ProcessingFloorMs = 300
)

// SpeedAt returns the transport speed for the given upgrade level.
func SpeedAt(base float64, level int) float64 {
	return base * math.Pow(SpeedFactor, float64(max(level, 1)-1))
}

// CapacityAt returns the system capacity for the given upgrade level.
func CapacityAt(base, level int) int {
	return base + CapacityStep*(max(level, 1)-1)
}

// ProcessingMsAt returns the per-process duration for the given upgrade level,
// never below ProcessingFloorMs.
func ProcessingMsAt(baseMs, level int) int {
	ms := int(math.Round(float64(baseMs) * math.Pow(ProcessingFactor, float64(max(level, 1)-1))))
	return max(ProcessingFloorMs, ms)
}
