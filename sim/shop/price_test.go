package shop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrice_GeometricSequence(t *testing.T) {
	// GIVEN base 10 and growth 1.4
	// WHEN pricing levels 1..5
	got := make([]int, 5)
	for i := range got {
		got[i] = Price(10, 1.4, i+1)
	}
	// THEN the sequence truncates each product
	assert.Equal(t, []int{10, 14, 19, 27, 38}, got)
}

func TestPrice_LevelBelowOne_TreatedAsOne(t *testing.T) {
	assert.Equal(t, 25, Price(25, 1.5, 0))
	assert.Equal(t, 25, Price(25, 1.5, -3))
}

func TestEffects_AbsoluteRecompute(t *testing.T) {
	tests := []struct {
		name  string
		level int
		speed float64
		cap   int
		procs int
	}{
		{"level 1 is base", 1, 3.0, 10, 2000},
		{"level 2", 2, 3.75, 15, 1700},
		{"level 3", 3, 4.6875, 20, 1445},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.speed, SpeedAt(3.0, tt.level), 1e-9)
			assert.Equal(t, tt.cap, CapacityAt(10, tt.level))
			assert.Equal(t, tt.procs, ProcessingMsAt(2000, tt.level))
		})
	}
}

func TestProcessingMsAt_NeverBelowFloor(t *testing.T) {
	// GIVEN a high level that would shrink far below the floor
	// THEN the floor holds
	assert.Equal(t, ProcessingFloorMs, ProcessingMsAt(2000, 40))
	assert.Equal(t, ProcessingFloorMs, ProcessingMsAt(100, 1))
}
