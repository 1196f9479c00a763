package lighting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSunDirection(t *testing.T) {
	tests := []struct {
		name             string
		azimuth, elev    float32
		wantX, wantY, wz float32
	}{
		{"south horizon", 0, 0, 0, 0, 1},
		{"east horizon", 90, 0, 1, 0, 0},
		{"zenith", 0, 90, 0, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := SunDirection(tt.azimuth, tt.elev)
			assert.InDelta(t, tt.wantX, d[0], 1e-5)
			assert.InDelta(t, tt.wantY, d[1], 1e-5)
			assert.InDelta(t, tt.wz, d[2], 1e-5)
			assert.InDelta(t, 1, d.Len(), 1e-5)
		})
	}
}

func TestSunSetWrapsAndClamps(t *testing.T) {
	s := NewSun(-30, 120)
	assert.Equal(t, float32(330), s.Azimuth)
	assert.Equal(t, float32(MaxElevation), s.Elevation)

	assert.False(t, s.Set(330, 95), "clamped to the same angles")
	assert.True(t, s.Rotate(40))
	assert.Equal(t, float32(10), s.Azimuth)
	assert.True(t, s.Raise(-100))
	assert.Equal(t, float32(0), s.Elevation)
}
