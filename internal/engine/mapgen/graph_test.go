package mapgen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageOrder(t *testing.T) {
	order, err := stageGraph.order()
	require.NoError(t, err)
	assert.Equal(t, []Flags{FlagHeight, inputLight, FlagNormal, FlagShadow, FlagMaterial, FlagGeometry}, order)
}

func TestStageOrderRespectsDependencies(t *testing.T) {
	order, err := stageGraph.order()
	require.NoError(t, err)

	pos := make(map[Flags]int)
	for i, f := range order {
		pos[f] = i
	}
	for node, deps := range stageGraph.deps {
		for _, d := range deps {
			assert.Less(t, pos[d], pos[node], "%s must run before %s", d, node)
		}
	}
}

func TestDownstream(t *testing.T) {
	tests := []struct {
		in   Flags
		want Flags
	}{
		{FlagHeight, FlagNormal | FlagShadow | FlagMaterial | FlagGeometry},
		{inputLight, FlagShadow},
		{FlagNormal, FlagGeometry},
		{FlagShadow, 0},
		{FlagMaterial, 0},
		{FlagGeometry, 0},
		{FlagNormal | inputLight, FlagGeometry | FlagShadow},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, stageGraph.downstream(tt.in))
		})
	}
}

func TestCycleDetected(t *testing.T) {
	g := graph{
		nodes: []Flags{FlagHeight, FlagNormal},
		deps: map[Flags][]Flags{
			FlagHeight: {FlagNormal},
			FlagNormal: {FlagHeight},
		},
	}
	_, err := g.order()
	assert.True(t, errors.Is(err, errCycle))
}

func TestFlags(t *testing.T) {
	f := FlagHeight | FlagNormal

	assert.True(t, f.Has(FlagHeight))
	assert.True(t, f.Has(FlagHeight|FlagNormal))
	assert.False(t, f.Has(FlagHeight|FlagShadow))
	assert.False(t, f.Has(0))
	assert.True(t, f.Any(FlagNormal|FlagShadow))
	assert.False(t, f.Any(FlagShadow))

	assert.Equal(t, "height|normal", f.String())
	assert.Equal(t, "none", Flags(0).String())
	assert.Equal(t, "shadow|light", (FlagShadow | inputLight).String())
}
