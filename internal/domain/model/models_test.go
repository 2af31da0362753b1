package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBBox(t *testing.T) {
	b, err := ParseBBox("36.0, 26.0, 42.0, 45.0")
	require.NoError(t, err)
	assert.Equal(t, TurkeyRegion, b)
	assert.Equal(t, "36,26,42,45", b.String())
}

func TestParseBBoxErrors(t *testing.T) {
	tests := []struct {
		name string
		bbox string
		want string
	}{
		{"too few parts", "1,2,3", "bbox must have 4 components, got 3"},
		{"not a number", "a,2,3,4", "invalid minLat"},
		{"latitude range", "-91,0,10,10", "latitude out of range"},
		{"longitude range", "0,0,10,181", "longitude out of range"},
		{"inverted", "10,0,5,10", "minLat must be <= maxLat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBBox(tt.bbox)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTurkeyRegionContains(t *testing.T) {
	assert.True(t, TurkeyRegion.Contains(39.9334, 32.8597))
	assert.True(t, TurkeyRegion.Contains(36.0, 26.0), "edges are inclusive")
	assert.True(t, TurkeyRegion.Contains(42.0, 45.0), "edges are inclusive")
	assert.False(t, TurkeyRegion.Contains(35.99, 30.0))
	assert.False(t, TurkeyRegion.Contains(39.0, 45.01))
	assert.False(t, TurkeyRegion.Contains(52.52, 13.40))
}

func TestClassifyWaterTags(t *testing.T) {
	tests := []struct {
		name string
		tags map[string]string
		want WaterType
		ok   bool
	}{
		{"river", map[string]string{"waterway": "river"}, WaterTypeRiver, true},
		{"stream", map[string]string{"waterway": "stream"}, WaterTypeStream, true},
		{"dam", map[string]string{"waterway": "dam"}, WaterTypeDam, true},
		{"natural water", map[string]string{"natural": "water"}, WaterTypeLake, true},
		{"natural water reservoir stays lake", map[string]string{"natural": "water", "water": "reservoir"}, WaterTypeLake, true},
		{"water lake", map[string]string{"water": "lake"}, WaterTypeLake, true},
		{"water reservoir", map[string]string{"water": "reservoir"}, WaterTypeReservoir, true},
		{"unsupported waterway wins over natural", map[string]string{"waterway": "canal", "natural": "water"}, "", false},
		{"unrelated", map[string]string{"highway": "primary"}, "", false},
		{"no tags", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClassifyWaterTags(tt.tags)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
