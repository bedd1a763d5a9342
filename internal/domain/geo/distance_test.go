package geo_test

import (
	"testing"

	"merkado/internal/domain/geo"

	"github.com/stretchr/testify/assert"
)

var (
	manila  = geo.Point{Latitude: 14.5995, Longitude: 120.9842}
	cebu    = geo.Point{Latitude: 10.3157, Longitude: 123.8854}
	navotas = geo.Point{Latitude: 14.6667, Longitude: 120.9417}
)

func TestDistance_IdenticalPointsIsZero(t *testing.T) {
	for _, p := range []geo.Point{manila, cebu, {Latitude: 0, Longitude: 0}, {Latitude: -90, Longitude: 180}} {
		assert.Equal(t, 0.0, geo.Distance(p, p))
	}
}

func TestDistance_Symmetric(t *testing.T) {
	pairs := [][2]geo.Point{
		{manila, cebu},
		{manila, navotas},
		{{Latitude: 89.9, Longitude: -179.9}, {Latitude: -89.9, Longitude: 179.9}},
	}
	for _, p := range pairs {
		assert.Equal(t, geo.Distance(p[0], p[1]), geo.Distance(p[1], p[0]))
	}
}

func TestDistance_KnownValues(t *testing.T) {
	// マニラ〜セブ 約570km
	assert.InDelta(t, 571.0, geo.Distance(manila, cebu), 5.0)
	// マニラ〜ナボタス 約9km
	assert.InDelta(t, 8.8, geo.Distance(manila, navotas), 0.5)
	// 赤道上の経度1度
	assert.InDelta(t, 111.19, geo.Distance(geo.Point{}, geo.Point{Longitude: 1}), 0.01)
}

func TestPoint_Valid(t *testing.T) {
	assert.True(t, manila.Valid())
	assert.True(t, geo.Point{Latitude: -90, Longitude: -180}.Valid())
	assert.False(t, geo.Point{Latitude: 90.01, Longitude: 0}.Valid())
	assert.False(t, geo.Point{Latitude: 0, Longitude: -180.5}.Valid())
}

func TestRoundKm(t *testing.T) {
	assert.Equal(t, 8.83, geo.RoundKm(8.8312))
	assert.Equal(t, 0.0, geo.RoundKm(0.004))
}
