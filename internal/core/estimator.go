package core

import (
	"agri_service/internal/domain/model"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"
)

const (
	DefaultLandcover  = "agriculture"
	DefaultDataSource = "OSM"
)

// RandomSource yields uniformly distributed values in [0, 1).
type RandomSource interface {
	Float64() float64
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandomSource returns a source safe for use by several workers at once.
// A zero seed means seed from the clock.
func NewRandomSource(seed int64) RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// AttributeEstimator produces synthetic site attributes from latitude bands.
type AttributeEstimator struct {
	rnd RandomSource
}

func NewAttributeEstimator(rnd RandomSource) *AttributeEstimator {
	if rnd == nil {
		rnd = NewRandomSource(0)
	}
	return &AttributeEstimator{rnd: rnd}
}

func (e *AttributeEstimator) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*e.rnd.Float64()
}

func (e *AttributeEstimator) Elevation(lat float64) float64 {
	switch {
	case lat < 37.0:
		return e.uniform(50, 300)
	case lat < 39.0:
		return e.uniform(800, 1200)
	case lat < 41.0:
		return e.uniform(200, 800)
	default:
		return e.uniform(1000, 1800)
	}
}

// Slope depends on the drawn elevation, not on the coordinate.
func (e *AttributeEstimator) Slope(elevation float64) float64 {
	switch {
	case elevation < 200:
		return e.uniform(1, 3)
	case elevation < 500:
		return e.uniform(2, 6)
	case elevation < 1000:
		return e.uniform(5, 10)
	default:
		return e.uniform(8, 20)
	}
}

// UrbanDistanceKM jitters the distance to the closest major city by ±20%.
func (e *AttributeEstimator) UrbanDistanceKM(lat, lon float64) float64 {
	return nearestCityDistanceKM(lat, lon) * e.uniform(0.8, 1.2)
}

func SoilForElevation(elevation float64) model.SoilProfile {
	switch {
	case elevation < 200:
		return model.SoilProfile{Type: "Loamy", PH: 6.8, OrganicMatter: 2.3, Productivity: "high"}
	case elevation < 500:
		return model.SoilProfile{Type: "Clay-Loamy", PH: 7.1, OrganicMatter: 1.8, Productivity: "medium-high"}
	case elevation < 1000:
		return model.SoilProfile{Type: "Loamy-Sandy", PH: 6.5, OrganicMatter: 1.2, Productivity: "medium"}
	default:
		return model.SoilProfile{Type: "Stony-Sandy", PH: 5.8, OrganicMatter: 0.7, Productivity: "low"}
	}
}

func ClimateForLatitude(lat float64) model.ClimateProfile {
	switch {
	case lat < 37.0:
		return model.ClimateProfile{AnnualPrecipitationMM: 650, SunshineHours: 2950, AverageTemperature: 18.5, ClimateType: "Mediterranean"}
	case lat < 39.0:
		return model.ClimateProfile{AnnualPrecipitationMM: 380, SunshineHours: 2650, AverageTemperature: 11.2, ClimateType: "Continental"}
	case lat < 41.0:
		return model.ClimateProfile{AnnualPrecipitationMM: 850, SunshineHours: 1950, AverageTemperature: 14.0, ClimateType: "Black Sea"}
	default:
		return model.ClimateProfile{AnnualPrecipitationMM: 450, SunshineHours: 2450, AverageTemperature: 8.5, ClimateType: "Severe Continental"}
	}
}

// Estimate draws elevation, slope and urban jitter in that order. Soil and slope
// bands use the unrounded elevation; the returned values are rounded.
func (e *AttributeEstimator) Estimate(coord model.Coordinate, catalog []model.WaterFeature) model.Attributes {
	elevation := e.Elevation(coord.Lat)
	slope := e.Slope(elevation)
	water, waterDist := NearestWater(coord.Lat, coord.Lon, catalog)
	urbanDist := e.UrbanDistanceKM(coord.Lat, coord.Lon)

	landcover := strings.TrimSpace(coord.Landcover)
	if landcover == "" {
		landcover = DefaultLandcover
	}
	source := coord.Source
	if source == "" {
		source = DefaultDataSource
	}

	return model.Attributes{
		Latitude:         coord.Lat,
		Longitude:        coord.Lon,
		ElevationM:       int(math.RoundToEven(elevation)),
		SlopePercent:     round1(slope),
		WaterDistanceKM:  round1(waterDist),
		NearestWaterName: water.Name,
		NearestWaterType: water.Type,
		UrbanDistanceKM:  round1(urbanDist),
		Soil:             SoilForElevation(elevation),
		Climate:          ClimateForLatitude(coord.Lat),
		LandcoverType:    landcover,
		RegionName:       coord.Name,
		DataSource:       source,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
