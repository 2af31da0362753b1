package core

import (
	"agri_service/internal/domain/model"
	"math"
)

// KMPerDegree переводит градусы в километры без учёта широты
const KMPerDegree = 111.0

type city struct {
	name     string
	lat, lon float64
}

var majorCities = []city{
	{"Ankara", 39.9, 32.8},
	{"Istanbul", 41.0, 28.9},
	{"Izmir", 38.4, 27.1},
	{"Adana", 36.9, 35.3},
}

// unknownWater is returned by NearestWater for an empty catalog.
var unknownWater = model.WaterFeature{Name: "unknown", Type: model.WaterTypeUnknown}

// planarDistanceKM is the Euclidean distance in degrees scaled to kilometres.
// Scores are calibrated against this metric, not against geodesic distance.
func planarDistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := lat1 - lat2
	dLon := lon1 - lon2
	return math.Sqrt(dLat*dLat+dLon*dLon) * KMPerDegree
}

// NearestWater scans the whole catalog and returns the closest feature and its
// distance in km. Ties keep the earlier feature.
func NearestWater(lat, lon float64, features []model.WaterFeature) (model.WaterFeature, float64) {
	if len(features) == 0 {
		return unknownWater, 0
	}

	nearest := features[0]
	minDist := planarDistanceKM(lat, lon, nearest.Lat, nearest.Lon)
	for _, f := range features[1:] {
		dist := planarDistanceKM(lat, lon, f.Lat, f.Lon)
		if dist < minDist {
			minDist = dist
			nearest = f
		}
	}

	return nearest, minDist
}

// nearestCityDistanceKM returns the distance to the closest major city.
func nearestCityDistanceKM(lat, lon float64) float64 {
	minDist := math.Inf(1)
	for _, c := range majorCities {
		if dist := planarDistanceKM(lat, lon, c.lat, c.lon); dist < minDist {
			minDist = dist
		}
	}
	return minDist
}
