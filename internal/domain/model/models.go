package model

import (
	"fmt"
	"strconv"
	"strings"
)

type Bounds struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// Contains reports whether the point lies inside the bounds, edges included.
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// String formats the bounds in the same "a,b,c,d" order ParseBBox reads.
func (b Bounds) String() string {
	return fmt.Sprintf("%s,%s,%s,%s",
		strconv.FormatFloat(b.MinLat, 'f', -1, 64),
		strconv.FormatFloat(b.MinLon, 'f', -1, 64),
		strconv.FormatFloat(b.MaxLat, 'f', -1, 64),
		strconv.FormatFloat(b.MaxLon, 'f', -1, 64))
}

// TurkeyRegion is the area analyzed coordinates must fall into.
var TurkeyRegion = Bounds{MinLat: 36.0, MinLon: 26.0, MaxLat: 42.0, MaxLon: 45.0}

// ParseBBox parses a bbox string in format "lat1,lon1,lat2,lon2".
func ParseBBox(bbox string) (Bounds, error) {
	parts := strings.Split(bbox, ",")
	if len(parts) != 4 {
		return Bounds{}, fmt.Errorf("bbox must have 4 components, got %d", len(parts))
	}

	var values [4]float64
	names := [4]string{"minLat", "minLon", "maxLat", "maxLon"}
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return Bounds{}, fmt.Errorf("invalid %s: %w", names[i], err)
		}
		values[i] = v
	}

	b := Bounds{MinLat: values[0], MinLon: values[1], MaxLat: values[2], MaxLon: values[3]}

	if b.MinLat < -90 || b.MinLat > 90 || b.MaxLat < -90 || b.MaxLat > 90 {
		return Bounds{}, fmt.Errorf("latitude out of range [-90, 90]")
	}
	if b.MinLon < -180 || b.MinLon > 180 || b.MaxLon < -180 || b.MaxLon > 180 {
		return Bounds{}, fmt.Errorf("longitude out of range [-180, 180]")
	}
	if b.MinLat > b.MaxLat || b.MinLon > b.MaxLon {
		return Bounds{}, fmt.Errorf("minLat must be <= maxLat and minLon must be <= maxLon")
	}

	return b, nil
}

// Coordinate is a raw input point. Landcover and Name are only set when the
// coordinate source carries them.
type Coordinate struct {
	Lat       float64 `json:"lat" yaml:"lat"`
	Lon       float64 `json:"lon" yaml:"lon"`
	Landcover string  `json:"landcover,omitempty" yaml:"landcover,omitempty"`
	Name      string  `json:"name,omitempty" yaml:"name,omitempty"`
	Source    string  `json:"source,omitempty" yaml:"source,omitempty"`
}

type SoilProfile struct {
	Type          string  `json:"soil_type"`
	PH            float64 `json:"soil_ph"`
	OrganicMatter float64 `json:"organic_matter"`
	Productivity  string  `json:"soil_productivity"`
}

type ClimateProfile struct {
	AnnualPrecipitationMM int     `json:"annual_precipitation_mm"`
	SunshineHours         int     `json:"sunshine_hours"`
	AverageTemperature    float64 `json:"average_temperature"`
	ClimateType           string  `json:"climate_type"`
}

// Attributes are the estimated site properties the scorer works on.
type Attributes struct {
	Latitude         float64        `json:"latitude"`
	Longitude        float64        `json:"longitude"`
	ElevationM       int            `json:"elevation_m"`
	SlopePercent     float64        `json:"slope_percent"`
	WaterDistanceKM  float64        `json:"water_distance_km"`
	NearestWaterName string         `json:"nearest_water_name"`
	NearestWaterType WaterType      `json:"nearest_water_type"`
	UrbanDistanceKM  float64        `json:"urban_distance_km"`
	Soil             SoilProfile    `json:"soil"`
	Climate          ClimateProfile `json:"climate"`
	LandcoverType    string         `json:"landcover_type"`
	RegionName       string         `json:"region_name"`
	DataSource       string         `json:"data_source"`
}

// EnrichedPoint is an analyzed coordinate together with its suitability verdict.
type EnrichedPoint struct {
	Attributes
	SuitabilityScore    int    `json:"suitability_score"`
	SuitabilityCategory string `json:"suitability_category"`
	SuitabilityReasons  string `json:"suitability_reasons"`
	DetailedReasons     string `json:"detailed_reasons"`
}
