package model

// WaterType классифицирует водный объект из OSM
type WaterType string

const (
	WaterTypeRiver     WaterType = "river"
	WaterTypeStream    WaterType = "stream"
	WaterTypeLake      WaterType = "lake"
	WaterTypeReservoir WaterType = "reservoir"
	WaterTypeDam       WaterType = "dam"
	WaterTypeUnknown   WaterType = "unknown"
)

const (
	DefaultWaterName   = "Unnamed"
	WaterSourceOSMName = "OpenStreetMap"
)

// WaterFeature is a single cataloged water body, reduced to its center point.
type WaterFeature struct {
	Lat    float64   `json:"lat"`
	Lon    float64   `json:"lon"`
	Name   string    `json:"name"`
	Type   WaterType `json:"type"`
	Source string    `json:"source"`
}

// ClassifyWaterTags maps OSM tags to a water type. The second result is false when
// the tag combination is not one we catalog.
func ClassifyWaterTags(tags map[string]string) (WaterType, bool) {
	if waterway, ok := tags["waterway"]; ok {
		switch waterway {
		case "river":
			return WaterTypeRiver, true
		case "stream":
			return WaterTypeStream, true
		case "dam":
			return WaterTypeDam, true
		}
		return "", false
	}

	if tags["natural"] == "water" {
		return WaterTypeLake, true
	}

	switch tags["water"] {
	case "lake":
		return WaterTypeLake, true
	case "reservoir":
		return WaterTypeReservoir, true
	}

	return "", false
}
