package core

import (
	"agri_service/internal/domain/model"
	"fmt"
	"strings"
)

const (
	CategoryHighlyProductive     = "HIGHLY PRODUCTIVE"
	CategoryProductive           = "PRODUCTIVE"
	CategoryModeratelyProductive = "MODERATELY PRODUCTIVE"
	CategoryLowProductivity      = "LOW PRODUCTIVITY"
)

var landcoverKeywords = []string{"farm", "agricultural", "orchard", "vineyard"}

// Score applies the additive rule table. Each criterion contributes at most one tier,
// so the result never exceeds 93.
func Score(a model.Attributes) (int, string, string) {
	score := 0
	var reasons, details []string

	add := func(points int, reason, detail string) {
		score += points
		reasons = append(reasons, reason)
		details = append(details, detail)
	}

	switch {
	case a.WaterDistanceKM <= 5:
		add(25, "very close to water", fmt.Sprintf("💧 Water: %.1fkm (%s) - EXCELLENT", a.WaterDistanceKM, a.NearestWaterName))
	case a.WaterDistanceKM <= 10:
		add(18, "close to water", fmt.Sprintf("💧 Water: %.1fkm (%s) - GOOD", a.WaterDistanceKM, a.NearestWaterName))
	}

	switch {
	case a.SlopePercent <= 5:
		add(20, "low slope", fmt.Sprintf("📐 Slope: %.1f%% - EXCELLENT", a.SlopePercent))
	case a.SlopePercent <= 10:
		add(15, "medium slope", fmt.Sprintf("📐 Slope: %.1f%% - GOOD", a.SlopePercent))
	}

	switch {
	case a.ElevationM <= 800:
		add(15, "low elevation", fmt.Sprintf("⛰ Elevation: %dm - EXCELLENT", a.ElevationM))
	case a.ElevationM <= 1500:
		add(10, "medium elevation", fmt.Sprintf("⛰ Elevation: %dm - GOOD", a.ElevationM))
	}

	switch a.Soil.Productivity {
	case "high":
		add(10, "fertile soil", fmt.Sprintf("🌱 Soil: %s (pH:%s) - EXCELLENT", a.Soil.Type, formatDecimal(a.Soil.PH)))
	case "medium-high":
		add(7, "good soil", fmt.Sprintf("🌱 Soil: %s (pH:%s) - GOOD", a.Soil.Type, formatDecimal(a.Soil.PH)))
	}

	if p := a.Climate.AnnualPrecipitationMM; p >= 400 && p <= 800 {
		add(8, "ideal precipitation", fmt.Sprintf("🌧 Precipitation: %dmm - EXCELLENT", p))
	}

	if h := a.Climate.SunshineHours; h >= 1800 && h <= 2800 {
		add(7, "ideal sunshine", fmt.Sprintf("☀ Sunshine: %d hours - EXCELLENT", h))
	}

	landcover := strings.ToLower(a.LandcoverType)
	for _, keyword := range landcoverKeywords {
		if strings.Contains(landcover, keyword) {
			add(8, "existing agricultural land", fmt.Sprintf("🏞 Landcover: %s - BONUS", landcover))
			break
		}
	}

	return score, strings.Join(reasons, model.ReasonSeparator), strings.Join(details, model.DetailSeparator)
}

func Categorize(score int) string {
	switch {
	case score >= 80:
		return CategoryHighlyProductive
	case score >= 70:
		return CategoryProductive
	case score >= 60:
		return CategoryModeratelyProductive
	default:
		return CategoryLowProductivity
	}
}

// Evaluate attaches the score and category to a.
func Evaluate(a model.Attributes) model.EnrichedPoint {
	score, reasons, details := Score(a)
	return model.EnrichedPoint{
		Attributes:          a,
		SuitabilityScore:    score,
		SuitabilityCategory: Categorize(score),
		SuitabilityReasons:  reasons,
		DetailedReasons:     details,
	}
}
