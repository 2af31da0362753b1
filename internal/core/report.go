package core

import (
	"agri_service/internal/domain/model"
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultTopAreas  = 10
	reportedTopAreas = 3
)

// formatDecimal prints v in its shortest form but always with a fractional part,
// so 3 becomes "3.0" and 12.25 stays "12.25".
func formatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// NewAreaDetail renders p for the top-areas listing.
func NewAreaDetail(rank int, p model.EnrichedPoint) model.AreaDetail {
	return model.AreaDetail{
		Rank:          rank,
		Coordinates:   fmt.Sprintf("%.4f, %.4f", p.Latitude, p.Longitude),
		Score:         p.SuitabilityScore,
		Category:      p.SuitabilityCategory,
		Water:         fmt.Sprintf("%skm (%s)", formatDecimal(p.WaterDistanceKM), p.NearestWaterName),
		Slope:         formatDecimal(p.SlopePercent) + "%",
		Elevation:     fmt.Sprintf("%dm", p.ElevationM),
		Soil:          fmt.Sprintf("%s (pH:%s)", p.Soil.Type, formatDecimal(p.Soil.PH)),
		Precipitation: fmt.Sprintf("%dmm", p.Climate.AnnualPrecipitationMM),
		Sunshine:      fmt.Sprintf("%d hours", p.Climate.SunshineHours),
		Details:       p.DetailedReasons,
	}
}

func formatSuccessRate(summary model.AnalysisSummary) string {
	if summary.TotalAnalyzed == 0 {
		return "0"
	}
	return formatDecimal(summary.SuccessRate)
}

// FormatReport renders the human readable summary. Only the first three areas of top
// are listed; processingSeconds is rounded to two decimals.
func FormatReport(summary model.AnalysisSummary, top []model.AreaDetail, processingSeconds float64) string {
	var b strings.Builder

	b.WriteString("🌾 COMPREHENSIVE AGRICULTURAL PRODUCTIVITY ANALYSIS\n")
	b.WriteString(strings.Repeat("=", 65) + "\n")

	b.WriteString("📊 COMPREHENSIVE PRODUCTIVITY REPORT:\n")
	fmt.Fprintf(&b, "Total analyzed: %d\n", summary.TotalAnalyzed)
	fmt.Fprintf(&b, "Productive areas: %d\n", summary.ProductiveAreas)
	fmt.Fprintf(&b, "Success rate: %s%%\n\n", formatSuccessRate(summary))

	b.WriteString("🏆 TOP 3 MOST PRODUCTIVE AREAS:\n\n")

	if len(top) > reportedTopAreas {
		top = top[:reportedTopAreas]
	}
	for _, area := range top {
		fmt.Fprintf(&b, "📍 %d. %s\n", area.Rank, area.Coordinates)
		fmt.Fprintf(&b, "   🎯 PRODUCTIVITY SCORE: %d/100\n", area.Score)
		fmt.Fprintf(&b, "   📈 CATEGORY: %s\n", area.Category)
		fmt.Fprintf(&b, "   💧 WATER: %s\n", area.Water)
		fmt.Fprintf(&b, "   📐 SLOPE: %s\n", area.Slope)
		fmt.Fprintf(&b, "   ⛰ ELEVATION: %s\n", area.Elevation)
		fmt.Fprintf(&b, "   🌱 SOIL: %s\n", area.Soil)
		fmt.Fprintf(&b, "   🌧 PRECIPITATION: %s\n", area.Precipitation)
		fmt.Fprintf(&b, "   ☀ SUNSHINE: %s\n", area.Sunshine)
		fmt.Fprintf(&b, "   📝 DETAILS: %s\n\n", area.Details)
	}

	fmt.Fprintf(&b, "⏱ Total time: %s seconds\n", formatDecimal(round2(processingSeconds)))
	return b.String()
}
