package analyses

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Bounds holds plausibility ranges applied to the parsed report. Violations
// produce warnings, not failures.
type Bounds struct {
	MinIrradiance       float64
	MaxIrradiance       float64
	MaxCapacityKW       float64
	MinEfficiencyPct    float64
	MaxEfficiencyPct    float64
	MaxPaybackYears     float64
	MinFeasibilityScore float64
	MaxFeasibilityScore float64
}

// DefaultBounds returns the standard plausibility ranges.
func DefaultBounds() Bounds {
	return Bounds{
		MinIrradiance:       3,
		MaxIrradiance:       7,
		MaxCapacityKW:       1000,
		MinEfficiencyPct:    0,
		MaxEfficiencyPct:    100,
		MaxPaybackYears:     30,
		MinFeasibilityScore: 1,
		MaxFeasibilityScore: 10,
	}
}

// BoundsFromEnv returns DefaultBounds with any BOUNDS_* overrides applied.
func BoundsFromEnv() Bounds {
	b := DefaultBounds()
	b.MinIrradiance = envFloat("BOUNDS_MIN_IRRADIANCE", b.MinIrradiance)
	b.MaxIrradiance = envFloat("BOUNDS_MAX_IRRADIANCE", b.MaxIrradiance)
	b.MaxCapacityKW = envFloat("BOUNDS_MAX_CAPACITY_KW", b.MaxCapacityKW)
	b.MinEfficiencyPct = envFloat("BOUNDS_MIN_EFFICIENCY_PCT", b.MinEfficiencyPct)
	b.MaxEfficiencyPct = envFloat("BOUNDS_MAX_EFFICIENCY_PCT", b.MaxEfficiencyPct)
	b.MaxPaybackYears = envFloat("BOUNDS_MAX_PAYBACK_YEARS", b.MaxPaybackYears)
	b.MinFeasibilityScore = envFloat("BOUNDS_MIN_FEASIBILITY_SCORE", b.MinFeasibilityScore)
	b.MaxFeasibilityScore = envFloat("BOUNDS_MAX_FEASIBILITY_SCORE", b.MaxFeasibilityScore)
	return b
}

func envFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

var requiredSections = []string{
	"location_analysis",
	"technical_specifications",
	"energy_production",
	"financial_analysis",
}

// Advisory sections may be absent, but when present they must be objects.
var advisorySections = []string{
	"environmental_impact",
	"regulatory_benefits",
	"recommendations",
}

// ValidateReport parses a cleaned model response and checks it against the
// expected report shape. Missing sections are a hard failure; values outside
// the plausibility bounds are returned as warnings alongside the report.
func ValidateReport(raw []byte, bounds Bounds) (map[string]any, []string, error) {
	var report map[string]any
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, nil, fmt.Errorf("report parse: %w", err)
	}

	var bad []string
	for _, section := range requiredSections {
		value, ok := report[section]
		if !ok || value == nil {
			bad = append(bad, section)
			continue
		}
		if _, isObject := value.(map[string]any); !isObject {
			bad = append(bad, section)
		}
	}
	for _, section := range advisorySections {
		value, ok := report[section]
		if !ok || value == nil {
			continue
		}
		if _, isObject := value.(map[string]any); !isObject {
			bad = append(bad, section)
		}
	}
	if len(bad) > 0 {
		return nil, nil, fmt.Errorf("report schema: missing or malformed sections: %s", strings.Join(bad, ", "))
	}

	var typed Report
	if err := json.Unmarshal(raw, &typed); err != nil {
		return nil, nil, fmt.Errorf("report parse: %w", err)
	}

	warnings := checkBounds(typed, bounds)
	return report, warnings, nil
}

func checkBounds(report Report, bounds Bounds) []string {
	var warnings []string

	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	if loc := report.LocationAnalysis; loc != nil {
		if loc.Latitude != nil && (*loc.Latitude < -90 || *loc.Latitude > 90) {
			warn("location_analysis.latitude %.2f outside [-90, 90]", *loc.Latitude)
		}
		if loc.Longitude != nil && (*loc.Longitude < -180 || *loc.Longitude > 180) {
			warn("location_analysis.longitude %.2f outside [-180, 180]", *loc.Longitude)
		}
		if loc.ShadingFactor != 0 && (loc.ShadingFactor < 0 || loc.ShadingFactor > 1) {
			warn("location_analysis.shading_factor %.2f outside [0, 1]", loc.ShadingFactor)
		}
	}

	if spec := report.TechnicalSpecs; spec != nil {
		if spec.RecommendedCapacityKW <= 0 || spec.RecommendedCapacityKW > bounds.MaxCapacityKW {
			warn("technical_specifications.recommended_capacity_kW %.2f outside (0, %.0f]", spec.RecommendedCapacityKW, bounds.MaxCapacityKW)
		}
		if spec.SystemEfficiencyPct <= bounds.MinEfficiencyPct || spec.SystemEfficiencyPct > bounds.MaxEfficiencyPct {
			warn("technical_specifications.system_efficiency_percent %.2f outside (%.0f, %.0f]", spec.SystemEfficiencyPct, bounds.MinEfficiencyPct, bounds.MaxEfficiencyPct)
		}
		if spec.AvgDailyIrradiance != 0 && (spec.AvgDailyIrradiance < bounds.MinIrradiance || spec.AvgDailyIrradiance > bounds.MaxIrradiance) {
			warn("technical_specifications.average_daily_irradiance_kWh_per_m2 %.2f outside [%.1f, %.1f]", spec.AvgDailyIrradiance, bounds.MinIrradiance, bounds.MaxIrradiance)
		}
		if spec.UsableRoofAreaM2 > spec.TotalRoofAreaM2 && spec.TotalRoofAreaM2 > 0 {
			warn("technical_specifications.usable_roof_area_m2 %.2f exceeds total_roof_area_m2 %.2f", spec.UsableRoofAreaM2, spec.TotalRoofAreaM2)
		}
	}

	if energy := report.EnergyProduction; energy != nil {
		if energy.AnnualGenerationKWh < 0 {
			warn("energy_production.estimated_annual_generation_kWh %.2f is negative", energy.AnnualGenerationKWh)
		}
	}

	if fin := report.FinancialAnalysis; fin != nil {
		if fin.PaybackPeriodYears <= 0 || fin.PaybackPeriodYears > bounds.MaxPaybackYears {
			warn("financial_analysis.payback_period_years %.2f outside (0, %.0f]", fin.PaybackPeriodYears, bounds.MaxPaybackYears)
		}
		if fin.TotalInstallationCostINR < 0 {
			warn("financial_analysis.total_installation_cost_INR %.2f is negative", fin.TotalInstallationCostINR)
		}
	}

	if env := report.EnvironmentalImpact; env != nil {
		if env.AnnualCO2ReductionKg < 0 {
			warn("environmental_impact.annual_CO2_reduction_kg %.2f is negative", env.AnnualCO2ReductionKg)
		}
	}

	if rec := report.Recommendations; rec != nil {
		if rec.FeasibilityScore < bounds.MinFeasibilityScore || rec.FeasibilityScore > bounds.MaxFeasibilityScore {
			warn("recommendations.feasibility_score %.2f outside [%.0f, %.0f]", rec.FeasibilityScore, bounds.MinFeasibilityScore, bounds.MaxFeasibilityScore)
		}
	}

	return warnings
}
