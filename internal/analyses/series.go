package analyses

// Seasonal scaling applied to the flat monthly average, January through December.
var monthlySeasonalFactors = [12]float64{0.85, 0.90, 0.95, 1.00, 1.05, 1.10, 1.10, 1.05, 1.00, 0.95, 0.90, 0.85}

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

const co2ProjectionYears = 25

// MonthlyPoint is one month of estimated generation.
type MonthlyPoint struct {
	Month         string  `json:"month"`
	GenerationKWh float64 `json:"generationKWh"`
}

// CO2Point is the cumulative CO2 reduction at the end of a given year.
type CO2Point struct {
	Year           int     `json:"year"`
	CumulativeTons float64 `json:"cumulativeTons"`
}

// CostBreakdown splits the installation cost into the subsidized portion and
// what the owner pays.
type CostBreakdown struct {
	NetCostINR float64 `json:"netCostINR"`
	SubsidyINR float64 `json:"subsidyINR"`
}

// Series holds chart-ready data derived from a completed report.
type Series struct {
	MonthlyGeneration []MonthlyPoint `json:"monthlyGeneration"`
	CumulativeCO2     []CO2Point     `json:"cumulativeCO2"`
	CostBreakdown     CostBreakdown  `json:"costBreakdown"`
}

// BuildSeries derives chart series from a validated report.
func BuildSeries(report map[string]any) Series {
	monthlyGen := numberAt(report, "energy_production", "estimated_monthly_generation_kWh")
	annualCO2Kg := numberAt(report, "environmental_impact", "annual_CO2_reduction_kg")
	totalCost := numberAt(report, "financial_analysis", "total_installation_cost_INR")
	subsidy := numberAt(report, "regulatory_benefits", "subsidy_amount_INR")

	var series Series

	series.MonthlyGeneration = make([]MonthlyPoint, len(monthNames))
	for i := range monthNames {
		series.MonthlyGeneration[i] = MonthlyPoint{
			Month:         monthNames[i],
			GenerationKWh: monthlyGen * monthlySeasonalFactors[i],
		}
	}

	series.CumulativeCO2 = make([]CO2Point, co2ProjectionYears)
	for year := 1; year <= co2ProjectionYears; year++ {
		series.CumulativeCO2[year-1] = CO2Point{
			Year:           year,
			CumulativeTons: annualCO2Kg * float64(year) / 1000.0,
		}
	}

	netCost := totalCost - subsidy
	if netCost < 0 {
		netCost = 0
	}
	series.CostBreakdown = CostBreakdown{
		NetCostINR: netCost,
		SubsidyINR: subsidy,
	}

	return series
}

func numberAt(report map[string]any, section, key string) float64 {
	raw, ok := report[section]
	if !ok {
		return 0
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return 0
	}
	value, ok := obj[key]
	if !ok {
		return 0
	}
	num, ok := value.(float64)
	if !ok {
		return 0
	}
	return num
}
