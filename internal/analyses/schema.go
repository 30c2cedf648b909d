package analyses

import "encoding/json"

// Report mirrors the JSON document the model is instructed to return. Section
// pointers are nil when the section is missing entirely.
type Report struct {
	LocationAnalysis    *LocationAnalysis    `json:"location_analysis"`
	TechnicalSpecs      *TechnicalSpecs      `json:"technical_specifications"`
	EnergyProduction    *EnergyProduction    `json:"energy_production"`
	FinancialAnalysis   *FinancialAnalysis   `json:"financial_analysis"`
	EnvironmentalImpact *EnvironmentalImpact `json:"environmental_impact"`
	RegulatoryBenefits  *RegulatoryBenefits  `json:"regulatory_benefits"`
	Recommendations     *Recommendations     `json:"recommendations"`
}

type LocationAnalysis struct {
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	ClimateZone      string   `json:"climate_zone"`
	RoofOrientation  string   `json:"roof_orientation"`
	RoofTiltDegrees  float64  `json:"roof_tilt_degrees"`
	ShadingFactor    float64  `json:"shading_factor"`
}

type TechnicalSpecs struct {
	TotalRoofAreaM2       float64 `json:"total_roof_area_m2"`
	UsableRoofAreaM2      float64 `json:"usable_roof_area_m2"`
	AvgDailyIrradiance    float64 `json:"average_daily_irradiance_kWh_per_m2"`
	RecommendedCapacityKW float64 `json:"recommended_capacity_kW"`
	PanelCount            float64 `json:"panel_count"`
	PanelType             string  `json:"panel_type"`
	InverterCapacityKW    float64 `json:"inverter_capacity_kW"`
	SystemEfficiencyPct   float64 `json:"system_efficiency_percent"`
}

type EnergyProduction struct {
	DailyGenerationKWh   float64 `json:"estimated_daily_generation_kWh"`
	MonthlyGenerationKWh float64 `json:"estimated_monthly_generation_kWh"`
	AnnualGenerationKWh  float64 `json:"estimated_annual_generation_kWh"`
	CapacityFactorPct    float64 `json:"capacity_utilization_factor_percent"`
	PerformanceRatio     float64 `json:"performance_ratio"`
}

type FinancialAnalysis struct {
	TotalInstallationCostINR  float64 `json:"total_installation_cost_INR"`
	AnnualSavingsINR          float64 `json:"annual_electricity_savings_INR"`
	PaybackPeriodYears        float64 `json:"payback_period_years"`
	TwentyFiveYearSavingsINR  float64 `json:"25_year_savings_INR"`
	ReturnOnInvestmentPercent float64 `json:"return_on_investment_percent"`
}

type EnvironmentalImpact struct {
	AnnualCO2ReductionKg        float64 `json:"annual_CO2_reduction_kg"`
	TwentyFiveYearCO2Tons       float64 `json:"25_year_CO2_reduction_tons"`
	EquivalentTreesPlanted      float64 `json:"equivalent_trees_planted"`
}

type RegulatoryBenefits struct {
	SubsidyPercentage                float64 `json:"subsidy_percentage"`
	SubsidyAmountINR                 float64 `json:"subsidy_amount_INR"`
	NetMeteringAvailable             bool    `json:"net_metering_available"`
	AcceleratedDepreciationAvailable bool    `json:"accelerated_depreciation_available"`
}

type Recommendations struct {
	FeasibilityScore             float64  `json:"feasibility_score"`
	KeyAdvantages                []string `json:"key_advantages"`
	PotentialChallenges          []string `json:"potential_challenges"`
	ImplementationTimelineMonths float64  `json:"implementation_timeline_months"`
}

type sentinelResponse struct {
	Error     string `json:"error"`
	ValidData *bool  `json:"valid_data"`
}

// IsInvalidRooftop reports whether the response is the model's sentinel for
// an image that does not show a usable rooftop.
func IsInvalidRooftop(raw []byte) bool {
	var sentinel sentinelResponse
	if err := json.Unmarshal(raw, &sentinel); err != nil {
		return false
	}
	if sentinel.ValidData != nil && !*sentinel.ValidData {
		return true
	}
	return false
}
