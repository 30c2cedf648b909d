package analyses

const validReportJSON = `{
  "location_analysis": {"latitude": 28.6, "longitude": 77.2, "climate_zone": "tropical", "roof_orientation": "south", "roof_tilt_degrees": 15, "shading_factor": 0.9},
  "technical_specifications": {"total_roof_area_m2": 150, "usable_roof_area_m2": 110, "average_daily_irradiance_kWh_per_m2": 5.2, "recommended_capacity_kW": 16.5, "panel_count": 41, "panel_type": "monocrystalline", "inverter_capacity_kW": 15, "system_efficiency_percent": 82},
  "energy_production": {"estimated_daily_generation_kWh": 70, "estimated_monthly_generation_kWh": 2100, "estimated_annual_generation_kWh": 24500, "capacity_utilization_factor_percent": 18, "performance_ratio": 0.8},
  "financial_analysis": {"total_installation_cost_INR": 742500, "annual_electricity_savings_INR": 183750, "payback_period_years": 4.0, "25_year_savings_INR": 4593750, "return_on_investment_percent": 24.7},
  "environmental_impact": {"annual_CO2_reduction_kg": 20090, "25_year_CO2_reduction_tons": 502.2, "equivalent_trees_planted": 913},
  "regulatory_benefits": {"subsidy_percentage": 20, "subsidy_amount_INR": 148500, "net_metering_available": true, "accelerated_depreciation_available": false},
  "recommendations": {"feasibility_score": 8, "key_advantages": ["high irradiance"], "potential_challenges": ["monsoon shading"], "implementation_timeline_months": 4}
}`
