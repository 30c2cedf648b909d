package analyses_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"solar-backend/internal/analyses"
	"solar-backend/internal/bootstrap"
	"solar-backend/internal/llm"
	"solar-backend/internal/shared/config"
)

const validReportJSON = `{
  "location_analysis": {"latitude": 12.97, "longitude": 77.59, "climate_zone": "tropical", "roof_orientation": "flat", "roof_tilt_degrees": 10, "shading_factor": 0.95},
  "technical_specifications": {"total_roof_area_m2": 120, "usable_roof_area_m2": 90, "average_daily_irradiance_kWh_per_m2": 5.5, "recommended_capacity_kW": 13.5, "panel_count": 34, "panel_type": "monocrystalline", "inverter_capacity_kW": 12, "system_efficiency_percent": 82},
  "energy_production": {"estimated_daily_generation_kWh": 58, "estimated_monthly_generation_kWh": 1740, "estimated_annual_generation_kWh": 20100, "capacity_utilization_factor_percent": 17, "performance_ratio": 0.79},
  "financial_analysis": {"total_installation_cost_INR": 607500, "annual_electricity_savings_INR": 150750, "payback_period_years": 4.0, "25_year_savings_INR": 3768750, "return_on_investment_percent": 24.8},
  "environmental_impact": {"annual_CO2_reduction_kg": 16482, "25_year_CO2_reduction_tons": 412.1, "equivalent_trees_planted": 749},
  "regulatory_benefits": {"subsidy_percentage": 20, "subsidy_amount_INR": 121500, "net_metering_available": true, "accelerated_depreciation_available": false},
  "recommendations": {"feasibility_score": 8, "key_advantages": ["high irradiance"], "potential_challenges": ["dust"], "implementation_timeline_months": 4}
}`

type staticLLM struct {
	resp string
}

func (s staticLLM) AnalyzeRooftop(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return json.RawMessage(s.resp), nil
}

func buildTestApp(t *testing.T, client llm.Client) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		ObjectStoreType: "local",
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	if client != nil {
		app.AnalysesService.LLM = client
		app.AnalysesService.RetryDelay = time.Millisecond
	}
	return app
}

func addGuestHeader(req *http.Request) {
	req.Header.Set("X-Guest-Id", "test-guest")
}

func createCoordinateSite(t *testing.T, app *bootstrap.App) string {
	t.Helper()
	payload := `{"latitude": 12.97, "longitude": 77.59, "roofAreaM2": 120}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sites/coordinates", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("create site: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		SiteID string `json:"siteId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode site response: %v", err)
	}
	return created.SiteID
}

func startAnalysis(t *testing.T, app *bootstrap.App, siteID string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sites/"+siteID+"/analyze", nil)
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("start analysis: expected 202, got %d: %s", resp.Code, resp.Body.String())
	}
	var started struct {
		AnalysisID string `json:"analysisId"`
		Status     string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		t.Fatalf("decode start response: %v", err)
	}
	if started.Status != "queued" {
		t.Fatalf("expected queued status, got %s", started.Status)
	}
	return started.AnalysisID
}

func pollUntilDone(t *testing.T, app *bootstrap.App, analysisID string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+analysisID, nil)
		addGuestHeader(req)
		resp := httptest.NewRecorder()
		app.Router.ServeHTTP(resp, req)

		if resp.Code != http.StatusOK {
			t.Fatalf("poll: expected 200, got %d: %s", resp.Code, resp.Body.String())
		}
		var body map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode poll response: %v", err)
		}
		status, _ := body["status"].(string)
		if status == "completed" || status == "failed" {
			return body
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("analysis %s did not finish in time", analysisID)
	return nil
}

func TestAnalyzeEndToEnd(t *testing.T) {
	app := buildTestApp(t, staticLLM{resp: validReportJSON})
	siteID := createCoordinateSite(t, app)
	analysisID := startAnalysis(t, app, siteID)

	body := pollUntilDone(t, app, analysisID)
	if body["status"] != "completed" {
		t.Fatalf("expected completed, got %v (%v)", body["status"], body["error"])
	}
	report, ok := body["report"].(map[string]any)
	if !ok {
		t.Fatalf("expected report object, got %T", body["report"])
	}
	if _, ok := report["recommendations"]; !ok {
		t.Fatalf("expected recommendations in report")
	}
}

func TestAnalyzeFailureSurfacesErrorCode(t *testing.T) {
	app := buildTestApp(t, staticLLM{resp: `{"error": "Invalid rooftop image", "valid_data": false}`})
	siteID := createCoordinateSite(t, app)
	analysisID := startAnalysis(t, app, siteID)

	body := pollUntilDone(t, app, analysisID)
	if body["status"] != "failed" {
		t.Fatalf("expected failed, got %v", body["status"])
	}
	errObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object, got %T", body["error"])
	}
	if errObj["code"] != analyses.ErrorCodeInvalidRooftop {
		t.Fatalf("expected %s, got %v", analyses.ErrorCodeInvalidRooftop, errObj["code"])
	}
	if retryable, _ := errObj["retryable"].(bool); retryable {
		t.Fatalf("expected retryable false")
	}
}

func TestReportDownload(t *testing.T) {
	app := buildTestApp(t, staticLLM{resp: validReportJSON})
	siteID := createCoordinateSite(t, app)
	analysisID := startAnalysis(t, app, siteID)
	pollUntilDone(t, app, analysisID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+analysisID+"/report", nil)
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	disposition := resp.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "attachment") || !strings.Contains(disposition, analysisID) {
		t.Fatalf("unexpected Content-Disposition %q", disposition)
	}
	var report map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if _, ok := report["financial_analysis"]; !ok {
		t.Fatalf("expected financial_analysis section in download")
	}
}

func TestReportDownloadNotReady(t *testing.T) {
	app := buildTestApp(t, staticLLM{resp: `{"error": "Invalid rooftop image", "valid_data": false}`})
	siteID := createCoordinateSite(t, app)
	analysisID := startAnalysis(t, app, siteID)
	pollUntilDone(t, app, analysisID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+analysisID+"/report", nil)
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 for failed analysis report, got %d", resp.Code)
	}
}

func TestSeriesEndpoint(t *testing.T) {
	app := buildTestApp(t, staticLLM{resp: validReportJSON})
	siteID := createCoordinateSite(t, app)
	analysisID := startAnalysis(t, app, siteID)
	pollUntilDone(t, app, analysisID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+analysisID+"/series", nil)
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var series struct {
		MonthlyGeneration []struct {
			Month         string  `json:"month"`
			GenerationKWh float64 `json:"generationKWh"`
		} `json:"monthlyGeneration"`
		CumulativeCO2 []struct {
			Year int `json:"year"`
		} `json:"cumulativeCO2"`
		CostBreakdown struct {
			NetCostINR float64 `json:"netCostINR"`
			SubsidyINR float64 `json:"subsidyINR"`
		} `json:"costBreakdown"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&series); err != nil {
		t.Fatalf("decode series: %v", err)
	}
	if len(series.MonthlyGeneration) != 12 {
		t.Fatalf("expected 12 monthly points, got %d", len(series.MonthlyGeneration))
	}
	if len(series.CumulativeCO2) != 25 {
		t.Fatalf("expected 25 CO2 points, got %d", len(series.CumulativeCO2))
	}
	if series.CostBreakdown.NetCostINR != 607500-121500 {
		t.Fatalf("unexpected net cost %v", series.CostBreakdown.NetCostINR)
	}
}

func TestAnalysisOwnershipEnforced(t *testing.T) {
	app := buildTestApp(t, staticLLM{resp: validReportJSON})
	siteID := createCoordinateSite(t, app)
	analysisID := startAnalysis(t, app, siteID)
	pollUntilDone(t, app, analysisID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+analysisID, nil)
	req.Header.Set("X-User-Id", "someone-else")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign analysis, got %d", resp.Code)
	}
}

func TestAnalyzeUnknownSite(t *testing.T) {
	app := buildTestApp(t, staticLLM{resp: validReportJSON})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sites/does-not-exist/analyze", nil)
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown site, got %d", resp.Code)
	}
}
