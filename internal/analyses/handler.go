package analyses

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"solar-backend/internal/shared/server/middleware"
	"solar-backend/internal/shared/server/respond"
	"solar-backend/internal/sites"
)

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc       *Service
	SitesRepo sites.SitesRepo
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, sitesRepo sites.SitesRepo) *Handler {
	return &Handler{Svc: svc, SitesRepo: sitesRepo}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sites/:id/analyze", h.startAnalysis)
	rg.GET("/analyses", h.listAnalyses)
	rg.GET("/analyses/:id", h.getAnalysis)
	rg.GET("/analyses/:id/report", h.downloadReport)
	rg.GET("/analyses/:id/series", h.getSeries)
}

func (h *Handler) startAnalysis(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	siteID := c.Param("id")
	if siteID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "site id is required", nil)
		return
	}

	site, err := h.SitesRepo.GetByID(c.Request.Context(), userID, siteID)
	if err != nil {
		switch {
		case errors.Is(err, sites.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "site not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start analysis", nil)
		}
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	analysis, err := h.Svc.Create(ctx, site.ID, userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start analysis", nil)
		return
	}

	respond.JSON(c, http.StatusAccepted, gin.H{
		"analysisId": analysis.ID,
		"status":     analysis.Status,
	})
}

func (h *Handler) getAnalysis(c *gin.Context) {
	analysis, ok := h.loadOwned(c)
	if !ok {
		return
	}

	resp := gin.H{
		"id":     analysis.ID,
		"siteId": analysis.SiteID,
		"status": analysis.Status,
	}
	if analysis.Status == StatusCompleted && analysis.Report != nil {
		resp["report"] = analysis.Report
		if len(analysis.Warnings) > 0 {
			resp["warnings"] = analysis.Warnings
		}
	}
	if analysis.Status == StatusFailed {
		resp["error"] = gin.H{
			"code":      analysis.ErrorCode,
			"message":   analysis.ErrorMessage,
			"retryable": analysis.ErrorRetryable,
		}
	}

	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) downloadReport(c *gin.Context) {
	analysis, ok := h.loadOwned(c)
	if !ok {
		return
	}

	if analysis.Status != StatusCompleted || analysis.Report == nil {
		respond.Error(c, http.StatusConflict, "not_ready", "report is not available yet", nil)
		return
	}

	fileName := fmt.Sprintf("solar-report-%s.json", analysis.ID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	respond.JSON(c, http.StatusOK, analysis.Report)
}

func (h *Handler) getSeries(c *gin.Context) {
	analysis, ok := h.loadOwned(c)
	if !ok {
		return
	}

	if analysis.Status != StatusCompleted || analysis.Report == nil {
		respond.Error(c, http.StatusConflict, "not_ready", "series is not available yet", nil)
		return
	}

	respond.JSON(c, http.StatusOK, BuildSeries(analysis.Report))
}

func (h *Handler) loadOwned(c *gin.Context) (Analysis, bool) {
	userID := middleware.UserIDFromContext(c)
	analysisID := c.Param("id")
	if analysisID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "analysis id is required", nil)
		return Analysis{}, false
	}

	analysis, err := h.Svc.Get(c.Request.Context(), analysisID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch analysis", nil)
		}
		return Analysis{}, false
	}
	if analysis.UserID != userID {
		respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		return Analysis{}, false
	}

	return analysis, true
}

func (h *Handler) listAnalyses(c *gin.Context) {
	if isGuest, ok := c.Get("isGuest"); ok {
		if guest, ok2 := isGuest.(bool); ok2 && guest {
			respond.Error(c, http.StatusUnauthorized, "login_required", "Login required to view history", nil)
			return
		}
	}

	userID := middleware.UserIDFromContext(c)

	limit := 20
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	items, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list analyses", nil)
		return
	}

	resp := make([]gin.H, 0, len(items))
	for _, a := range items {
		item := gin.H{
			"analysisId": a.ID,
			"siteId":     a.SiteID,
			"status":     a.Status,
			"createdAt":  a.CreatedAt,
		}
		if a.Status == StatusCompleted && a.Report != nil {
			if rec, ok := a.Report["recommendations"].(map[string]any); ok {
				if score, ok := rec["feasibility_score"]; ok {
					item["feasibilityScore"] = score
				}
			}
		}
		resp = append(resp, item)
	}

	respond.JSON(c, http.StatusOK, resp)
}
