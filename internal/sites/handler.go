package sites

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"solar-backend/internal/shared/server/middleware"
	"solar-backend/internal/shared/server/respond"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches site routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sites", h.upload)
	rg.POST("/sites/coordinates", h.createFromCoordinates)
	rg.GET("/sites/current", h.current)
	rg.GET("/sites", h.list)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "image is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read image", nil)
		return
	}
	defer file.Close()

	details := detailsFromForm(c)

	site, err := h.Svc.UploadImage(c.Request.Context(), userID, fileHeader.Filename, file, details)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedMedia):
			respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_media", "image must be JPEG, PNG, or WebP", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save site", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(site))
}

type coordinatesRequest struct {
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	RoofAreaM2   float64  `json:"roofAreaM2"`
	BuildingType string   `json:"buildingType"`
	RoofType     string   `json:"roofType"`
	Floors       int      `json:"floors"`
	RoofAccess   string   `json:"roofAccess"`
}

func (h *Handler) createFromCoordinates(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req coordinatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	if req.Latitude == nil || req.Longitude == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "latitude and longitude are required", nil)
		return
	}

	details := SiteDetails{
		RoofAreaM2:   req.RoofAreaM2,
		BuildingType: req.BuildingType,
		RoofType:     req.RoofType,
		Floors:       req.Floors,
		RoofAccess:   req.RoofAccess,
	}

	site, err := h.Svc.CreateFromCoordinates(c.Request.Context(), userID, *req.Latitude, *req.Longitude, details)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "latitude must be in [-90, 90] and longitude in [-180, 180]", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save site", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(site))
}

func (h *Handler) current(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	site, err := h.Svc.Current(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "site not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch site", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(site))
}

func (h *Handler) list(c *gin.Context) {
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
	if limit > 50 {
		limit = 50
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	userSites, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list sites", nil)
		return
	}

	resp := make([]SiteResponse, 0, len(userSites))
	for _, site := range userSites {
		resp = append(resp, toResponse(site))
	}

	respond.JSON(c, http.StatusOK, resp)
}

func detailsFromForm(c *gin.Context) SiteDetails {
	details := SiteDetails{
		BuildingType: c.PostForm("buildingType"),
		RoofType:     c.PostForm("roofType"),
		RoofAccess:   c.PostForm("roofAccess"),
	}
	if v := c.PostForm("roofAreaM2"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			details.RoofAreaM2 = parsed
		}
	}
	if v := c.PostForm("floors"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			details.Floors = parsed
		}
	}
	return details
}
