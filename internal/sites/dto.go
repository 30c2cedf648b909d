package sites

import "time"

// SiteResponse is the outward-facing representation of a site.
type SiteResponse struct {
	SiteID       string    `json:"siteId"`
	Kind         string    `json:"kind"`
	FileName     string    `json:"fileName,omitempty"`
	MimeType     string    `json:"mimeType,omitempty"`
	SizeBytes    int64     `json:"sizeBytes,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	RoofAreaM2   float64   `json:"roofAreaM2,omitempty"`
	BuildingType string    `json:"buildingType,omitempty"`
	RoofType     string    `json:"roofType,omitempty"`
	Floors       int       `json:"floors,omitempty"`
	RoofAccess   string    `json:"roofAccess,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toResponse(site Site) SiteResponse {
	return SiteResponse{
		SiteID:       site.ID,
		Kind:         site.Kind,
		FileName:     site.FileName,
		MimeType:     site.MimeType,
		SizeBytes:    site.SizeBytes,
		Latitude:     site.Latitude,
		Longitude:    site.Longitude,
		RoofAreaM2:   site.RoofAreaM2,
		BuildingType: site.BuildingType,
		RoofType:     site.RoofType,
		Floors:       site.Floors,
		RoofAccess:   site.RoofAccess,
		CreatedAt:    site.CreatedAt,
	}
}
