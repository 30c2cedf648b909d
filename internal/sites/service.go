package sites

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"solar-backend/internal/shared/storage/object"
)

var allowedImageMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// SiteDetails carries optional building metadata supplied with a site.
type SiteDetails struct {
	RoofAreaM2   float64
	BuildingType string
	RoofType     string
	Floors       int
	RoofAccess   string
}

// Service contains business logic for sites.
type Service struct {
	Store object.ObjectStore
	Repo  SitesRepo
}

// UploadImage saves a rooftop image to object storage and records the site.
func (s *Service) UploadImage(ctx context.Context, userId, fileName string, r io.Reader, details SiteDetails) (Site, error) {
	if fileName == "" {
		return Site{}, ErrInvalidInput
	}
	if !allowedImageExts[strings.ToLower(filepath.Ext(fileName))] {
		return Site{}, ErrUnsupportedMedia
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, userId, fileName, r)
	if err != nil {
		return Site{}, err
	}
	if !allowedImageMIMEs[mimeType] {
		return Site{}, ErrUnsupportedMedia
	}

	site := Site{
		ID:           uuid.NewString(),
		UserID:       userId,
		Kind:         KindImage,
		FileName:     fileName,
		MimeType:     mimeType,
		SizeBytes:    size,
		StorageKey:   storageKey,
		RoofAreaM2:   details.RoofAreaM2,
		BuildingType: details.BuildingType,
		RoofType:     details.RoofType,
		Floors:       details.Floors,
		RoofAccess:   details.RoofAccess,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, site); err != nil {
		return Site{}, err
	}

	return site, nil
}

// CreateFromCoordinates records a coordinate-based site.
func (s *Service) CreateFromCoordinates(ctx context.Context, userId string, lat, lon float64, details SiteDetails) (Site, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Site{}, ErrInvalidInput
	}

	site := Site{
		ID:           uuid.NewString(),
		UserID:       userId,
		Kind:         KindCoordinates,
		Latitude:     &lat,
		Longitude:    &lon,
		RoofAreaM2:   details.RoofAreaM2,
		BuildingType: details.BuildingType,
		RoofType:     details.RoofType,
		Floors:       details.Floors,
		RoofAccess:   details.RoofAccess,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, site); err != nil {
		return Site{}, err
	}

	return site, nil
}

// Get returns a site by ID for a user.
func (s *Service) Get(ctx context.Context, userId, siteID string) (Site, error) {
	if siteID == "" {
		return Site{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userId, siteID)
}

// Current returns the most recent site for a user.
func (s *Service) Current(ctx context.Context, userId string) (Site, error) {
	return s.Repo.GetCurrentByUser(ctx, userId)
}

// List returns sites for a user, newest first.
func (s *Service) List(ctx context.Context, userId string, limit, offset int) ([]Site, error) {
	return s.Repo.ListByUser(ctx, userId, limit, offset)
}
