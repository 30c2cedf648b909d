package sites

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements SitesRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new site.
func (r *PGRepo) Create(ctx context.Context, site Site) error {
	const query = `
INSERT INTO sites (
    id,
    user_id,
    kind,
    file_name,
    mime_type,
    size_bytes,
    storage_key,
    latitude,
    longitude,
    roof_area_m2,
    building_type,
    roof_type,
    floors,
    roof_access,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		site.ID,
		site.UserID,
		site.Kind,
		nullString(site.FileName),
		nullString(site.MimeType),
		site.SizeBytes,
		nullString(site.StorageKey),
		nullFloat(site.Latitude),
		nullFloat(site.Longitude),
		site.RoofAreaM2,
		nullString(site.BuildingType),
		nullString(site.RoofType),
		site.Floors,
		nullString(site.RoofAccess),
		site.CreatedAt,
	)
	return err
}

const siteColumns = `id, user_id, kind, file_name, mime_type, size_bytes, storage_key, latitude, longitude, roof_area_m2, building_type, roof_type, floors, roof_access, created_at`

// GetByID fetches a site by ID for a user.
func (r *PGRepo) GetByID(ctx context.Context, userId, siteID string) (Site, error) {
	const query = `
SELECT ` + siteColumns + `
FROM sites
WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, userId, siteID))
}

// GetCurrentByUser returns the latest site for a user.
func (r *PGRepo) GetCurrentByUser(ctx context.Context, userId string) (Site, error) {
	const query = `
SELECT ` + siteColumns + `
FROM sites
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, userId))
}

// ListByUser lists sites ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userId string, limit, offset int) ([]Site, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT ` + siteColumns + `
FROM sites
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userId, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, site)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) scanOne(row rowScanner) (Site, error) {
	site, err := scanSite(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Site{}, ErrNotFound
		}
		return Site{}, err
	}
	return site, nil
}

func scanSite(row rowScanner) (Site, error) {
	var site Site
	var fileName, mimeType, storageKey, buildingType, roofType, roofAccess sql.NullString
	var lat, lon sql.NullFloat64
	var roofArea sql.NullFloat64
	var floors sql.NullInt64

	err := row.Scan(
		&site.ID,
		&site.UserID,
		&site.Kind,
		&fileName,
		&mimeType,
		&site.SizeBytes,
		&storageKey,
		&lat,
		&lon,
		&roofArea,
		&buildingType,
		&roofType,
		&floors,
		&roofAccess,
		&site.CreatedAt,
	)
	if err != nil {
		return Site{}, err
	}

	if fileName.Valid {
		site.FileName = fileName.String
	}
	if mimeType.Valid {
		site.MimeType = mimeType.String
	}
	if storageKey.Valid {
		site.StorageKey = storageKey.String
	}
	if lat.Valid {
		v := lat.Float64
		site.Latitude = &v
	}
	if lon.Valid {
		v := lon.Float64
		site.Longitude = &v
	}
	if roofArea.Valid {
		site.RoofAreaM2 = roofArea.Float64
	}
	if buildingType.Valid {
		site.BuildingType = buildingType.String
	}
	if roofType.Valid {
		site.RoofType = roofType.String
	}
	if floors.Valid {
		site.Floors = int(floors.Int64)
	}
	if roofAccess.Valid {
		site.RoofAccess = roofAccess.String
	}
	return site, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

var _ SitesRepo = (*PGRepo)(nil)
