package sites

import "context"

// SitesRepo defines persistence operations for sites.
type SitesRepo interface {
	Create(ctx context.Context, site Site) error
	GetByID(ctx context.Context, userId, siteID string) (Site, error)
	GetCurrentByUser(ctx context.Context, userId string) (Site, error)
	ListByUser(ctx context.Context, userId string, limit, offset int) ([]Site, error)
}
