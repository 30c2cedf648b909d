package sites

import "time"

// Site kinds.
const (
	KindImage       = "image"
	KindCoordinates = "coordinates"
)

// Site represents a rooftop location submitted for analysis, either as an
// uploaded image or as a pair of coordinates.
type Site struct {
	ID           string
	UserID       string
	Kind         string
	FileName     string
	MimeType     string
	SizeBytes    int64
	StorageKey   string
	Latitude     *float64
	Longitude    *float64
	RoofAreaM2   float64
	BuildingType string
	RoofType     string
	Floors       int
	RoofAccess   string
	CreatedAt    time.Time
}
