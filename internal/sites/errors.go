package sites

import "errors"

var (
	// ErrNotFound indicates the site does not exist.
	ErrNotFound = errors.New("site not found")
	// ErrInvalidInput indicates a bad request payload.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedMedia indicates the uploaded file is not a supported image.
	ErrUnsupportedMedia = errors.New("unsupported image type")
)
