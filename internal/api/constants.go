package api

// API limits and constants.
const (
	// MaxBrickBodySize bounds brick create/update bodies, which may carry an inline image (16 MB).
	MaxBrickBodySize = 16 << 20

	// MaxImportSize is the maximum allowed size for collection imports (64 MB).
	MaxImportSize = 64 << 20

	// apiPrefix is the base path of every versioned operation.
	apiPrefix = "/api/v1"
)

// Cache-Control header values.
const (
	CacheNoStore = "no-cache"
	CachePrivate = "private, max-age=60"
)
