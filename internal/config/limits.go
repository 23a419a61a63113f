package config

const (
	// MaxNodeNameLength is the maximum length for folder and file names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (names should be short and descriptive).
	MaxNodeNameLength = 255

	// MaxPathLength is the maximum length for materialized paths.
	// Set to 500 to allow paths like "a/b/c/d/e/report" where each
	// segment can be up to 100 characters. Longer paths indicate
	// overly deep hierarchies (anti-pattern).
	MaxPathLength = 500
)
