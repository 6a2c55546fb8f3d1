package repository

import "errors"

// Repository errors
var (
	// ErrUnsupportedDriver indicates the configured database driver is unknown.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// Cache errors
var (
	// ErrCacheMiss indicates the key was not found in cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable indicates the cache is unavailable.
	ErrCacheUnavailable = errors.New("cache unavailable")
)
