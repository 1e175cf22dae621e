// Package optimizer talks to the external route optimizer that produces a
// complete schedule from a place selection, a date range and a transport mode.
package optimizer

import "time"

// DefaultPath is the optimizer's clustering endpoint.
const DefaultPath = "/api/cluster-places/"

// Config holds the connection settings for the optimizer service.
type Config struct {
	// BaseURL is the optimizer's scheme and host, e.g. http://localhost:8000
	BaseURL string

	// Path is appended to BaseURL for every planning request
	Path string

	// Timeout bounds a single planning request
	Timeout time.Duration
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8000",
		Path:    DefaultPath,
		Timeout: 60 * time.Second,
	}
}

func (c Config) endpoint() string {
	path := c.Path
	if path == "" {
		path = DefaultPath
	}
	return c.BaseURL + path
}
