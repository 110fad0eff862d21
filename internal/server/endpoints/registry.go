package endpoints

import (
	"github.com/hemolens/hemolens/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&StatusEndpoint{},

		// Report endpoints
		&AnalyzeEndpoint{},
		&DownloadEndpoint{},

		// Static files (catch-all, must be last)
		&StaticEndpoint{},
	}
}
