// Package endpoints implements the HTTP API surface. Each endpoint also
// provides a CLI command that calls it over HTTP.
package endpoints

import "github.com/shelfscan/shelfscan/internal/api"

// All returns every endpoint the server exposes.
func All() []api.Endpoint {
	return []api.Endpoint{
		&HealthEndpoint{},
		&StatusEndpoint{},
		&ScanEndpoint{},
		&ListLLMCallsEndpoint{},
	}
}
