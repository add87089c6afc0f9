// Divapi is the admission gateway for the dividend analysis API.
//
// It fronts the data endpoints with API key authentication, tiered
// per-minute/hour/day quotas, a brute-force guard on the auth endpoints
// and a rate guard on the health probes.
//
// Usage:
//
//	# Start the server with default configuration
//	divapi run
//
//	# Start with a custom configuration file
//	divapi run --config /etc/divapi/config.yaml
//
//	# Manage API keys
//	divapi keys generate --user-id user-42 --tier pro
//	divapi keys list
//	divapi keys revoke --key-id <id>
//
//	# Show version information
//	divapi version
package main

func main() {
	Execute()
}
