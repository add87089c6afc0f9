// Package types defines the wire-level error envelope shared by all gateway
// responses. Handlers and middleware construct these instead of ad-hoc JSON so
// clients see one consistent error shape.
package types
