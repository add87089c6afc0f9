// Package config loads, defaults, validates and hot-reloads the service
// configuration.
//
// Configuration comes from a YAML file, with DIVAPI_SECTION_FIELD
// environment variables taking precedence over file values. A watcher can
// reload the file on change so tier limits adjust without a restart.
package config
