// Package config loads application configuration from environment variables.
//
// All settings have documented defaults; the server starts with no
// environment set at all. Shield settings are special: the middleware
// re-resolves them on every check through the shield's config provider, so
// ShieldConfigFromEnv stays cheap and side-effect free.
package config
