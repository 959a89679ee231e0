// Package config loads drivepath configuration from flags, environment
// variables and an optional YAML file, and validates it.
//
// Precedence, highest first: command-line flags, environment variables,
// the configuration file, defaults. Environment variables use the
// DRIVEPATH_ prefix (DRIVEPATH_LOG_LEVEL, DRIVEPATH_SERVER_TRANSPORT);
// Google credentials are also read from the conventional GOOGLE_CLIENT_ID,
// GOOGLE_CLIENT_SECRET, GOOGLE_ACCESS_TOKEN, GOOGLE_REFRESH_TOKEN and
// GOOGLE_TOKEN_FILE variables.
package config
