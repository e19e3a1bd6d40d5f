// Package config loads application configuration from environment
// variables into tagged structs, with a one-time fallback to the default
// .env file in the working directory. The CLI and the datastore backends
// declare their settings as structs with `env` tags and call Load.
package config
