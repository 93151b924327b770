/*
Package config loads the ingest daemon's configuration: a struct with yaml
tags for the on-disk defaults, an optional secondary overlay file, and a
handful of environment variable overrides, in the style the pack's
elida config package uses.
*/
package config
