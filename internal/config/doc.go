// Package config provides configuration structures and utilities for policycrawl.
// It defines crawl limits, politeness settings, storage locations and the
// optional per-domain overrides loaded from a .policycrawl YAML file.
package config
