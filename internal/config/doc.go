// Package config provides configuration structures and utilities for
// pngcipher: cipher and compression defaults, named profiles loaded from a
// YAML file, and report output preferences.
package config
