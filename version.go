// Package hatch scaffolds UI components into Go web projects.
package hatch

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/simonhull/firebird-suite/hatch.Version=...".
var Version = "0.1.0-dev"
