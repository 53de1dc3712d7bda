// Package ui provides shared terminal presentation helpers for the lgbar
// CLI and the interactive dashboard.
//
// It carries the color palette, terminal sizing helpers, and the styled
// key/value rendering the "run once and exit" commands (status, volume,
// discover) use for their output. The interactive dashboard in
// internal/tui builds its screens on the same palette so both surfaces
// look like one application.
//
// Logging is expected to be controlled via the LGBAR_LOG_LEVEL environment
// variable. When unset, zap is silent and the curated UI output is what
// the user sees.
package ui
