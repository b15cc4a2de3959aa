// Package cli defines the Cobra command tree for the atm CLI. Each file in
// this package registers one top-level command with the root command.
// Commands delegate to internal/workflow for the work itself and only handle
// flag parsing, output formatting and exit status.
package cli
