// Package vcs wraps go-git for the operations atm needs on a package's
// working copy: clone, open, pull, checkout, and comparing the local HEAD with
// what a remote currently advertises.
//
// A Handle stores only paths and remote coordinates. Each operation opens its
// own repository value and runs it on a separate goroutine, so callers can
// abandon it through their context and handles are safe to use concurrently.
package vcs
