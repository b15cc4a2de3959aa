// Package workflow orchestrates the user-facing operations: sync (install or
// refresh), remove and drift status. Each operation holds the registry lock
// for its whole duration so concurrent invocations fail fast instead of
// interleaving.
package workflow
