// Package fetch retrieves a package from its remote into a fresh staging
// area. The remote's HEAD is resolved first and the clone is pinned to that
// commit, so the recorded commit is exactly what was staged even if the
// remote moves mid-fetch. The package's manifest is read from the staged
// tree, never supplied by the caller.
package fetch
