// Package registry is the durable record of installed packages. A Registry
// maps package names to the URL, commit and deployment config they were
// installed with. It is backed by one TOML file that is held under an
// exclusive advisory lock from Open until Close; Close writes the in-memory
// state back to the file exactly once, whether or not anything changed.
package registry
