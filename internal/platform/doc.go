// Package platform hides the operating-system differences the tool cares
// about: where system-wide files live, how directories and files are
// permissioned, and how a file is locked for exclusive use. On Unix systems
// locking uses flock(2); on Windows it uses LockFileEx.
package platform
