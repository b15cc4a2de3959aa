// Package backend turns a fetched package into a running deployment and back.
//
// Backends form a closed set mirroring manifest.BackendConfig: Local, which
// has nothing to deploy, and Docker, which builds the package's image and
// runs its replicas on a Docker Engine. New selects the implementation with
// an exhaustive type switch. The Docker backend talks to the engine through
// the Daemon interface; Engine is the only code that imports the Docker SDK.
package backend
