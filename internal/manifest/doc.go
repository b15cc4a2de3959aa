// Package manifest handles parsing and validation of package manifests
// (atm.toml). A manifest declares which backend deploys the package and how
// the deployed package is reached. Manifests are validated against an
// embedded JSON schema before they are decoded, and may carry a semver
// constraint on the tool version able to install them.
package manifest
