// Package version carries build identity, overridable via -ldflags.
package version

// Name is the service name used in logs and traces.
const Name = "pay-adminusers"

// Version is stamped at build time.
var Version = "dev"
