// Package registry maps step type names, and their UUIDs, to the Go factories
// that build them.
//
// Modules under modules/ implement Module and add their registrations at
// start-up. Pipeline files refer to steps by type name (or, for files written
// by older tools, by UUID); the builder resolves those references here.
// ValidateRegistry checks that every factory produces a step that agrees with
// its registration and can round-trip its own parameters.
package registry
