// Package provisioning drives game server instances through their
// lifecycle.
//
// # Phases
//
// An instance moves through creating, awaiting-address, bootstrapping
// and applying-overlay before it is ready. Each transition is written
// to the registry before the phase's work starts, so an interrupted run
// can be resumed with Reconfigure instead of creating a second machine.
//
// # Core Types
//
// Provisioner runs the lifecycle against one provider. Observer
// receives structured events for logging or interactive rendering.
// Remote abstracts the SSH session so tests run without a network.
package provisioning
