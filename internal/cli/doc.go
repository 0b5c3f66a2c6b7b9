// Package cli wires together the Cobra command tree for the examflux binary.
//
// It defines the root command and all subcommands (items, approve, reject,
// similar, cart, generate, serve, config, version), binds flags, reads
// configuration, drives the review workflow against the backend, and returns
// deterministic exit codes.
package cli
