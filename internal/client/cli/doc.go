// Package cli provides the interactive vaultblob command-line client.
//
// It wires configuration, the local database, the blob transfer engine and
// the native file bridge, and runs a REPL. The vault starts locked: unlock
// derives the master key from a password, and group keys used to wrap file
// session keys are derived from it.
//
// Commands:
//   - unlock
//   - put / get: blob transfers through the storage service
//   - nput / nget: legacy file data transfers through the native bridge
//   - list, forget, clear, help, exit
//
// App.Run blocks until the user exits.
package cli
