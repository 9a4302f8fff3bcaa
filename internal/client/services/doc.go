// Package services contains application services of the vaultblob client.
//
// FileService is the blob transfer engine: the single place where
// attachment plaintext becomes ciphertext on the wire and back. It asks the
// token broker for scoped storage tokens, talks to the first storage server
// of each token and delegates app and desktop transfers to the native file
// bridge. Network calls wait out server suspensions and are replayed.
//
// VaultService unlocks the local vault from a password.
package services
