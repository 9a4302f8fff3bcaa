// Package models defines the storage service's wire types and the
// metadata it keeps next to stored ciphertext.
package models
