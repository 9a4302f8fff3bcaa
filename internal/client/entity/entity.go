// Package entity describes how client side data types travel on the wire:
// every request or stored type has a TypeModel naming its application, id
// and version, and encrypted types carry some of their values as ciphertext
// under the instance's session key.
package entity

import (
	"fmt"
	"strings"
)

// TypeModel is the static description of a wire type.
type TypeModel struct {
	App     string
	ID      int
	Name    string
	Version string
	// Encrypted types need a session key to be mapped to or from a literal.
	Encrypted bool
	// EncryptedValues lists the JSON names of values stored as ciphertext.
	EncryptedValues []string
}

// TypeID returns the numeric id as the string used in token requests.
func (m TypeModel) TypeID() string {
	return fmt.Sprint(m.ID)
}

func (m TypeModel) String() string {
	return m.App + "/" + m.Name
}

// Instance is an entity that owns a session key: the key is stored
// encrypted under the key of the owner group.
type Instance interface {
	TypeModel() TypeModel
	OwnerGroup() string
	OwnerEncSessionKey() []byte
}

// Service names a REST service and the model of its request body.
type Service struct {
	App          string
	Name         string
	RequestModel TypeModel
}

// Path returns the REST path of the service, e.g. /rest/storage/blobservice.
func (s Service) Path() string {
	return "/rest/" + s.App + "/" + strings.ToLower(s.Name)
}
