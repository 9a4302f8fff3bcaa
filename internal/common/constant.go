package common

import "time"

// Header names shared by the client and the storage service.
const (
	// AccessTokenHeaderName carries the user's session token on every request.
	AccessTokenHeaderName = "accessToken"
	// StorageAccessTokenHeaderName carries the short-lived blob storage token.
	StorageAccessTokenHeaderName = "storageAccessToken"
	// ModelVersionHeaderName carries the model version of the request entity.
	ModelVersionHeaderName = "v"
	// BridgeTokenHeaderName carries the shared secret of a websocket bridge host.
	BridgeTokenHeaderName = "bridgeToken"

	ErrorIDHeaderName        = "Error-Id"
	PreconditionHeaderName   = "Precondition"
	SuspensionTimeHeaderName = "Suspension-Time"
	RetryAfterHeaderName     = "Retry-After"
)

// REST paths of the services the client talks to.
const (
	BlobAccessTokenServicePath = "/rest/storage/blobaccesstokenservice"
	BlobServicePath            = "/rest/storage/blobservice"
	FileDataServicePath        = "/rest/tutanota/filedataservice"
)

// Media types used for request and response bodies.
const (
	MediaTypeJSON   = "application/json"
	MediaTypeBinary = "application/octet-stream"
)

// FingerprintLength is the number of hash bytes sent as blobHash on upload.
const FingerprintLength = 6

// MaxSuspension bounds a server supplied suspension window.
const MaxSuspension = 10 * time.Minute
