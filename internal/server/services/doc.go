// Package services contains the storage service's business logic.
// BlobService issues scoped storage tokens and stores blobs, FileDataService
// keeps legacy file data. Both map failures to the sentinel errors of
// internal/common so the transport can choose a status code.
package services
