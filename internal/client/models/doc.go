// Package models defines the wire and local data types of the blob
// transfer client: storage tokens and locators, attachment file entities,
// native file references and the records kept in the local database.
package models
