// Package sqlite provides the modernc.org/sqlite backed message store.
//
// It mirrors the postgres driver layout with SQLite specific connection
// management and migrations. The default deployment points both database
// aliases at the same file.
package sqlite
