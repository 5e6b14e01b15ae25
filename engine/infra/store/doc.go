// Package store opens the configured database aliases and routes message
// reads, writes and migrations between them through a dbrouter chain.
package store
