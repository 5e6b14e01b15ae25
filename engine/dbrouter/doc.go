// Package dbrouter decides which logical database serves a data-access
// operation in a primary/standby topology.
//
// Policies only name a target alias. Connections, transactions and I/O belong
// to the data-access layer that consults them.
package dbrouter
