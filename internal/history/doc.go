// Package history persists run outcomes to SQLite.
//
// The store is an audit trail only: the scheduler never consults it, and
// runs missed while the process was down are not replayed from it.
package history
