// Package storage provides the persistence layer shared by the bot handlers
// and the due-reminder loop.
//
// Two drivers implement the same Store contract:
//   - sqlite: durable database file (the default)
//   - memory: mutex-guarded maps, used by tests
package storage
