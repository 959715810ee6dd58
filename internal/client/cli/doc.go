// Package cli is the fieldsync command-line client.
//
// Every command builds an App from the layered configuration, runs against
// the local store and the remote server, and closes the database before it
// returns. Reads are offline-first: when the server cannot be reached the
// last cached copy is printed with a "(cached)" marker.
//
// Commands:
//   - login / logout
//   - status, watch
//   - templates, template, sections, categories, items
//   - appointments, appointment, surveys, survey
//   - save-survey, pending, sync, clear-cache
//   - metrics, version
package cli
