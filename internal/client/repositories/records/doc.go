// Package records provides the client-side persistence layer for records
// awaiting upload (the pending queue).
//
// A row keeps the record body as raw JSON, the collection it belongs to, the
// server id once known, and a needs_sync flag. Clearing the flag removes the
// record from the pending set without deleting the local copy.
package records
