// Package client bootstraps the local persistence of the fieldsync client:
// it opens the SQLite database (pure-Go modernc.org/sqlite driver) and
// applies the embedded goose migrations.
//
//	db, err := client.InitDatabase(ctx, "fieldsync.db")
//
// Schema: cache_entries, pending_records, attachments, metadata.
package client
