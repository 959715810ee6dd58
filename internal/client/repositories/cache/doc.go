// Package cache persists last-known-good server responses keyed by resource.
//
// Each row holds the raw JSON payload and the time it was written. Keys are
// opaque to this package; namespacing (resource prefix plus scoping ids) is
// done by the store layer.
//
//	repo := cache.NewSQLiteRepository(db)
//	_ = repo.Upsert(ctx, entry)
//	e, _ := repo.Get(ctx, "risk_templates")
//	keys, _ := repo.Keys(ctx)
//	n, _ := repo.DeleteKeys(ctx, keys)
package cache
