// Package store is the Local Record Store: a durable key/value cache of
// server responses plus the queue of records awaiting upload, both kept in
// the local SQLite database.
//
// Cache writes are best-effort. Put and ClearByPrefix never return an error
// to the caller's control flow; failures are logged and reported inside a
// WriteResult that callers are free to ignore.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fieldsync/fieldsync/internal/client/models"
	"github.com/fieldsync/fieldsync/internal/client/repositories/attachments"
	"github.com/fieldsync/fieldsync/internal/client/repositories/cache"
	"github.com/fieldsync/fieldsync/internal/client/repositories/metadata"
	"github.com/fieldsync/fieldsync/internal/client/repositories/records"
	"github.com/fieldsync/fieldsync/internal/common"
	"github.com/fieldsync/fieldsync/internal/dbx"
	"github.com/fieldsync/fieldsync/internal/logging"
	"github.com/google/uuid"
)

// WriteResult reports the outcome of a best-effort write.
type WriteResult struct {
	Key     string
	Removed int
	Err     error
}

func (r WriteResult) OK() bool { return r.Err == nil }

type Store struct {
	db          *sql.DB
	cache       cache.Repository
	records     records.Repository
	attachments attachments.Repository
	meta        metadata.Repository
	log         logging.Logger
	now         func() time.Time
}

// New builds a Store over a migrated database (see client.InitDatabase).
func New(db *sql.DB, log logging.Logger) *Store {
	return &Store{
		db:          db,
		cache:       cache.NewSQLiteRepository(db),
		records:     records.NewSQLiteRepository(db),
		attachments: attachments.NewSQLiteRepository(db),
		meta:        metadata.NewSQLiteRepository(db),
		log:         log.With("component", "store"),
		now:         time.Now,
	}
}

// Metadata exposes the bookkeeping table, e.g. for the token store.
func (s *Store) Metadata() metadata.Repository {
	return s.meta
}

// Put writes payload under key with the current time, replacing any
// previous value.
func (s *Store) Put(ctx context.Context, key string, payload json.RawMessage) WriteResult {
	res := WriteResult{Key: key}
	if !json.Valid(payload) {
		res.Err = fmt.Errorf("cache put[%s]: %w", key, common.ErrorIncorrectPayload)
		s.log.Warn(ctx, "cache write skipped", "key", key, "error", res.Err)
		return res
	}
	entry := &models.CacheEntry{Key: key, Payload: payload, StoredAt: s.now().UTC()}
	if err := s.cache.Upsert(ctx, entry); err != nil {
		res.Err = err
		s.log.Warn(ctx, "cache write failed", "key", key, "error", err)
		return res
	}
	s.log.Debug(ctx, "cache write", "key", key, "bytes", len(payload))
	return res
}

// Get returns the entry for key. Missing and unreadable entries both yield
// (nil, false).
func (s *Store) Get(ctx context.Context, key string) (*models.CacheEntry, bool) {
	entry, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.log.Warn(ctx, "cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	if !json.Valid(entry.Payload) {
		s.log.Warn(ctx, "cache entry is corrupt", "key", key)
		return nil, false
	}
	return entry, true
}

// ClearByPrefix removes every cached key that starts with any of prefixes,
// in one transaction. Calling it again removes nothing and succeeds.
func (s *Store) ClearByPrefix(ctx context.Context, prefixes ...string) WriteResult {
	var res WriteResult
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := cache.NewSQLiteRepository(tx)
		keys, err := repo.Keys(ctx)
		if err != nil {
			return err
		}
		var doomed []string
		for _, k := range keys {
			if hasAnyPrefix(k, prefixes) {
				doomed = append(doomed, k)
			}
		}
		res.Removed, err = repo.DeleteKeys(ctx, doomed)
		return err
	})
	if err != nil {
		res.Removed = 0
		res.Err = err
		s.log.Warn(ctx, "cache clear failed", "prefixes", prefixes, "error", err)
		return res
	}
	s.log.Info(ctx, "cache cleared", "prefixes", prefixes, "removed", res.Removed)
	return res
}

// SavePending stores rec and its attachments as pending. A missing ID is
// generated; editing an existing record keeps its ID. The body gets
// needsSync=true.
func (s *Store) SavePending(ctx context.Context, rec *models.PendingRecord) error {
	now := s.now().UTC()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	rec.NeedsSync = true

	body, err := SetField(rec.Body, "needsSync", true)
	if err != nil {
		return fmt.Errorf("save pending %s: %w", rec.ID, err)
	}
	rec.Body = body

	for i := range rec.Attachments {
		a := &rec.Attachments[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a.RecordID = rec.ID
		a.Position = i
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := records.NewSQLiteRepository(tx).CreateOrUpdate(ctx, rec); err != nil {
			return err
		}
		repo := attachments.NewSQLiteRepository(tx)
		for i := range rec.Attachments {
			if err := repo.CreateOrUpdate(ctx, &rec.Attachments[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Pending lists records awaiting upload, oldest first, with attachments.
func (s *Store) Pending(ctx context.Context) ([]*models.PendingRecord, error) {
	recs, err := s.records.GetAllPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving pending records: %w", err)
	}
	for _, r := range recs {
		if r.Attachments, err = s.attachments.ListByRecord(ctx, r.ID); err != nil {
			return nil, fmt.Errorf("error retrieving attachments of %s: %w", r.ID, err)
		}
	}
	return recs, nil
}

// PendingRecord returns one record with its attachments.
func (s *Store) PendingRecord(ctx context.Context, id string) (*models.PendingRecord, error) {
	r, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Attachments, err = s.attachments.ListByRecord(ctx, id); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) PendingCount(ctx context.Context) (int, error) {
	return s.records.CountPending(ctx)
}

// MarkSynced removes the record from the pending set, recording the server
// id and the body as submitted.
func (s *Store) MarkSynced(ctx context.Context, id, remoteID string, body json.RawMessage) error {
	return s.records.MarkSynced(ctx, id, remoteID, body)
}

// SetAttachmentRemoteID replaces an attachment's local reference with the
// remote file id.
func (s *Store) SetAttachmentRemoteID(ctx context.Context, attachmentID, remoteID string) error {
	return s.attachments.MarkUploaded(ctx, attachmentID, remoteID)
}

func (s *Store) LastFullSync(ctx context.Context) (time.Time, error) {
	return metadata.GetTime(ctx, s.meta, metadata.KeyLastFullSync)
}

func (s *Store) SetLastFullSync(ctx context.Context, t time.Time) error {
	return metadata.SetTime(ctx, s.meta, metadata.KeyLastFullSync, t)
}
