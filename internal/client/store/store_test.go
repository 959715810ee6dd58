package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/fieldsync/fieldsync/internal/client/client"
	"github.com/fieldsync/fieldsync/internal/client/models"
	"github.com/fieldsync/fieldsync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, logging.Discard())
}

func TestPutGet_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return at }

	res := s.Put(ctx, KeyTemplates, json.RawMessage(`[{"id":"1","name":"Fire Risk"}]`))
	require.True(t, res.OK())

	e, ok := s.Get(ctx, KeyTemplates)
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":"1","name":"Fire Risk"}]`, string(e.Payload))
	assert.True(t, at.Equal(e.StoredAt))
}

func TestPut_InvalidJSON_ReportsButDoesNotStore(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	res := s.Put(ctx, "k", json.RawMessage(`{oops`))
	assert.False(t, res.OK())

	_, ok := s.Get(ctx, "k")
	assert.False(t, ok)
}

func TestGet_Missing(t *testing.T) {
	s := newStore(t)
	e, ok := s.Get(context.Background(), "nothing")
	assert.False(t, ok)
	assert.Nil(t, e)
}

func TestGet_CorruptPayload_TreatedAsMissing(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	_, err := s.db.Exec(`INSERT INTO cache_entries (key, payload, stored_at) VALUES ('bad', x'7b7b', 0)`)
	require.NoError(t, err)

	_, ok := s.Get(ctx, "bad")
	assert.False(t, ok)
}

func TestClearByPrefix_RemovesMatchingOnly_AndIsIdempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, k := range []string{
		KeyTemplates,
		Key(PrefixTemplate, "7"),
		Key(PrefixSections, "7"),
		Key(PrefixCategories, "7", "3"),
		Key(PrefixItems, "7", "3", "9"),
		Key(PrefixAppointments, "p1"),
		KeySurveys,
	} {
		require.True(t, s.Put(ctx, k, json.RawMessage(`[]`)).OK())
	}

	first := s.ClearByPrefix(ctx, TemplatePrefixes...)
	require.True(t, first.OK())
	assert.Equal(t, 5, first.Removed)

	second := s.ClearByPrefix(ctx, TemplatePrefixes...)
	require.True(t, second.OK())
	assert.Equal(t, 0, second.Removed)

	_, ok := s.Get(ctx, Key(PrefixAppointments, "p1"))
	assert.True(t, ok, "appointments survive a template reset")
	_, ok = s.Get(ctx, KeySurveys)
	assert.True(t, ok)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "section_categories_t1_s2", Key(PrefixCategories, "t1", "s2"))
	assert.Equal(t, "risk_templates", Key(KeyTemplates))
}

func TestSavePending_AssignsIDsAndFlags(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	rec := &models.PendingRecord{
		Resource: "surveys",
		Body:     json.RawMessage(`{"appointmentId":"a1"}`),
		Attachments: []models.Attachment{
			{LocalPath: "/tmp/one.jpg", FileName: "one.jpg"},
			{LocalPath: "/tmp/two.jpg", FileName: "two.jpg"},
		},
	}
	require.NoError(t, s.SavePending(ctx, rec))
	require.NotEmpty(t, rec.ID)

	got, err := s.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.ID, got[0].ID)
	assert.JSONEq(t, `{"appointmentId":"a1","needsSync":true}`, string(got[0].Body))
	require.Len(t, got[0].Attachments, 2)
	assert.Equal(t, "one.jpg", got[0].Attachments[0].FileName)
	assert.Equal(t, 1, got[0].Attachments[1].Position)

	n, err := s.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSavePending_EditKeepsID(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	rec := &models.PendingRecord{Resource: "surveys", Body: json.RawMessage(`{"v":1}`)}
	require.NoError(t, s.SavePending(ctx, rec))
	id := rec.ID

	rec.Body = json.RawMessage(`{"v":2}`)
	require.NoError(t, s.SavePending(ctx, rec))

	got, err := s.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.JSONEq(t, `{"v":2,"needsSync":true}`, string(got[0].Body))
}

func TestSavePending_RejectsNonObjectBody(t *testing.T) {
	s := newStore(t)
	err := s.SavePending(context.Background(), &models.PendingRecord{Resource: "surveys", Body: json.RawMessage(`[1,2]`)})
	require.Error(t, err)
}

func TestMarkSyncedAndAttachments(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	rec := &models.PendingRecord{Resource: "surveys", Body: json.RawMessage(`{}`),
		Attachments: []models.Attachment{{LocalPath: "/tmp/p.jpg"}}}
	require.NoError(t, s.SavePending(ctx, rec))

	require.NoError(t, s.SetAttachmentRemoteID(ctx, rec.Attachments[0].ID, "file-1"))
	one, err := s.PendingRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "file-1", one.Attachments[0].RemoteID)

	require.NoError(t, s.MarkSynced(ctx, rec.ID, "srv-1", json.RawMessage(`{"needsSync":false}`)))
	pending, err := s.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestLastFullSync(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	zero, err := s.LastFullSync(ctx)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	at := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetLastFullSync(ctx, at))
	got, err := s.LastFullSync(ctx)
	require.NoError(t, err)
	assert.True(t, at.Equal(got))
}

func TestSetField(t *testing.T) {
	out, err := SetField(nil, "needsSync", false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"needsSync":false}`, string(out))

	out, err = SetField(json.RawMessage(`{"a":1}`), "attachmentIds", []string{"f1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"attachmentIds":["f1"]}`, string(out))

	_, err = SetField(json.RawMessage(`"str"`), "x", 1)
	require.Error(t, err)
}
