package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fieldsync/fieldsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors_HoldInvariants(t *testing.T) {
	ok := OK(json.RawMessage(`[1]`), 200)
	assert.True(t, ok.Success)
	assert.False(t, ok.FromCache)
	assert.Equal(t, 200, ok.Status)

	c := Cached(json.RawMessage(`[1]`), "stale")
	assert.True(t, c.Success)
	assert.True(t, c.FromCache)
	assert.Equal(t, "stale", c.Message)

	f := Fail(KindTransport, 0, "dial tcp: refused")
	assert.False(t, f.Success)
	assert.Nil(t, f.Data)
	assert.False(t, f.FromCache)
}

func TestEnvelope_Err_MapsKinds(t *testing.T) {
	tests := []struct {
		kind FailureKind
		want error
	}{
		{KindTransport, common.ErrUnavailable},
		{KindAuth, common.ErrUnauthorized},
		{KindServer, common.ErrServer},
		{KindCacheMiss, common.ErrLocalDataNotAvailable},
		{KindOffline, common.ErrOffline},
		{KindBusy, common.ErrAlreadySyncing},
		{KindInternal, common.ErrInternal},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := Fail(tt.kind, 0, "boom").Err()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
			assert.Contains(t, err.Error(), "boom")
		})
	}

	assert.NoError(t, OK(nil, 200).Err())
}

func TestEnvelope_Decode(t *testing.T) {
	var got []RiskTemplate
	require.NoError(t, OK(json.RawMessage(`[{"id":"1","name":"Fire Risk"}]`), 200).Decode(&got))
	assert.Equal(t, []RiskTemplate{{ID: "1", Name: "Fire Risk"}}, got)

	err := Fail(KindCacheMiss, 0, "offline and no cached data").Decode(&got)
	assert.ErrorIs(t, err, common.ErrLocalDataNotAvailable)

	err = OK(nil, 204).Decode(&got)
	assert.ErrorIs(t, err, common.ErrorIncorrectPayload)

	err = OK(json.RawMessage(`{bad`), 200).Decode(&got)
	assert.ErrorIs(t, err, common.ErrorIncorrectPayload)
}

func TestCacheEntry_Age(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	e := CacheEntry{StoredAt: now.Add(-90 * time.Second)}
	assert.Equal(t, 90*time.Second, e.Age(now))
}

func TestPendingRecord_AttachmentHelpers(t *testing.T) {
	r := &PendingRecord{Attachments: []Attachment{
		{ID: "a1", RemoteID: "f-1"},
		{ID: "a2"},
		{ID: "a3", RemoteID: "f-3"},
	}}

	pending := r.PendingAttachments()
	require.Len(t, pending, 1)
	assert.Equal(t, "a2", pending[0].ID)
	assert.Equal(t, []string{"f-1", "f-3"}, r.AttachmentRemoteIDs())
}
