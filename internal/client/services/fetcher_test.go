package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/fieldsync/fieldsync/internal/client/metrics"
	"github.com/fieldsync/fieldsync/internal/client/models"
	"github.com/fieldsync/fieldsync/internal/client/store"
	"github.com/fieldsync/fieldsync/internal/common"
	"github.com/fieldsync/fieldsync/internal/logging"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRemote struct {
	env   models.Envelope
	calls int
}

func (r *countingRemote) fetch(ctx context.Context) models.Envelope {
	r.calls++
	return r.env
}

func newFetcher(t *testing.T, connected bool) (*Fetcher, *fakeConn, *store.Store) {
	t.Helper()
	st := newTestStore(t)
	conn := newFakeConn(connected)
	return NewFetcher(conn, st, nil, logging.Discard()), conn, st
}

func TestFetchResource_OfflineMissDoesNotCallRemote(t *testing.T) {
	keys := []string{store.KeyTemplates, store.Key(store.PrefixSections, "t1"), store.Key(store.PrefixItems, "t1", "s1", "c1"), store.KeySurveys}
	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			f, _, _ := newFetcher(t, false)
			r := &countingRemote{env: ok(`[]`)}

			env := f.FetchResource(context.Background(), key, r.fetch)

			assert.False(t, env.Success)
			assert.Equal(t, models.KindCacheMiss, env.Kind)
			assert.Equal(t, MsgOfflineNoCache, env.Message)
			assert.Equal(t, 0, env.Status)
			assert.Nil(t, env.Data)
			assert.Equal(t, 0, r.calls)
			assert.ErrorIs(t, env.Err(), common.ErrLocalDataNotAvailable)
		})
	}
}

func TestFetchResource_OfflineRead(t *testing.T) {
	ctx := context.Background()
	f, _, st := newFetcher(t, false)
	require.True(t, st.Put(ctx, "risk_templates", json.RawMessage(`[{"id":"1","name":"Fire Risk"}]`)).OK())
	r := &countingRemote{env: ok(`[]`)}

	env := f.FetchResource(ctx, "risk_templates", r.fetch)

	assert.True(t, env.Success)
	assert.True(t, env.FromCache)
	assert.JSONEq(t, `[{"id":"1","name":"Fire Risk"}]`, string(env.Data))
	assert.Equal(t, 0, r.calls)
}

func TestFetchResource_FreshFetchThenOffline(t *testing.T) {
	ctx := context.Background()
	f, conn, st := newFetcher(t, true)
	r := &countingRemote{env: ok(`[{"id":"2"}]`)}

	env := f.FetchResource(ctx, "risk_templates", r.fetch)
	require.True(t, env.Success)
	assert.False(t, env.FromCache)
	assert.Equal(t, 200, env.Status)

	entry, found := st.Get(ctx, "risk_templates")
	require.True(t, found)
	assert.JSONEq(t, `[{"id":"2"}]`, string(entry.Payload))

	conn.connected.Store(false)
	env = f.FetchResource(ctx, "risk_templates", r.fetch)
	assert.True(t, env.Success)
	assert.True(t, env.FromCache)
	assert.JSONEq(t, `[{"id":"2"}]`, string(env.Data))
	assert.Equal(t, 1, r.calls)
}

func TestFetchResource_FallbackOnRemoteFailure(t *testing.T) {
	ctx := context.Background()
	failures := []models.Envelope{
		models.Fail(models.KindTransport, 0, "network error"),
		models.Fail(models.KindServer, 404, "Not Found"),
		models.Fail(models.KindServer, 500, "boom"),
		models.Fail(models.KindAuth, 401, "token expired"),
	}
	for _, failure := range failures {
		t.Run(failure.Message, func(t *testing.T) {
			f, _, st := newFetcher(t, true)
			require.True(t, st.Put(ctx, "surveys", json.RawMessage(`[{"id":"s1"}]`)).OK())
			r := &countingRemote{env: failure}

			env := f.FetchResource(ctx, "surveys", r.fetch)

			assert.True(t, env.Success)
			assert.True(t, env.FromCache)
			assert.Equal(t, failure.Message, env.Message)
			assert.JSONEq(t, `[{"id":"s1"}]`, string(env.Data))
			assert.Equal(t, 1, r.calls)
		})
	}
}

func TestFetchResource_RemoteFailureWithoutCache(t *testing.T) {
	f, _, st := newFetcher(t, true)
	failure := models.Fail(models.KindServer, 503, "Service Unavailable")
	r := &countingRemote{env: failure}

	env := f.FetchResource(context.Background(), "appointments", r.fetch)

	assert.Equal(t, failure, env)
	_, found := st.Get(context.Background(), "appointments")
	assert.False(t, found)
}

func TestFetchResource_Metrics(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	conn := newFakeConn(true)
	m := metrics.New()
	f := NewFetcher(conn, st, m, logging.Discard())

	f.FetchResource(ctx, "k", (&countingRemote{env: ok(`{}`)}).fetch)
	conn.connected.Store(false)
	f.FetchResource(ctx, "k", (&countingRemote{}).fetch)
	f.FetchResource(ctx, "other", (&countingRemote{}).fetch)

	n, err := testutil.GatherAndCount(m.Registry(), "fieldsync_cache_reads_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n, "fresh, cached and miss series")
}
