package services

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/fieldsync/fieldsync/internal/client/client"
	"github.com/fieldsync/fieldsync/internal/client/gateway"
	"github.com/fieldsync/fieldsync/internal/client/models"
	"github.com/fieldsync/fieldsync/internal/client/store"
	"github.com/fieldsync/fieldsync/internal/logging"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return store.New(db, logging.Discard())
}

type fakeConn struct {
	connected atomic.Bool
	// online is what RefreshStatus reports; nil means "same as connected".
	online    *atomic.Bool
	refreshes atomic.Int32
}

func newFakeConn(connected bool) *fakeConn {
	c := &fakeConn{}
	c.connected.Store(connected)
	return c
}

func (c *fakeConn) IsConnectedNow() bool { return c.connected.Load() }

func (c *fakeConn) RefreshStatus(ctx context.Context) bool {
	c.refreshes.Add(1)
	if c.online != nil {
		c.connected.Store(c.online.Load())
	}
	return c.connected.Load()
}

type call struct {
	Method string
	Path   string
	Body   json.RawMessage
}

// fakeRemote answers requests through handle and records every call.
type fakeRemote struct {
	mu     sync.Mutex
	calls  []call
	handle func(c call) models.Envelope
}

func (r *fakeRemote) Request(ctx context.Context, method, path string, body any) models.Envelope {
	c := call{Method: method, Path: path}
	if body != nil {
		switch b := body.(type) {
		case json.RawMessage:
			c.Body = b
		default:
			c.Body, _ = json.Marshal(b)
		}
	}
	r.mu.Lock()
	r.calls = append(r.calls, c)
	h := r.handle
	r.mu.Unlock()
	if h == nil {
		return models.Fail(models.KindServer, 404, "Not Found")
	}
	return h(c)
}

func (r *fakeRemote) Resolve(ctx context.Context, candidates ...gateway.RequestSpec) models.Envelope {
	last := models.Fail(models.KindInternal, 0, "no endpoint candidates")
	for _, c := range candidates {
		last = r.Request(ctx, c.Method, c.Path, c.Body)
		if last.Success {
			return last
		}
	}
	return last
}

func (r *fakeRemote) Calls() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

func (r *fakeRemote) CallsTo(method, prefix string) []call {
	var out []call
	for _, c := range r.Calls() {
		if c.Method == method && len(c.Path) >= len(prefix) && c.Path[:len(prefix)] == prefix {
			out = append(out, c)
		}
	}
	return out
}

type fakeUploader struct {
	mu    sync.Mutex
	fail  map[string]error
	calls []string
}

func (u *fakeUploader) Upload(ctx context.Context, att models.Attachment, surveyID string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls = append(u.calls, att.ID)
	if err := u.fail[att.ID]; err != nil {
		return "", err
	}
	return "file-" + att.FileName, nil
}

func ok(data string) models.Envelope {
	return models.OK(json.RawMessage(data), 200)
}
