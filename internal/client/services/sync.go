package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fieldsync/fieldsync/internal/client/metrics"
	"github.com/fieldsync/fieldsync/internal/client/models"
	"github.com/fieldsync/fieldsync/internal/client/store"
	"github.com/fieldsync/fieldsync/internal/client/uploads"
	"github.com/fieldsync/fieldsync/internal/logging"
)

const (
	MsgAlreadySyncing = "already syncing"
	MsgOffline        = "offline"
	MsgConnectionLost = "connection lost during sync"
)

// SyncService drains the pending queue and then refreshes the downloaded
// collections. At most one cycle runs at a time; a concurrent call is
// rejected, not queued.
type SyncService struct {
	conn    Connectivity
	remote  Remote
	store   *store.Store
	sub     *submitter
	metrics *metrics.Metrics
	log     logging.Logger
	now     func() time.Time

	busy    atomic.Bool
	stateMu sync.RWMutex
	state   models.SyncState
}

func NewSyncService(conn Connectivity, remote Remote, st *store.Store, up uploads.Uploader,
	m *metrics.Metrics, log logging.Logger) *SyncService {
	log = log.With("component", "sync")
	return &SyncService{
		conn:    conn,
		remote:  remote,
		store:   st,
		sub:     &submitter{remote: remote, uploader: up, store: st, log: log},
		metrics: m,
		log:     log,
		now:     time.Now,
		state:   models.SyncIdle,
	}
}

// State returns the phase of the running cycle, or the outcome of the last
// one (Idle or Failed).
func (s *SyncService) State() models.SyncState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

func (s *SyncService) setState(st models.SyncState) {
	s.stateMu.Lock()
	s.state = st
	s.stateMu.Unlock()
}

// Status gathers what a status display needs.
func (s *SyncService) Status(ctx context.Context) (models.SyncStatus, error) {
	st := models.SyncStatus{State: s.State(), Connected: s.conn.IsConnectedNow()}
	n, err := s.store.PendingCount(ctx)
	if err != nil {
		return st, fmt.Errorf("failed to count pending records: %w", err)
	}
	st.Pending = n
	if st.LastFullSync, err = s.store.LastFullSync(ctx); err != nil {
		return st, fmt.Errorf("failed to read last sync time: %w", err)
	}
	return st, nil
}

// PerformFullSync runs one upload-then-download cycle.
func (s *SyncService) PerformFullSync(ctx context.Context) models.SyncResult {
	if !s.busy.CompareAndSwap(false, true) {
		s.metrics.SyncCycle("busy")
		return s.rejected(models.KindBusy, MsgAlreadySyncing)
	}
	defer s.busy.Store(false)

	if !s.conn.RefreshStatus(ctx) {
		s.metrics.SyncCycle("offline")
		return s.rejected(models.KindOffline, MsgOffline)
	}

	s.log.Info(ctx, "sync started")
	res := models.SyncResult{}

	s.setState(models.SyncUploading)
	var lost bool
	res.Upload, lost = s.upload(ctx)
	if lost {
		return s.fail(ctx, res)
	}

	s.setState(models.SyncDownloading)
	res.Download, lost = s.download(ctx)
	if lost {
		return s.fail(ctx, res)
	}

	res.Timestamp = s.now().UTC()
	res.Success = res.Upload.Success && res.Download.Success
	if res.Success {
		if err := s.store.SetLastFullSync(ctx, res.Timestamp); err != nil {
			s.log.Warn(ctx, "failed to record sync time", "error", err)
		}
		s.metrics.SyncCycle("success")
	} else {
		res.Message = "sync completed with errors"
		s.metrics.SyncCycle("partial")
	}
	s.setState(models.SyncIdle)
	res.State = models.SyncIdle

	s.log.Info(ctx, "sync finished", "success", res.Success,
		"uploaded", res.Upload.Succeeded, "upload_failed", res.Upload.Failed,
		"downloaded", res.Download.Records)
	return res
}

func (s *SyncService) rejected(kind models.FailureKind, msg string) models.SyncResult {
	return models.SyncResult{
		Timestamp: s.now().UTC(),
		State:     s.State(),
		Message:   msg,
		Kind:      kind,
	}
}

func (s *SyncService) fail(ctx context.Context, res models.SyncResult) models.SyncResult {
	s.setState(models.SyncFailed)
	s.metrics.SyncCycle("failed")
	s.log.Warn(ctx, "sync aborted", "reason", MsgConnectionLost)
	res.Success = false
	res.State = models.SyncFailed
	res.Kind = models.KindOffline
	res.Message = MsgConnectionLost
	res.Timestamp = s.now().UTC()
	return res
}

// connectionLost re-probes after a transport failure.
func (s *SyncService) connectionLost(ctx context.Context, kind models.FailureKind) bool {
	return kind == models.KindTransport && !s.conn.RefreshStatus(ctx)
}

// upload processes pending records one by one. A failed record stays
// pending and does not stop the phase; a lost connection does.
func (s *SyncService) upload(ctx context.Context) (models.UploadResult, bool) {
	res := models.UploadResult{}
	recs, err := s.store.Pending(ctx)
	if err != nil {
		res.Message = err.Error()
		return res, false
	}

	for _, rec := range recs {
		res.Attempted++
		outcome, kind := s.sub.submit(ctx, rec)
		res.Records = append(res.Records, outcome)
		s.metrics.SyncRecord(outcome.Success)
		if outcome.Success {
			res.Succeeded++
			continue
		}
		res.Failed++
		s.log.Warn(ctx, "record upload failed", "record", rec.ID, "kind", kind, "message", outcome.Message)
		if s.connectionLost(ctx, kind) {
			res.Message = MsgConnectionLost
			return res, true
		}
	}

	res.Success = res.Failed == 0
	if !res.Success {
		res.Message = fmt.Sprintf("%d of %d records failed to upload", res.Failed, res.Attempted)
	}
	return res, false
}

// download overwrites the cached survey and appointment collections with
// the server's copy.
func (s *SyncService) download(ctx context.Context) (models.DownloadResult, bool) {
	res := models.DownloadResult{Success: true}

	env := s.remote.Request(ctx, http.MethodGet, "/surveys", nil)
	if !env.Success {
		res.Success = false
		res.Message = "surveys: " + env.Message
		if s.connectionLost(ctx, env.Kind) {
			return res, true
		}
	} else {
		n, err := s.storeCollection(ctx, env, store.KeySurveys, store.PrefixSurvey)
		res.Records += n
		if err != nil {
			res.Success = false
			res.Message = "surveys: " + err.Error()
		}
	}

	env = s.remote.Request(ctx, http.MethodGet, "/appointments", nil)
	if !env.Success {
		res.Success = false
		res.Message = joinMessage(res.Message, "appointments: "+env.Message)
		if s.connectionLost(ctx, env.Kind) {
			return res, true
		}
	} else {
		n, err := s.storeCollection(ctx, env, store.KeyAppointments, store.PrefixAppointments)
		res.Records += n
		if err != nil {
			res.Success = false
			res.Message = joinMessage(res.Message, "appointments: "+err.Error())
		}
	}
	return res, false
}

// storeCollection writes the list under listKey and each item under
// itemPrefix+id.
func (s *SyncService) storeCollection(ctx context.Context, env models.Envelope, listKey, itemPrefix string) (int, error) {
	items, err := listItems(env.Data)
	if err != nil {
		return 0, err
	}
	if r := s.store.Put(ctx, listKey, env.Data); !r.OK() {
		return 0, r.Err
	}
	for _, item := range items {
		if id := idOf(item); id != "" {
			s.store.Put(ctx, store.Key(itemPrefix, id), item)
		}
	}
	return len(items), nil
}

func joinMessage(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}
