package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fieldsync/fieldsync/internal/client/gateway"
	"github.com/fieldsync/fieldsync/internal/client/models"
	"github.com/fieldsync/fieldsync/internal/client/store"
	"github.com/fieldsync/fieldsync/internal/client/uploads"
	"github.com/fieldsync/fieldsync/internal/common"
	"github.com/fieldsync/fieldsync/internal/logging"
)

// ResourceSurveys is the pending-record resource for surveys.
const ResourceSurveys = "surveys"

// SurveyAPI is the data-access surface for the survey screens. Reads go
// through the cache-aside Fetcher; saves are queued locally and submitted
// right away when possible.
type SurveyAPI struct {
	fetcher *Fetcher
	remote  Remote
	conn    Connectivity
	store   *store.Store
	sub     *submitter
	log     logging.Logger
}

func NewSurveyAPI(fetcher *Fetcher, remote Remote, conn Connectivity, st *store.Store,
	up uploads.Uploader, log logging.Logger) *SurveyAPI {
	log = log.With("component", "surveys")
	return &SurveyAPI{
		fetcher: fetcher,
		remote:  remote,
		conn:    conn,
		store:   st,
		sub:     &submitter{remote: remote, uploader: up, store: st, log: log},
		log:     log,
	}
}

func (a *SurveyAPI) get(path string) RemoteFunc {
	return func(ctx context.Context) models.Envelope {
		return a.remote.Request(ctx, http.MethodGet, path, nil)
	}
}

func (a *SurveyAPI) resolve(candidates ...gateway.RequestSpec) RemoteFunc {
	return func(ctx context.Context) models.Envelope {
		return a.remote.Resolve(ctx, candidates...)
	}
}

func (a *SurveyAPI) RiskTemplates(ctx context.Context) models.Envelope {
	return a.fetcher.FetchResource(ctx, store.KeyTemplates, a.get("/risk-templates"))
}

func (a *SurveyAPI) RiskTemplate(ctx context.Context, templateID string) models.Envelope {
	t := url.PathEscape(templateID)
	return a.fetcher.FetchResource(ctx, store.Key(store.PrefixTemplate, templateID),
		a.get("/risk-templates/"+t))
}

func (a *SurveyAPI) TemplateSections(ctx context.Context, templateID string) models.Envelope {
	t := url.PathEscape(templateID)
	return a.fetcher.FetchResource(ctx, store.Key(store.PrefixSections, templateID), a.resolve(
		gateway.Get("/risk-templates/"+t+"/sections"),
		gateway.Get("/templates/"+t+"/sections"),
	))
}

func (a *SurveyAPI) SectionCategories(ctx context.Context, templateID, sectionID string) models.Envelope {
	t, s := url.PathEscape(templateID), url.PathEscape(sectionID)
	return a.fetcher.FetchResource(ctx, store.Key(store.PrefixCategories, templateID, sectionID), a.resolve(
		gateway.Get("/risk-templates/"+t+"/sections/"+s+"/categories"),
		gateway.Get("/sections/"+s+"/categories"),
	))
}

func (a *SurveyAPI) CategoryItems(ctx context.Context, templateID, sectionID, categoryID string) models.Envelope {
	t, s, c := url.PathEscape(templateID), url.PathEscape(sectionID), url.PathEscape(categoryID)
	return a.fetcher.FetchResource(ctx, store.Key(store.PrefixItems, templateID, sectionID, categoryID), a.resolve(
		gateway.Get("/risk-templates/"+t+"/sections/"+s+"/categories/"+c+"/items"),
		gateway.Get("/categories/"+c+"/items"),
	))
}

// Appointments lists appointments. The unfiltered first request shares its
// cache entry with the sync download.
func (a *SurveyAPI) Appointments(ctx context.Context, req models.PageRequest) models.Envelope {
	q := pageQuery(req)
	if len(q) == 0 {
		return a.fetcher.FetchResource(ctx, store.KeyAppointments, a.get("/appointments"))
	}
	enc := q.Encode()
	return a.fetcher.FetchResource(ctx, store.Key(store.PrefixAppointments, "list", enc),
		a.get("/appointments?"+enc))
}

func (a *SurveyAPI) Appointment(ctx context.Context, id string) models.Envelope {
	return a.fetcher.FetchResource(ctx, store.Key(store.PrefixAppointments, id),
		a.get("/appointments/"+url.PathEscape(id)))
}

func (a *SurveyAPI) Surveys(ctx context.Context) models.Envelope {
	return a.fetcher.FetchResource(ctx, store.KeySurveys, a.get("/surveys"))
}

func (a *SurveyAPI) Survey(ctx context.Context, id string) models.Envelope {
	return a.fetcher.FetchResource(ctx, store.Key(store.PrefixSurvey, id),
		a.get("/surveys/"+url.PathEscape(id)))
}

// ClearTemplateCache drops every cached template, section, category and
// item.
func (a *SurveyAPI) ClearTemplateCache(ctx context.Context) store.WriteResult {
	return a.store.ClearByPrefix(ctx, store.TemplatePrefixes...)
}

// SaveResult describes where a saved survey ended up.
type SaveResult struct {
	RecordID string
	RemoteID string
	// Queued is true when the survey is still waiting for the next sync.
	Queued  bool
	Message string
}

// SaveSurvey stores the survey as a pending record, then submits it at once
// unless deferUpload is set or the device is offline. A failed submit
// leaves it queued; only a local write failure is returned as an error.
//
// A non-empty recordID edits that local record in place: its id, remote id
// and already captured attachments are kept and new attachments are
// appended, so an unsynced survey is never queued twice.
func (a *SurveyAPI) SaveSurvey(ctx context.Context, recordID string, body json.RawMessage,
	attachments []models.Attachment, deferUpload bool) (SaveResult, error) {
	rec := &models.PendingRecord{Resource: ResourceSurveys}
	if recordID != "" {
		existing, err := a.store.PendingRecord(ctx, recordID)
		if err != nil {
			return SaveResult{}, fmt.Errorf("failed to load survey %s: %w", recordID, err)
		}
		if existing.Resource != ResourceSurveys {
			return SaveResult{}, fmt.Errorf("record %s is a %s, not a survey: %w",
				recordID, existing.Resource, common.ErrorIncorrectPayload)
		}
		rec = existing
	}
	rec.Body = body
	rec.Attachments = append(rec.Attachments, attachments...)
	if id := idOf(body); id != "" {
		rec.RemoteID = id
	}
	if err := a.store.SavePending(ctx, rec); err != nil {
		return SaveResult{}, fmt.Errorf("failed to queue survey: %w", err)
	}

	res := SaveResult{RecordID: rec.ID, RemoteID: rec.RemoteID, Queued: true}
	switch {
	case deferUpload:
		res.Message = "queued for next sync"
		return res, nil
	case !a.conn.IsConnectedNow():
		res.Message = "offline, queued for next sync"
		return res, nil
	}

	outcome, kind := a.sub.submit(ctx, rec)
	if !outcome.Success {
		a.log.Info(ctx, "survey submit failed, left queued", "record", rec.ID, "kind", kind, "message", outcome.Message)
		res.Message = outcome.Message
		return res, nil
	}
	res.Queued = false
	res.RemoteID = outcome.RemoteID
	return res, nil
}

func pageQuery(req models.PageRequest) url.Values {
	q := url.Values{}
	if req.Page > 0 {
		q.Set("page", strconv.Itoa(req.Page))
	}
	if req.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(req.PageSize))
	}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("status", req.Status)
	set("surveyor", req.Surveyor)
	set("startDateFrom", req.StartDateFrom)
	set("startDateTo", req.StartDateTo)
	return q
}
