package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/fieldsync/fieldsync/internal/client/metrics"
	"github.com/fieldsync/fieldsync/internal/client/models"
	"github.com/fieldsync/fieldsync/internal/common"
	"github.com/fieldsync/fieldsync/internal/logging"
)

const (
	DefaultTimeout       = 10 * time.Second
	DefaultUploadTimeout = 60 * time.Second

	// maxErrorBody bounds how much of a failed response is read for a message.
	maxErrorBody = 64 << 10
)

type Gateway struct {
	baseURL       string
	creds         CredentialProvider
	httpClient    *http.Client
	timeout       time.Duration
	uploadTimeout time.Duration
	normalizer    *Normalizer
	metrics       *metrics.Metrics
	log           logging.Logger
}

type Option func(*Gateway)

func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.httpClient = c }
}

func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithUploadTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.uploadTimeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithNormalizer replaces the default alias table. A nil normalizer turns
// normalization off.
func WithNormalizer(n *Normalizer) Option {
	return func(g *Gateway) { g.normalizer = n }
}

// New returns a Gateway for the server at baseURL (scheme and host, without
// the /api suffix). creds may be nil for unauthenticated use.
func New(baseURL string, creds CredentialProvider, log logging.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL:       strings.TrimRight(baseURL, "/"),
		creds:         creds,
		httpClient:    &http.Client{},
		timeout:       DefaultTimeout,
		uploadTimeout: DefaultUploadTimeout,
		normalizer:    NewNormalizer(DefaultAliases).WithResources(ResourceAliases),
		log:           log.With("component", "gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return g.baseURL + common.APIBasePath + path
}

// Request performs one JSON call. body may be nil, a json.RawMessage, or
// any value encoding/json can marshal.
func (g *Gateway) Request(ctx context.Context, method, path string, body any) models.Envelope {
	var reader io.Reader
	if body != nil {
		raw, err := encodeBody(body)
		if err != nil {
			g.metrics.RemoteRequest(method, string(models.KindInternal))
			return models.Fail(models.KindInternal, 0, fmt.Sprintf("failed to encode request body: %v", err))
		}
		reader = bytes.NewReader(raw)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, g.url(path), reader)
	if err != nil {
		g.metrics.RemoteRequest(method, string(models.KindInternal))
		return models.Fail(models.KindInternal, 0, fmt.Sprintf("failed to build request: %v", err))
	}
	req.Header.Set("Content-Type", common.ContentTypeJSON)
	req.Header.Set("Accept", common.ContentTypeJSON)
	g.authorize(req)

	return g.do(req)
}

// Upload sends file as multipart/form-data with the fields "file" and
// "surveyId". It uses the upload timeout instead of the request timeout.
func (g *Gateway) Upload(ctx context.Context, path string, file io.Reader, fileName, surveyID string) models.Envelope {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err == nil {
		_, err = io.Copy(part, file)
	}
	if err == nil && surveyID != "" {
		err = mw.WriteField("surveyId", surveyID)
	}
	if err == nil {
		err = mw.Close()
	}
	if err != nil {
		g.metrics.RemoteRequest(http.MethodPost, string(models.KindInternal))
		return models.Fail(models.KindInternal, 0, fmt.Sprintf("failed to build upload form: %v", err))
	}

	ctx, cancel := context.WithTimeout(ctx, g.uploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url(path), &buf)
	if err != nil {
		g.metrics.RemoteRequest(http.MethodPost, string(models.KindInternal))
		return models.Fail(models.KindInternal, 0, fmt.Sprintf("failed to build request: %v", err))
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	g.authorize(req)

	return g.do(req)
}

func (g *Gateway) authorize(req *http.Request) {
	if g.creds == nil {
		return
	}
	if token, ok := g.creds.Token(); ok {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
}

func (g *Gateway) do(req *http.Request) models.Envelope {
	ctx := req.Context()
	env := g.roundTrip(req)
	outcome := "success"
	if !env.Success {
		outcome = string(env.Kind)
		g.log.Debug(ctx, "request failed", "method", req.Method, "path", req.URL.Path,
			"status", env.Status, "kind", env.Kind, "message", env.Message)
	} else {
		g.log.Debug(ctx, "request ok", "method", req.Method, "path", req.URL.Path, "status", env.Status)
	}
	g.metrics.RemoteRequest(req.Method, outcome)
	return env
}

func (g *Gateway) roundTrip(req *http.Request) models.Envelope {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return models.Fail(models.KindTransport, 0, transportMessage(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := serverMessage(raw, resp.StatusCode)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return models.Fail(models.KindAuth, resp.StatusCode, msg)
		}
		return models.Fail(models.KindServer, resp.StatusCode, msg)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Fail(models.KindTransport, 0, transportMessage(err))
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return models.OK(json.RawMessage("null"), resp.StatusCode)
	}
	if !json.Valid(raw) {
		return models.Fail(models.KindServer, resp.StatusCode, "response is not valid JSON")
	}
	return models.OK(g.normalizer.NormalizeFor(req.URL.Path, raw), resp.StatusCode)
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case json.RawMessage:
		if !json.Valid(b) {
			return nil, common.ErrorIncorrectPayload
		}
		return b, nil
	case []byte:
		if !json.Valid(b) {
			return nil, common.ErrorIncorrectPayload
		}
		return b, nil
	default:
		return json.Marshal(body)
	}
}

func transportMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	if errors.Is(err, context.Canceled) {
		return "request canceled"
	}
	return fmt.Sprintf("network error: %v", err)
}

// serverMessage picks the first non-empty "message", "error" or "detail"
// string from a JSON error body, falling back to the status text.
func serverMessage(raw []byte, status int) string {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, k := range []string{"message", "error", "detail"} {
			if s, ok := body[k].(string); ok && s != "" {
				return s
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}
