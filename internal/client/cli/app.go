package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"

	"github.com/fieldsync/fieldsync/internal/client/auth"
	"github.com/fieldsync/fieldsync/internal/client/client"
	"github.com/fieldsync/fieldsync/internal/client/config"
	"github.com/fieldsync/fieldsync/internal/client/connectivity"
	"github.com/fieldsync/fieldsync/internal/client/gateway"
	"github.com/fieldsync/fieldsync/internal/client/metrics"
	"github.com/fieldsync/fieldsync/internal/client/services"
	"github.com/fieldsync/fieldsync/internal/client/store"
	"github.com/fieldsync/fieldsync/internal/client/uploads"
	"github.com/fieldsync/fieldsync/internal/filex"
	"github.com/fieldsync/fieldsync/internal/logging"
)

// App is one fully wired client: local store, gateway, connectivity monitor
// and the services on top of them.
type App struct {
	config  *config.Config
	log     logging.Logger
	db      *sql.DB
	store   *store.Store
	metrics *metrics.Metrics
	monitor *connectivity.Monitor
	tokens  *auth.TokenStore
	auth    services.AuthService
	surveys *services.SurveyAPI
	sync    *services.SyncService
	out     io.Writer
}

func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger, out io.Writer) (*App, error) {
	if _, err := filex.EnsureParentDir(cfg.DatabasePath); err != nil {
		return nil, fmt.Errorf("error preparing database directory: %w", err)
	}
	db, err := client.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	a := &App{config: cfg, log: log, db: db, out: out}
	if err := a.wire(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.config
	a.store = store.New(a.db, a.log)
	a.metrics = metrics.New()

	a.tokens = auth.NewTokenStore(a.store.Metadata(), a.log)
	if err := a.tokens.Load(ctx); err != nil {
		return err
	}

	gw := gateway.New(cfg.ServerBaseURL, a.tokens, a.log,
		gateway.WithTimeout(cfg.RequestTimeout),
		gateway.WithUploadTimeout(cfg.UploadTimeout),
		gateway.WithMetrics(a.metrics),
	)

	probes, err := connectivity.ProbesFromTargets(cfg.ProbeTargets)
	if err != nil {
		return err
	}
	a.monitor = connectivity.NewMonitor(connectivity.NewState(), probes, a.log,
		connectivity.WithProbeTimeout(cfg.ProbeTimeout),
		connectivity.WithDebounce(cfg.DebounceInterval),
		connectivity.WithMetrics(a.metrics),
	)

	up, err := newUploader(ctx, cfg, gw)
	if err != nil {
		return err
	}

	fetcher := services.NewFetcher(a.monitor, a.store, a.metrics, a.log)
	a.auth = services.NewAuthService(gw, a.tokens)
	a.surveys = services.NewSurveyAPI(fetcher, gw, a.monitor, a.store, up, a.log)
	a.sync = services.NewSyncService(a.monitor, gw, a.store, up, a.metrics, a.log)
	return nil
}

func newUploader(ctx context.Context, cfg *config.Config, gw *gateway.Gateway) (uploads.Uploader, error) {
	switch cfg.Attachments.Backend {
	case config.BackendS3:
	case config.BackendPresigned:
		return uploads.NewPresignedUploader(gw, &http.Client{Timeout: cfg.UploadTimeout}), nil
	default:
		return uploads.NewGatewayUploader(gw), nil
	}
	att := cfg.Attachments
	up, err := uploads.NewS3Uploader(ctx, uploads.S3Config{
		Bucket:    att.S3Bucket,
		Region:    att.S3Region,
		Endpoint:  att.S3Endpoint,
		Prefix:    att.S3Prefix,
		AccessKey: att.S3AccessKey,
		SecretKey: att.S3SecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("error initializing s3 uploader: %w", err)
	}
	return up, nil
}

func (a *App) Close() error {
	return a.db.Close()
}

// refresh updates the connectivity state before a remote-facing command so
// an unreachable server is detected by the probes rather than by a request
// timeout.
func (a *App) refresh(ctx context.Context) bool {
	ok := a.monitor.RefreshStatus(ctx)
	if !ok {
		fmt.Fprintln(a.out, "offline: using local data")
	}
	return ok
}
