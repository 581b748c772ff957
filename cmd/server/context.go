package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/app"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/batch"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/config"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/constants"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/extractor"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/httpclient"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/logger"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/notify"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/registration"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/storage"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/store"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/worker"
)

// commandContext lazily builds the shared components a command needs and
// releases them after the command returns.
type commandContext struct {
	policyFlag *string

	cfg    *config.Config
	policy *config.Policy
	logger *logger.Logger
	db     *store.DB
	blobs  storage.WritableBlobStore

	closers []func() error
}

func newCommandContext(policyFlag *string) *commandContext {
	return &commandContext{policyFlag: policyFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}

	cfg := config.Load()
	if c.policyFlag != nil && *c.policyFlag != "" {
		cfg.PolicyFile = *c.policyFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyPolicy(policy)

	c.cfg = cfg
	c.policy = policy
	c.logger = logger.New(logger.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	return cfg, nil
}

func (c *commandContext) openStore() (*store.DB, error) {
	if c.db != nil {
		return c.db, nil
	}
	db, err := store.NewSQLiteDB(c.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	c.db = db
	c.closers = append(c.closers, db.Close)
	return db, nil
}

func (c *commandContext) blobStore(ctx context.Context) (storage.WritableBlobStore, error) {
	if c.blobs != nil {
		return c.blobs, nil
	}

	var blobs storage.WritableBlobStore
	switch c.cfg.BlobBackend {
	case constants.BlobBackendMinio:
		s, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  c.cfg.MinioEndpoint,
			AccessKey: c.cfg.MinioAccessKey,
			SecretKey: c.cfg.MinioSecretKey,
			Bucket:    c.cfg.MinioBucket,
			UseSSL:    c.cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("open minio store: %w", err)
		}
		blobs = s
	default:
		s, err := storage.NewLocalStore(c.cfg.BlobRoot)
		if err != nil {
			return nil, fmt.Errorf("open blob root: %w", err)
		}
		blobs = s
	}
	c.blobs = blobs
	return blobs, nil
}

func (c *commandContext) ingest(ctx context.Context) (*app.IngestService, error) {
	db, err := c.openStore()
	if err != nil {
		return nil, err
	}
	blobs, err := c.blobStore(ctx)
	if err != nil {
		return nil, err
	}
	return app.NewIngestService(db, blobs, c.logger), nil
}

// notifier publishes to Redis when configured and falls back to the log.
func (c *commandContext) notifier(ctx context.Context) notify.Notifier {
	if c.cfg.RedisAddr == "" {
		return notify.NewLogNotifier(c.logger)
	}
	n, err := notify.NewRedisNotifier(ctx, &redis.Options{
		Addr:     c.cfg.RedisAddr,
		Password: c.cfg.RedisPassword,
		DB:       c.cfg.RedisDB,
	}, c.cfg.AlertChannel)
	if err != nil {
		c.logger.Warn("Redis unavailable, alerts go to the log", "addr", c.cfg.RedisAddr, "error", err)
		return notify.NewLogNotifier(c.logger)
	}
	c.closers = append(c.closers, n.Close)
	return n
}

func (c *commandContext) registryClient() registration.Client {
	if c.cfg.RegistryURL == "" {
		return registration.NewSimulatedClient(constants.DefaultRegistryName)
	}
	hc := httpclient.NewClient(&http.Client{Timeout: constants.DefaultHTTPTimeout}, 0)
	return registration.NewHTTPClient(hc, c.cfg.RegistryURL, c.cfg.RegistryAPIKey)
}

func (c *commandContext) newWorker(ctx context.Context) (*worker.Worker, error) {
	db, err := c.openStore()
	if err != nil {
		return nil, err
	}
	blobs, err := c.blobStore(ctx)
	if err != nil {
		return nil, err
	}

	defects := extractor.NewRandomDefects(c.policy.Defects, time.Now().UnixNano())
	dispatcher := worker.NewTaskDispatcher(worker.Handlers{
		Extractor: extractor.New(db, blobs, c.policy, defects, c.logger),
		Orchestrator: batch.New(db, c.policy, batch.Identity{
			ISRCCountry:    c.cfg.ISRCCountry,
			ISRCRegistrant: c.cfg.ISRCRegistrant,
			UPCPrefix:      c.cfg.UPCPrefix,
		}, c.logger),
		Registration: registration.NewService(db, c.registryClient(), c.cfg.HomeCountry, c.logger),
	})

	w := worker.NewWorker(db, dispatcher, c.notifier(ctx), c.logger)
	w.MaxConcurrent = c.cfg.WorkerConcurrency
	return w, nil
}

func (c *commandContext) close() error {
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	return firstErr
}
