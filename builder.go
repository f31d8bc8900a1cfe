package goAdmin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/goAdmin/backend"
	"github.com/MrEthical07/goAdmin/internal/audit"
	"github.com/MrEthical07/goAdmin/internal/clock"
	"github.com/MrEthical07/goAdmin/store"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Client]. A Builder is single use.
type Builder struct {
	config     Config
	storage    store.Storage
	redis      redis.UniversalClient
	httpClient *http.Client
	clock      clock.Clock
	logger     *slog.Logger
	auditSink  AuditSink

	built bool
}

// New starts a builder from [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration with a copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStorage overrides the storage driver in the config.
func (b *Builder) WithStorage(s store.Storage) *Builder {
	b.storage = s
	return b
}

// WithRedis supplies the client used by the redis storage driver. The
// caller keeps ownership of it.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithHTTPClient replaces the backend HTTP client, bypassing the configured
// timeout and mTLS settings.
func (b *Builder) WithHTTPClient(h *http.Client) *Builder {
	b.httpClient = h
	return b
}

// WithClock injects the clock used for lockouts, timers and audit times.
func (b *Builder) WithClock(c clock.Clock) *Builder {
	b.clock = c
	return b
}

// WithLogger sets the logger; the default is slog.Default().
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink sets where audit events go when auditing is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the backend latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and assembles the client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	cfg := cloneConfig(b.config)
	if b.storage != nil {
		// The supplied storage wins; keep validation from demanding driver settings.
		cfg.Storage.Driver = StorageMemory
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:  cfg,
		clock:   b.clock,
		logger:  b.logger,
		metrics: NewMetrics(cfg.Metrics),
	}
	if c.clock == nil {
		c.clock = clock.Real()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	opts := []backend.Option{
		backend.WithLogger(c.logger),
		backend.WithObserver(func(_ string, elapsed time.Duration) {
			c.metrics.Observe(MetricBackendLatency, elapsed)
		}),
	}
	if b.httpClient != nil {
		opts = append(opts, backend.WithHTTPClient(b.httpClient))
	}
	api, err := backend.New(cfg.Backend, opts...)
	if err != nil {
		return nil, err
	}
	c.backend = api

	c.storage = b.storage
	if c.storage == nil {
		if err := b.openStorage(c, cfg.Storage); err != nil {
			return nil, err
		}
	}

	c.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	b.built = true
	return c, nil
}

func (b *Builder) openStorage(c *Client, cfg StorageConfig) error {
	switch cfg.Driver {
	case StorageFile:
		fs, err := store.NewFileStorage(cfg.FilePath)
		if err != nil {
			return err
		}
		c.storage = fs
	case StorageRedis:
		rdb := b.redis
		if rdb == nil {
			rdb = redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			c.ownedRedis = rdb
			c.closers = append(c.closers, rdb.Close)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			if c.ownedRedis != nil {
				_ = c.ownedRedis.Close()
			}
			return fmt.Errorf("%w: redis: %v", store.ErrUnavailable, err)
		}
		c.storage = store.NewRedisStorage(rdb, cfg.RedisPrefix)
	default:
		c.storage = store.NewMemoryStorage()
	}
	return nil
}
