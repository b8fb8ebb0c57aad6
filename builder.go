package goFeishuAuth

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/goFeishuAuth/hostenv"
	internalaudit "github.com/MrEthical07/goFeishuAuth/internal/audit"
	"github.com/MrEthical07/goFeishuAuth/internal/backend"
	"github.com/MrEthical07/goFeishuAuth/statetoken"
	"github.com/MrEthical07/goFeishuAuth/storage"
)

// Builder defines a public type used by goFeishuAuth APIs.
//
// Builder instances are single use: Build may be called once.
type Builder struct {
	config Config

	ephemeral storage.Store
	durable   storage.Store

	runtime    hostenv.Runtime
	navigator  Navigator
	httpClient *http.Client
	auditSink  AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig replaces the whole configuration; the Builder keeps a copy.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStores sets the ephemeral and durable backends. A nil store is
// replaced by an in-memory one at Build.
func (b *Builder) WithStores(ephemeral, durable storage.Store) *Builder {
	b.ephemeral = ephemeral
	b.durable = durable
	return b
}

// WithRuntime sets the runtime probed for the host bridge. The default is
// [hostenv.Standalone].
func (b *Builder) WithRuntime(rt hostenv.Runtime) *Builder {
	b.runtime = rt
	return b
}

// WithNavigator sets the component that performs the redirect hand-off.
func (b *Builder) WithNavigator(n Navigator) *Builder {
	b.navigator = n
	return b
}

// WithHTTPClient sets the client used for backend and platform calls.
func (b *Builder) WithHTTPClient(c *http.Client) *Builder {
	b.httpClient = c
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink sets the sink. Events flow only when Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build validates the configuration and wires every component. It fails on
// a second call.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- STORAGE TIERS --------
	ephemeral := b.ephemeral
	if ephemeral == nil {
		mem, err := storage.NewMemoryStore(cfg.Storage.MemoryCapacity)
		if err != nil {
			return nil, err
		}
		ephemeral = mem
	}
	durable := b.durable
	if durable == nil {
		mem, err := storage.NewMemoryStore(cfg.Storage.MemoryCapacity)
		if err != nil {
			return nil, err
		}
		durable = mem
		log.Print("goFeishuAuth: no durable store configured, logins will not survive a restart")
	}
	tiers := storage.NewTiers(ephemeral, durable).Scoped(cfg.Storage.KeyPrefix)

	runtime := b.runtime
	if runtime == nil {
		runtime = hostenv.Standalone
	}

	engine := &Engine{
		config:    cloneConfig(cfg),
		tiers:     tiers,
		guard:     statetoken.NewGuard(tiers.Durable, cfg.Login.StateLength),
		detector:  hostenv.NewDetector(runtime),
		navigator: b.navigator,
		clock:     time.Now,
		newID:     uuid.NewString,
	}

	engine.backend = backend.New(backend.Config{
		BaseURL:     cfg.Backend.BaseURL,
		TokenURL:    cfg.Platform.TokenURL,
		UserInfoURL: cfg.Platform.UserInfoURL,
		Timeout:     cfg.Backend.Timeout,
	}, b.httpClient)
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
