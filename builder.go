package secureauth

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/secureauth/account"
	"github.com/MrEthical07/secureauth/device"
	"github.com/MrEthical07/secureauth/events"
	internalaudit "github.com/MrEthical07/secureauth/internal/audit"
	"github.com/MrEthical07/secureauth/password"
	"github.com/MrEthical07/secureauth/securestore"
	"github.com/MrEthical07/secureauth/session"
)

// Builder assembles a [Service] from injected collaborators. There is no
// package-level singleton: callers construct the Service at startup and
// Close it at shutdown.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	backend      IdentityBackend
	secretStore  SecretStore
	deviceSource DeviceSource
	auditSink    AuditSink
	clock        Clock

	built bool
}

// New returns a Builder primed with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration tree.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the persistent key-value store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithBackend sets the external identity backend.
func (b *Builder) WithBackend(backend IdentityBackend) *Builder {
	b.backend = backend
	return b
}

// WithSecretStore sets the optional hardened secret slot.
func (b *Builder) WithSecretStore(store SecretStore) *Builder {
	b.secretStore = store
	return b
}

// WithDeviceSource sets the device-attribute source for fingerprinting.
func (b *Builder) WithDeviceSource(source DeviceSource) *Builder {
	b.deviceSource = source
	return b
}

// WithAuditSink sets the external audit consumer.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock sets the time source. Tests inject a controllable clock here.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires every component, and returns a
// ready Service. A Builder builds at most once.
func (b *Builder) Build() (*Service, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.backend == nil {
		return nil, errors.New("identity backend is required")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}

	now := b.clock
	if now == nil {
		now = time.Now
	}

	hasher, err := password.NewHasher(b.config.Password)
	if err != nil {
		return nil, err
	}

	prefix := b.config.KeyPrefix
	deviceProvider := device.NewProvider(b.redis, b.deviceSource, prefix)
	secure := securestore.NewStore(b.redis, b.secretStore, deviceProvider.Fingerprint, prefix, now)
	sessions := session.NewManager(b.redis, secure, deviceProvider.Fingerprint, prefix, b.config.Session.Duration, now)
	accounts := account.NewStore(b.redis, account.Config{
		LockThreshold: b.config.Lockout.Threshold,
		LockDuration:  b.config.Lockout.Duration,
	}, prefix, now)
	log := events.NewLog(b.redis, deviceProvider.Fingerprint, events.Config{
		Cap:             b.config.Events.Cap,
		EnforceCooldown: b.config.Anomaly.EnforceCooldown,
		Detect: events.DetectConfig{
			RapidThreshold:  b.config.Anomaly.RapidThreshold,
			RapidWindow:     b.config.Anomaly.RapidWindow,
			RapidCooldown:   b.config.Anomaly.RapidCooldown,
			VolumeThreshold: b.config.Anomaly.VolumeThreshold,
			VolumeWindow:    b.config.Anomaly.VolumeWindow,
			VolumeCooldown:  b.config.Anomaly.VolumeCooldown,
		},
	}, prefix, now)

	sink := b.auditSink
	if sink != nil && b.config.Audit.MaskEmails {
		sink = internalaudit.NewMaskingSink(sink)
	}
	dispatcher := internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    b.config.Audit.Enabled,
		BufferSize: b.config.Audit.BufferSize,
		DropIfFull: b.config.Audit.DropIfFull,
	}, sink)

	b.built = true
	return &Service{
		config:   b.config,
		backend:  b.backend,
		device:   deviceProvider,
		secure:   secure,
		sessions: sessions,
		accounts: accounts,
		log:      log,
		hasher:   hasher,
		audit:    dispatcher,
		metrics:  NewMetrics(b.config.Metrics),
		now:      now,
	}, nil
}
