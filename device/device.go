package device

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSourceUnavailable indicates the device-attribute source cannot be read.
var ErrSourceUnavailable = errors.New("device attribute source unavailable")

// Attributes are the static device properties the fingerprint is derived from.
type Attributes struct {
	Platform  string
	Model     string
	OSVersion string
	Build     string
}

// Source supplies device attributes. Implementations may fail when the
// underlying platform facility is unavailable; the Provider then falls back
// to a persisted random identifier.
type Source interface {
	Attributes(ctx context.Context) (Attributes, error)
}

// StaticSource is a Source backed by fixed attributes.
type StaticSource struct {
	Attrs Attributes
}

// Attributes implements Source.
func (s StaticSource) Attributes(context.Context) (Attributes, error) {
	return s.Attrs, nil
}

// Info is a best-effort descriptive bundle for the current device. It always
// carries a fingerprint, even when attribute collection failed.
type Info struct {
	Fingerprint string `json:"fingerprint"`
	Platform    string `json:"platform,omitempty"`
	Model       string `json:"model,omitempty"`
	OSVersion   string `json:"os_version,omitempty"`
	Build       string `json:"build,omitempty"`
	Degraded    bool   `json:"degraded,omitempty"`
}

// Provider derives and caches the device fingerprint.
//
// Provider instances are intended to be configured during initialization and
// then treated as immutable; Fingerprint and Info are safe for concurrent use.
type Provider struct {
	redis  redis.UniversalClient
	source Source
	prefix string

	mu     sync.Mutex
	cached string
}

// NewProvider creates a fingerprint provider persisting under prefix.
func NewProvider(redisClient redis.UniversalClient, source Source, prefix string) *Provider {
	if prefix == "" {
		prefix = "sa"
	}
	return &Provider{redis: redisClient, source: source, prefix: prefix}
}

func (p *Provider) key() string {
	return p.prefix + ":device:id"
}

// Fingerprint returns the stable per-device identifier. The first call
// computes and persists it; subsequent calls return the in-memory copy.
func (p *Provider) Fingerprint(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != "" {
		return p.cached, nil
	}

	if p.source != nil {
		if attrs, err := p.source.Attributes(ctx); err == nil {
			fp := hashAttributes(attrs)
			// Persistence is advisory here: derivation is deterministic, so a
			// failed write only costs a recompute after restart.
			_ = p.redis.Set(ctx, p.key(), fp, 0).Err()
			p.cached = fp
			return fp, nil
		}
	}

	// Attribute source failed: reuse the persisted identifier if one exists.
	stored, err := p.redis.Get(ctx, p.key()).Result()
	if err == nil && stored != "" {
		p.cached = stored
		return stored, nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	// Mint a random identifier once; it must survive restarts.
	fallback := hashString(uuid.NewString())
	if err := p.redis.Set(ctx, p.key(), fallback, 0).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	p.cached = fallback
	return fallback, nil
}

// Info returns descriptive device metadata. It never fails: on partial
// failure the bundle is degraded but still carries the fingerprint.
func (p *Provider) Info(ctx context.Context) Info {
	info := Info{}

	if p.source != nil {
		if attrs, err := p.source.Attributes(ctx); err == nil {
			info.Platform = attrs.Platform
			info.Model = attrs.Model
			info.OSVersion = attrs.OSVersion
			info.Build = attrs.Build
		} else {
			info.Degraded = true
		}
	} else {
		info.Degraded = true
	}

	fp, err := p.Fingerprint(ctx)
	if err != nil {
		info.Degraded = true
		fp = "unknown"
	}
	info.Fingerprint = fp
	return info
}

func hashAttributes(a Attributes) string {
	return hashString(a.Platform + "|" + a.Model + "|" + a.OSVersion + "|" + a.Build)
}

func hashString(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}
