package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLogUnavailable indicates the event-log backend is unreachable.
var ErrLogUnavailable = errors.New("event log unavailable")

// DeviceFunc supplies the device fingerprint stamped onto events.
type DeviceFunc func(ctx context.Context) (string, error)

// Config tunes the log and its detector.
type Config struct {
	Cap             int  // retained entries; older ones are trimmed
	EnforceCooldown bool // persist and enforce detection cooldowns
	Detect          DetectConfig
}

// DefaultConfig returns the standard log policy: 100 retained events,
// detection per DefaultDetectConfig, cooldowns computed but not enforced.
func DefaultConfig() Config {
	return Config{Cap: 100, Detect: DefaultDetectConfig()}
}

// Log is the bounded security event log.
//
// Log instances are intended to be configured during initialization and then
// treated as immutable; methods are safe for concurrent use.
type Log struct {
	redis  redis.UniversalClient
	device DeviceFunc
	config Config
	prefix string
	now    func() time.Time
}

// NewLog creates an event log persisting under prefix.
func NewLog(redisClient redis.UniversalClient, device DeviceFunc, cfg Config, prefix string, now func() time.Time) *Log {
	if cfg.Cap <= 0 {
		cfg.Cap = 100
	}
	if cfg.Detect.RapidThreshold <= 0 {
		cfg.Detect = DefaultDetectConfig()
	}
	if prefix == "" {
		prefix = "sa"
	}
	if now == nil {
		now = time.Now
	}
	return &Log{redis: redisClient, device: device, config: cfg, prefix: prefix, now: now}
}

func (l *Log) listKey() string {
	return l.prefix + ":events"
}

func (l *Log) cooldownKey() string {
	return l.prefix + ":events:cooldown_until"
}

// Record appends an event, trims the log to its cap, and synchronously
// re-evaluates anomaly detection. A rapid-failure verdict emits a
// suspicious_activity_detected event alongside the verdict.
func (l *Log) Record(ctx context.Context, eventType string, details map[string]string) (Detection, error) {
	if err := l.append(ctx, eventType, details); err != nil {
		return Detection{}, err
	}

	// The marker event itself must not feed back into detection.
	if eventType == TypeSuspicious {
		return Detection{}, nil
	}

	recent, err := l.Recent(ctx, l.config.Cap)
	if err != nil {
		return Detection{}, err
	}

	verdict := Detect(recent, l.now(), l.config.Detect)
	if verdict.Suspicious {
		if verdict.Reason == ReasonRapidFailures {
			_ = l.append(ctx, TypeSuspicious, map[string]string{
				"reason":      verdict.Reason,
				"cooldown_ms": strconv.FormatInt(verdict.Cooldown.Milliseconds(), 10),
			})
		}
		if l.config.EnforceCooldown {
			until := l.now().Add(verdict.Cooldown)
			_ = l.redis.Set(ctx, l.cooldownKey(), strconv.FormatInt(until.UnixMilli(), 10), verdict.Cooldown).Err()
		}
	}

	return verdict, nil
}

// Check runs detection over the current log without appending anything.
func (l *Log) Check(ctx context.Context) (Detection, error) {
	if l.config.EnforceCooldown {
		if remaining, ok := l.cooldownRemaining(ctx); ok {
			return Detection{
				Suspicious: true,
				Reason:     "suspicious-activity cooldown in effect",
				Cooldown:   remaining,
			}, nil
		}
	}

	recent, err := l.Recent(ctx, l.config.Cap)
	if err != nil {
		return Detection{}, err
	}
	return Detect(recent, l.now(), l.config.Detect), nil
}

// Recent returns up to limit events in chronological order. Read failures
// and undecodable entries degrade to an empty or shorter slice.
func (l *Log) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > l.config.Cap {
		limit = l.config.Cap
	}

	raw, err := l.redis.LRange(ctx, l.listKey(), 0, int64(limit-1)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, nil
	}

	// The list is newest first; reverse into chronological order.
	out := make([]Event, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var e Event
		if err := json.Unmarshal([]byte(raw[i]), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// AnonymizeEmail rewrites the email detail of every event matching email to
// the deleted marker. Events themselves are retained for audit continuity.
func (l *Log) AnonymizeEmail(ctx context.Context, email string) error {
	raw, err := l.redis.LRange(ctx, l.listKey(), 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrLogUnavailable, err)
	}

	for i, entry := range raw {
		var e Event
		if err := json.Unmarshal([]byte(entry), &e); err != nil {
			continue
		}
		if e.Details == nil || !strings.EqualFold(e.Details["email"], email) {
			continue
		}
		e.Details["email"] = DeletedMarker
		updated, err := json.Marshal(e)
		if err != nil {
			continue
		}
		if err := l.redis.LSet(ctx, l.listKey(), int64(i), updated).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrLogUnavailable, err)
		}
	}
	return nil
}

// Clear drops the entire log. Used by tests and account deletion flows.
func (l *Log) Clear(ctx context.Context) error {
	if err := l.redis.Del(ctx, l.listKey(), l.cooldownKey()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLogUnavailable, err)
	}
	return nil
}

func (l *Log) append(ctx context.Context, eventType string, details map[string]string) error {
	deviceID := ""
	if l.device != nil {
		if fp, err := l.device(ctx); err == nil {
			deviceID = fp
		}
	}

	e := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Details:   details,
		Timestamp: l.now(),
		Device:    deviceID,
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}

	pipe := l.redis.TxPipeline()
	pipe.LPush(ctx, l.listKey(), raw)
	pipe.LTrim(ctx, l.listKey(), 0, int64(l.config.Cap-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrLogUnavailable, err)
	}
	return nil
}

func (l *Log) cooldownRemaining(ctx context.Context) (time.Duration, bool) {
	v, err := l.redis.Get(ctx, l.cooldownKey()).Result()
	if err != nil {
		return 0, false
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	remaining := time.UnixMilli(ms).Sub(l.now())
	if remaining <= 0 {
		return 0, false
	}
	return remaining, true
}
