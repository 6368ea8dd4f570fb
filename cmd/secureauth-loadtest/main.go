// Command secureauth-loadtest measures the two hot paths of the security
// core: Argon2id hashing and the sealed session round-trip.
//
// With no -redis-addr flag (and no REDIS_ADDR env) it runs against an
// embedded miniredis, so it needs no external infrastructure.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/secureauth/device"
	"github.com/MrEthical07/secureauth/password"
	"github.com/MrEthical07/secureauth/securestore"
	"github.com/MrEthical07/secureauth/session"
)

func main() {
	var (
		hashOps     = flag.Int("hash-ops", 200, "password hash operations")
		sessionOps  = flag.Int("session-ops", 20000, "session save+get round-trips")
		concurrency = flag.Int("concurrency", 32, "concurrent workers")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "sa", "storage key prefix")
		memoryKB    = flag.Uint("argon2-memory", 64*1024, "argon2 memory in KiB")
	)
	flag.Parse()

	if *hashOps <= 0 || *sessionOps <= 0 || *concurrency <= 0 {
		fmt.Fprintln(os.Stderr, "hash-ops, session-ops, and concurrency must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	hashCfg := password.DefaultConfig()
	hashCfg.Memory = uint32(*memoryKB)
	hasher, err := password.NewHasher(hashCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hasher init failed: %v\n", err)
		os.Exit(1)
	}

	provider := device.NewProvider(client, device.StaticSource{Attrs: device.Attributes{
		Platform: "loadtest", Model: "bench", OSVersion: "1", Build: "1",
	}}, *prefix)
	secure := securestore.NewStore(client, nil, provider.Fingerprint, *prefix, time.Now)
	sessions := session.NewManager(client, secure, provider.Fingerprint, *prefix, 24*time.Hour, time.Now)

	hashStats := runHashPhase(hasher, *hashOps, *concurrency)
	sessionStats := runSessionPhase(ctx, sessions, *sessionOps, *concurrency)

	fmt.Println("---- results ----")
	printStats("hash", hashStats)
	printStats("session", sessionStats)
}

func runHashPhase(hasher *password.Hasher, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				_, err := hasher.Hash(fmt.Sprintf("bench-password-%d-%d", worker, i))
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

func runSessionPhase(ctx context.Context, sessions *session.Manager, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				sess, err := sessions.Create(ctx, session.Identity{
					UserID:   fmt.Sprintf("u-%d", worker),
					Email:    fmt.Sprintf("bench-%d@example.com", worker),
					Provider: "email",
				})
				if err == nil {
					err = sessions.Save(ctx, sess)
				}
				if err == nil {
					_, err = sessions.Get(ctx)
				}
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
