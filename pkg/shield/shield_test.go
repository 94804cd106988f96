package shield

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplycrm/simplycrm/pkg/kv"
)

func testShieldConfig() Config {
	return Config{
		Enabled:           true,
		Window:            10 * time.Second,
		BurstLimit:        3,
		Penalty:           60 * time.Second,
		SignatureTTL:      15 * time.Second,
		ProtectedPrefixes: []string{"/api/"},
	}
}

func newTestShield(t *testing.T, cfg Config) (*Shield, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := kv.NewRedisStore(kv.RedisConfig{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return New(store, StaticProvider(cfg), nil, nil), mr
}

func probeAt(now time.Time) Probe {
	return Probe{
		Identity: "1.2.3.4",
		Path:     "/api/contacts",
		Method:   "GET",
		Now:      now,
	}
}

func TestShield_BurstThenPenalty(t *testing.T) {
	s, mr := newTestShield(t, testShieldConfig())
	ctx := context.Background()
	start := time.Now()

	// 4 requests within 2 seconds: first 3 allowed, 4th blocked.
	for i := 0; i < 3; i++ {
		v := s.Check(ctx, probeAt(start.Add(time.Duration(i)*500*time.Millisecond)))
		assert.Equal(t, Allowed, v.Outcome, "request %d", i+1)
	}

	v := s.Check(ctx, probeAt(start.Add(2*time.Second)))
	require.Equal(t, Blocked, v.Outcome)
	assert.InDelta(t, 60, v.RetryAfter.Seconds(), 1)

	// 61 seconds later the penalty and the bucket have both lapsed.
	mr.FastForward(61 * time.Second)
	v = s.Check(ctx, probeAt(start.Add(63*time.Second)))
	assert.Equal(t, Allowed, v.Outcome, "fresh bucket after the penalty expires")
}

func TestShield_PenaltyOutlivesWindowReset(t *testing.T) {
	s, mr := newTestShield(t, testShieldConfig())
	ctx := context.Background()
	start := time.Now()

	for i := 0; i < 4; i++ {
		s.Check(ctx, probeAt(start))
	}

	// The bucket window has long expired, but the penalty still applies.
	mr.FastForward(20 * time.Second)
	v := s.Check(ctx, probeAt(start.Add(20*time.Second)))
	require.Equal(t, Blocked, v.Outcome)
	assert.InDelta(t, 40, v.RetryAfter.Seconds(), 1, "retry_after reports the remaining penalty")
}

func TestShield_PenaltyCheckedBeforeDuplicate(t *testing.T) {
	s, _ := newTestShield(t, testShieldConfig())
	ctx := context.Background()
	start := time.Now()

	for i := 0; i < 4; i++ {
		s.Check(ctx, probeAt(start))
	}

	// A penalized client is blocked even when resubmitting a signature.
	probe := probeAt(start.Add(time.Second))
	probe.Method = "POST"
	probe.Signature = "sig-1"
	v := s.Check(ctx, probe)
	assert.Equal(t, Blocked, v.Outcome)
}

func TestShield_DuplicateSuppression(t *testing.T) {
	s, mr := newTestShield(t, testShieldConfig())
	ctx := context.Background()
	now := time.Now()

	probe := probeAt(now)
	probe.Method = "POST"
	probe.Signature = "abc123"

	v := s.Check(ctx, probe)
	assert.Equal(t, Allowed, v.Outcome)

	v = s.Check(ctx, probe)
	assert.Equal(t, Duplicate, v.Outcome, "resubmission within the TTL is rejected")

	mr.FastForward(16 * time.Second)
	v = s.Check(ctx, probe)
	assert.Equal(t, Allowed, v.Outcome, "signature expires with its TTL")
}

func TestShield_DuplicateSuppressionIsRaceFree(t *testing.T) {
	s, _ := newTestShield(t, testShieldConfig())
	ctx := context.Background()
	now := time.Now()

	const concurrency = 8
	var wg sync.WaitGroup
	outcomes := make(chan Outcome, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			probe := probeAt(now)
			probe.Method = "POST"
			probe.Signature = "same-signature"
			outcomes <- s.Check(ctx, probe).Outcome
		}()
	}
	wg.Wait()
	close(outcomes)

	allowed := 0
	for outcome := range outcomes {
		if outcome == Allowed {
			allowed++
		}
	}
	assert.Equal(t, 1, allowed, "exactly one concurrent submission passes")
}

func TestShield_SafeMethodsNeverDeduplicated(t *testing.T) {
	cfg := testShieldConfig()
	cfg.BurstLimit = 100
	s, _ := newTestShield(t, cfg)
	ctx := context.Background()
	now := time.Now()

	for _, method := range []string{"GET", "HEAD", "OPTIONS", "TRACE"} {
		probe := probeAt(now)
		probe.Method = method
		probe.Signature = "shared-sig"

		v := s.Check(ctx, probe)
		assert.Equal(t, Allowed, v.Outcome, "%s with a signature is not deduplicated", method)
		v = s.Check(ctx, probe)
		assert.Equal(t, Allowed, v.Outcome)
	}
}

func TestShield_UnprotectedPathBypasses(t *testing.T) {
	s, _ := newTestShield(t, testShieldConfig())
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		probe := probeAt(time.Now())
		probe.Path = "/healthz"
		v := s.Check(ctx, probe)
		assert.Equal(t, Allowed, v.Outcome)
	}
}

func TestShield_DisabledAllowsEverything(t *testing.T) {
	cfg := testShieldConfig()
	cfg.Enabled = false
	s, _ := newTestShield(t, cfg)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		v := s.Check(ctx, probeAt(time.Now()))
		assert.Equal(t, Allowed, v.Outcome)
	}
}

func TestShield_ConfigResolvedPerCheck(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := kv.NewRedisStore(kv.RedisConfig{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	var mu sync.Mutex
	cfg := testShieldConfig()
	provider := func() Config {
		mu.Lock()
		defer mu.Unlock()
		return cfg
	}
	s := New(store, provider, nil, nil)
	ctx := context.Background()

	v := s.Check(ctx, probeAt(time.Now()))
	assert.Equal(t, Allowed, v.Outcome)

	mu.Lock()
	cfg.Enabled = false
	mu.Unlock()

	for i := 0; i < 20; i++ {
		v = s.Check(ctx, probeAt(time.Now()))
		assert.Equal(t, Allowed, v.Outcome, "disable takes effect without restart")
	}
}

// failingStore errors on selected operations to exercise the failure policy.
type failingStore struct {
	kv.Store
	failGet  bool
	failIncr bool
	failAdd  bool
}

var errStoreDown = errors.New("store unreachable")

func (f *failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet {
		return "", false, errStoreDown
	}
	return f.Store.Get(ctx, key)
}

func (f *failingStore) IncrFixed(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if f.failIncr {
		return 0, errStoreDown
	}
	return f.Store.IncrFixed(ctx, key, ttl)
}

func (f *failingStore) Add(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if f.failAdd {
		return false, errStoreDown
	}
	return f.Store.Add(ctx, key, value, ttl)
}

func newFailingShield(t *testing.T, fail func(*failingStore)) *Shield {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := kv.NewRedisStore(kv.RedisConfig{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	fs := &failingStore{Store: store}
	fail(fs)
	return New(fs, StaticProvider(testShieldConfig()), nil, nil)
}

func TestShield_PenaltyCheckFailsClosed(t *testing.T) {
	s := newFailingShield(t, func(fs *failingStore) { fs.failGet = true })

	v := s.Check(context.Background(), probeAt(time.Now()))
	assert.Equal(t, Blocked, v.Outcome, "an unverifiable client is not served")
}

func TestShield_BucketIncrementFailsOpen(t *testing.T) {
	s := newFailingShield(t, func(fs *failingStore) { fs.failIncr = true })

	for i := 0; i < 10; i++ {
		v := s.Check(context.Background(), probeAt(time.Now()))
		assert.Equal(t, Allowed, v.Outcome, "counting outage never drops traffic")
	}
}

func TestShield_SignatureCheckFailsOpen(t *testing.T) {
	s := newFailingShield(t, func(fs *failingStore) { fs.failAdd = true })

	probe := probeAt(time.Now())
	probe.Method = "POST"
	probe.Signature = "sig"
	v := s.Check(context.Background(), probe)
	assert.Equal(t, Allowed, v.Outcome)
}

func TestClientIdentity(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		remoteAddr string
		expected   string
	}{
		{
			name:       "left-most forwarded entry",
			forwarded:  "1.2.3.4, 10.0.0.1, 10.0.0.2",
			remoteAddr: "10.0.0.9:1234",
			expected:   "1.2.3.4",
		},
		{
			name:       "forwarded with whitespace",
			forwarded:  "  5.6.7.8  ",
			remoteAddr: "10.0.0.9:1234",
			expected:   "5.6.7.8",
		},
		{
			name:       "no forwarded header",
			remoteAddr: "192.168.1.5:9999",
			expected:   "192.168.1.5:9999",
		},
		{
			name:     "nothing at all",
			expected: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/x", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.expected, ClientIdentity(r))
		})
	}
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/deals", nil)
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	r.Header.Set(SignatureHeader, "sig-9")

	probe := FromRequest(r)
	assert.Equal(t, "1.2.3.4", probe.Identity)
	assert.Equal(t, "/api/deals", probe.Path)
	assert.Equal(t, "POST", probe.Method)
	assert.Equal(t, "sig-9", probe.Signature)
	assert.False(t, probe.Now.IsZero())
}
