package shield

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/simplycrm/simplycrm/pkg/kv"
	"github.com/simplycrm/simplycrm/pkg/observability"
)

const (
	blockKeyPrefix     = "shield:block:"
	bucketKeyPrefix    = "shield:bucket:"
	signatureKeyPrefix = "shield:sig:"
)

// SignatureHeader carries the client-supplied idempotency signature.
const SignatureHeader = "X-Request-Signature"

// Probe describes one request to be checked.
type Probe struct {
	// Identity is the client rate-limiting key.
	Identity string
	// Path is the request path, matched against protected prefixes.
	Path string
	// Method is the HTTP method; only mutating methods are deduplicated.
	Method string
	// Signature is the idempotency signature, or "".
	Signature string
	// Now is the check time.
	Now time.Time
}

// Shield is the request rate shield.
type Shield struct {
	store    kv.Store
	provider Provider
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// New creates a Shield. logger and metrics may be nil.
func New(store kv.Store, provider Provider, logger *observability.Logger, metrics *observability.Metrics) *Shield {
	if provider == nil {
		provider = StaticProvider(DefaultConfig())
	}
	return &Shield{store: store, provider: provider, logger: logger, metrics: metrics}
}

// Check evaluates the probe and returns the verdict. Unprotected paths and a
// disabled shield always come back Allowed.
func (s *Shield) Check(ctx context.Context, probe Probe) Verdict {
	cfg := s.provider()
	if !cfg.Enabled || !cfg.Protects(probe.Path) {
		return allow()
	}

	now := probe.Now
	if now.IsZero() {
		now = time.Now()
	}

	if verdict, done := s.checkPenalty(ctx, cfg, probe.Identity, now); done {
		return s.observe(verdict)
	}

	if verdict, done := s.checkSignature(ctx, cfg, probe); done {
		return s.observe(verdict)
	}

	return s.observe(s.consumeBucket(ctx, cfg, probe.Identity, now))
}

// checkPenalty rejects clients inside their penalty window. A store failure
// here fails closed: a client that cannot be cleared is not served.
func (s *Shield) checkPenalty(ctx context.Context, cfg Config, identity string, now time.Time) (Verdict, bool) {
	val, found, err := s.store.Get(ctx, blockKeyPrefix+identity)
	if err != nil {
		s.storeError("penalty_get", err)
		return block(cfg.Penalty), true
	}
	if !found {
		return Verdict{}, false
	}

	blockedUntil, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		_ = s.store.Delete(ctx, blockKeyPrefix+identity)
		return Verdict{}, false
	}

	remaining := time.Unix(blockedUntil, 0).Sub(now)
	if remaining <= 0 {
		return Verdict{}, false
	}
	return block(remaining), true
}

// checkSignature applies duplicate suppression to mutating requests carrying
// a signature. The set-if-absent is atomic, so concurrent resubmissions
// cannot both pass. A store failure fails open.
func (s *Shield) checkSignature(ctx context.Context, cfg Config, probe Probe) (Verdict, bool) {
	if probe.Signature == "" || !isMutating(probe.Method) {
		return Verdict{}, false
	}

	created, err := s.store.Add(ctx, signatureKeyPrefix+probe.Signature, "1", cfg.SignatureTTL)
	if err != nil {
		s.storeError("signature_add", err)
		return Verdict{}, false
	}
	if !created {
		return duplicate(), true
	}
	return Verdict{}, false
}

// consumeBucket increments the fixed-window counter and escalates to the
// penalty box past the burst limit. A store failure fails open.
func (s *Shield) consumeBucket(ctx context.Context, cfg Config, identity string, now time.Time) Verdict {
	count, err := s.store.IncrFixed(ctx, bucketKeyPrefix+identity, cfg.Window)
	if err != nil {
		s.storeError("bucket_incr", err)
		return allow()
	}

	if count <= int64(cfg.BurstLimit) {
		return allow()
	}

	blockedUntil := strconv.FormatInt(now.Add(cfg.Penalty).Unix(), 10)
	if err := s.store.SetWithTTL(ctx, blockKeyPrefix+identity, blockedUntil, cfg.Penalty); err != nil {
		s.storeError("penalty_set", err)
	}
	if s.logger != nil {
		s.logger.WithField("client", identity).
			WithField("count", count).
			Warn("client exceeded burst limit, penalty applied")
	}
	return block(cfg.Penalty)
}

func (s *Shield) observe(v Verdict) Verdict {
	if s.metrics != nil {
		s.metrics.ShieldVerdictsTotal.WithLabelValues(v.Outcome.String()).Inc()
	}
	return v
}

func (s *Shield) storeError(operation string, err error) {
	if s.metrics != nil {
		s.metrics.ShieldStoreErrors.WithLabelValues(operation).Inc()
	}
	if s.logger != nil {
		s.logger.WithError(err).WithField("operation", operation).Error("shield store error")
	}
}

// isMutating reports whether the method can change state. Safe methods are
// never deduplicated regardless of header presence.
func isMutating(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

// ClientIdentity derives the rate-limiting identity for a request: the
// left-most X-Forwarded-For entry when present, else the peer address.
func ClientIdentity(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.SplitN(forwarded, ",", 2)[0])
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// FromRequest builds a Probe from an HTTP request.
func FromRequest(r *http.Request) Probe {
	return Probe{
		Identity:  ClientIdentity(r),
		Path:      r.URL.Path,
		Method:    r.Method,
		Signature: r.Header.Get(SignatureHeader),
		Now:       time.Now(),
	}
}
