package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/wonny/bankrank/backend/pkg/logger"
	"github.com/wonny/bankrank/backend/pkg/redis"
)

// maxLocalLimiters bounds the in-process limiter table
const maxLocalLimiters = 10000

// RateLimit limits requests per client IP. Redis is used when enabled so the
// limit holds across replicas; otherwise (or on Redis errors) an in-process
// token bucket per IP applies.
//
// The client is the TCP peer. X-Forwarded-For is read only when the peer is
// a trusted proxy, and then the right-most hop that is not itself trusted wins.
// ⭐ SSOT: 요청 제한은 여기서만
type RateLimit struct {
	scope     string
	perMinute int
	redis     *redis.RateLimiter
	metrics   *Metrics
	logger    *logger.Logger
	trusted   []*net.IPNet

	mu         sync.Mutex
	local      map[string]*rate.Limiter
	maxClients int
	overflow   *rate.Limiter // shared by new clients while the table is full
}

// NewRateLimit creates a limiter allowing perMinute requests per client for scope.
// rl and metrics may be nil.
func NewRateLimit(scope string, perMinute int, rl *redis.RateLimiter, metrics *Metrics, log *logger.Logger) *RateLimit {
	if log == nil {
		log = logger.NewNop()
	}
	return &RateLimit{
		scope:      scope,
		perMinute:  perMinute,
		redis:      rl,
		metrics:    metrics,
		logger:     log,
		local:      make(map[string]*rate.Limiter),
		maxClients: maxLocalLimiters,
		overflow:   newBucket(perMinute),
	}
}

// TrustProxies sets the proxies allowed to report the client address.
// Entries are IPs or CIDRs.
func (l *RateLimit) TrustProxies(proxies []string) error {
	nets, err := ParseTrustedProxies(proxies)
	if err != nil {
		return err
	}
	l.trusted = nets
	return nil
}

// ParseTrustedProxies turns IPs and CIDRs into networks (a bare IP is a /32 or /128)
func ParseTrustedProxies(proxies []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(proxies))
	for _, proxy := range proxies {
		proxy = strings.TrimSpace(proxy)
		if proxy == "" {
			continue
		}
		if ip := net.ParseIP(proxy); ip != nil {
			bits := 8 * net.IPv4len
			if ip.To4() == nil {
				bits = 8 * net.IPv6len
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipNet, err := net.ParseCIDR(proxy)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", proxy, err)
		}
		nets = append(nets, ipNet)
	}
	return nets, nil
}

// Middleware rejects requests over the limit with 429
func (l *RateLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(r) {
			l.metrics.incRateLimitBlocked()
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimit) allow(r *http.Request) bool {
	key := l.clientIP(r)

	if l.redis != nil && l.redis.Enabled() {
		allowed, _, err := l.redis.Allow(r.Context(), redis.PerMinute(l.scope+":"+key, l.perMinute))
		if err == nil {
			return allowed
		}
		l.metrics.incRateLimitRedisErrors()
		l.logger.WithError(err).WithField("client", key).Warn("Redis rate limit failed, using local limiter")
	}

	return l.limiter(key).Allow()
}

func (l *RateLimit) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.local[key]; ok {
		return lim
	}

	if len(l.local) >= l.maxClients {
		l.sweep()
	}
	if len(l.local) >= l.maxClients {
		return l.overflow
	}

	lim := newBucket(l.perMinute)
	l.local[key] = lim
	return lim
}

// sweep drops buckets that have refilled completely; they behave like new ones
func (l *RateLimit) sweep() {
	for key, lim := range l.local {
		if lim.Tokens() >= float64(lim.Burst()) {
			delete(l.local, key)
		}
	}
}

func newBucket(perMinute int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute)
}

// clientIP returns the TCP peer, or the right-most untrusted X-Forwarded-For
// hop when the peer is a trusted proxy
func (l *RateLimit) clientIP(r *http.Request) string {
	peer := remoteHost(r)
	if len(l.trusted) == 0 || !l.isTrusted(peer) {
		return peer
	}

	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		ip := net.ParseIP(hop)
		if ip == nil {
			return peer
		}
		if !l.isTrusted(hop) {
			return ip.String()
		}
	}
	return peer
}

func (l *RateLimit) isTrusted(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range l.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
