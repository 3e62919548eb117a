package api

import (
	"crypto/subtle"
	"net/http"
	"sync"

	"fleetbook/internal/config"

	"golang.org/x/time/rate"
)

const (
	PermWriteBookings = "write:bookings"
	PermReadBookings  = "read:bookings"
	PermWriteReview   = "write:review"
	PermReadVehicles  = "read:vehicles"
)

// Auth validates API key pairs from request headers and tracks the matched
// client's permission set. Disabled auth admits everything.
type Auth struct {
	cfg config.APIAuthConfig
}

func NewAuth(cfg config.APIAuthConfig) *Auth {
	return &Auth{cfg: cfg}
}

// Authenticate returns the matching client, or nil when credentials are bad.
// The second return is false only when auth is enabled and the check failed.
func (a *Auth) Authenticate(r *http.Request) (*config.APIClientKey, bool) {
	if !a.cfg.Enabled {
		return nil, true
	}

	key := r.Header.Get(a.cfg.HeaderAPIKey)
	extra := r.Header.Get(a.cfg.HeaderExtra)
	if key == "" {
		return nil, false
	}

	for i := range a.cfg.APIKeys {
		client := &a.cfg.APIKeys[i]
		keyOK := subtle.ConstantTimeCompare([]byte(client.Key), []byte(key)) == 1
		extraOK := subtle.ConstantTimeCompare([]byte(client.Extra), []byte(extra)) == 1
		if keyOK && extraOK {
			return client, true
		}
	}
	return nil, false
}

// HasPermission checks the client's grant list. A nil client means auth is
// disabled, which grants everything. "*" is a wildcard grant.
func HasPermission(client *config.APIClientKey, perm string) bool {
	if client == nil {
		return true
	}
	for _, p := range client.Permissions {
		if p == "*" || p == perm {
			return true
		}
	}
	return false
}

// clientLimiter keeps a token bucket per client name.
type clientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newClientLimiter(cfg config.APIRateLimitConfig) *clientLimiter {
	if cfg.RPS <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = int(cfg.RPS)
		if burst < 1 {
			burst = 1
		}
	}
	return &clientLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(cfg.RPS),
		burst:    burst,
	}
}

func (l *clientLimiter) Allow(clientName string) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	lim, ok := l.limiters[clientName]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[clientName] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}
