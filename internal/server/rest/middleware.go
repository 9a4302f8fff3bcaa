package rest

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/vaultblob/internal/common"
	"github.com/dmitrijs2005/vaultblob/internal/server/auth"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

type ctxKey string

const userKey ctxKey = "user"

func userFromContext(ctx context.Context) *auth.Claims {
	u, _ := ctx.Value(userKey).(*auth.Claims)
	return u
}

// authenticate verifies the user access token and stores its claims in
// the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accessToken := r.Header.Get(common.AccessTokenHeaderName)
		if accessToken == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ParseToken(accessToken, s.jwtSecret)
		if err != nil {
			s.logger.Debug(r.Context(), "rejected access token", "error", err)
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, claims)))
	})
}

const limiterTTL = time.Minute

// limiterPool holds one token bucket per user. Idle buckets expire.
type limiterPool struct {
	mu    sync.Mutex
	limit rate.Limit
	burst int
	cache *ttlcache.Cache[string, *rate.Limiter]
}

func newLimiterPool(perSecond float64, burst int) *limiterPool {
	return &limiterPool{
		limit: rate.Limit(perSecond),
		burst: burst,
		cache: ttlcache.New[string, *rate.Limiter](
			ttlcache.WithTTL[string, *rate.Limiter](limiterTTL),
		),
	}
}

func (p *limiterPool) get(userID string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	item := p.cache.Get(userID)
	if item == nil {
		item = p.cache.Set(userID, rate.NewLimiter(p.limit, p.burst), ttlcache.DefaultTTL)
	}
	return item.Value()
}

// suspend answers 429 with a Suspension-Time header once the user's bucket
// is empty. A non-positive limit disables it.
func (s *Server) suspend(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiters.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		user := userFromContext(r.Context())
		if !s.limiters.get(user.UserID).Allow() {
			seconds := int(math.Ceil(s.suspension.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			s.logger.Warn(r.Context(), "Rate limit exceeded", "user", user.UserID, "path", r.URL.Path, "suspension", seconds)
			w.Header().Set(common.SuspensionTimeHeaderName, strconv.Itoa(seconds))
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug(r.Context(), "request", "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "duration", time.Since(start))
	})
}

// expire drops idle buckets until ctx is done.
func (p *limiterPool) expire(ctx context.Context) {
	go func() {
		<-ctx.Done()
		p.cache.Stop()
	}()
	p.cache.Start()
}
