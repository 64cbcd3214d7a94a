// internal/server/middleware.go
package server

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"

	"github.com/google/uuid"

	apperrors "charting-assistant/internal/common/errors"
	"charting-assistant/internal/common/logger"
	"charting-assistant/internal/common/metrics"
	"charting-assistant/internal/common/ratelimit"
	"charting-assistant/internal/handlers/chat"
)

type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so the first one listed runs first.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// RequestID keeps a caller-supplied X-Request-ID or assigns a new one, on both request and response.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(chat.RequestIDHeader))
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			r.Header.Set(chat.RequestIDHeader, id)
			w.Header().Set(chat.RequestIDHeader, id)
			next.ServeHTTP(w, r)
		})
	}
}

// CORS answers preflight requests with 204 and decorates the rest.
func CORS(allowedOrigins []string) Middleware {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+chat.RequestIDHeader)
			w.Header().Set("Access-Control-Expose-Headers", chat.RequestIDHeader)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit rejects callers over the limit with 429. Redis errors let the request through.
func RateLimit(limiter *ratelimit.Limiter, clients *ClientIPResolver, errs *apperrors.ErrorHandler, log logger.Logger) Middleware {
	if clients == nil {
		clients = NewClientIPResolver(nil)
	}
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clients.ClientIP(r)
			d, err := limiter.Check(r.Context(), key)
			if err != nil {
				logger.ForRequest(log, logger.Request{ID: r.Header.Get(chat.RequestIDHeader)}).
					WithError(err).
					Warn("rate limiter unavailable", map[string]interface{}{"client": key})
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
			if !d.Allowed {
				metrics.RateLimitedTotal.Inc()
				retry := int(limiter.Window().Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				errs.Write(w, apperrors.NewRateLimitedError(key))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Recover turns a panic into a 500 JSON error.
func Recover(errs *apperrors.ErrorHandler) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					stdErr := apperrors.NewInternalError(fmt.Errorf("panic: %v", rec))
					stdErr.Metadata = logger.Request{ID: r.Header.Get(chat.RequestIDHeader)}.
						Annotate(map[string]interface{}{"path": r.URL.Path})
					errs.Write(w, stdErr)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIPResolver picks the address a request is rate limited under.
type ClientIPResolver struct {
	trusted []netip.Prefix
}

func NewClientIPResolver(trusted []netip.Prefix) *ClientIPResolver {
	return &ClientIPResolver{trusted: trusted}
}

// ClientIP returns the connection peer unless that peer is a trusted proxy. Then
// X-Forwarded-For is read right to left and the first hop that is not itself trusted wins.
func (c *ClientIPResolver) ClientIP(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	if !c.isTrusted(peer) {
		return peer
	}

	hops := forwardedHops(r.Header.Values("X-Forwarded-For"))
	for i := len(hops) - 1; i >= 0; i-- {
		if !c.isTrusted(hops[i]) {
			return hops[i]
		}
	}
	if len(hops) > 0 {
		return hops[0]
	}
	return peer
}

func (c *ClientIPResolver) isTrusted(host string) bool {
	if len(c.trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range c.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func forwardedHops(values []string) []string {
	var hops []string
	for _, v := range values {
		for _, hop := range strings.Split(v, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	return hops
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
