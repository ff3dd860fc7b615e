package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pario-ai/memogate/pkg/models"
	"github.com/pario-ai/memogate/pkg/ratelimit"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	clientIDKey
)

// maxRequestIDLen bounds caller-supplied request IDs.
const maxRequestIDLen = 128

// requestID propagates a well-formed X-Request-ID and generates one otherwise.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// validRequestID accepts short tokens of letters, digits and . _ : -
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.', c == '_', c == ':', c == '-':
		default:
			return false
		}
	}
	return true
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func clientIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey).(string)
	return id
}

// admit runs admission control for the client and rejects with 429 when
// either window is full.
func (s *Server) admit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		client := s.clientID(r)

		decision, err := s.limiter.CheckAndRecord(client)
		if errors.Is(err, ratelimit.ErrInvalidClient) {
			writeJSONError(w, http.StatusBadRequest, "unable to identify client")
			return
		}
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "admission check failed")
			return
		}
		s.metrics.ObserveAdmission(decision)

		lim := s.limiter.Config()
		h := w.Header()
		h.Set("X-RateLimit-Limit-Minute", strconv.Itoa(lim.ShortLimit))
		h.Set("X-RateLimit-Remaining-Minute", strconv.Itoa(decision.RemainingShort))
		h.Set("X-RateLimit-Limit-Hour", strconv.Itoa(lim.LongLimit))
		h.Set("X-RateLimit-Remaining-Hour", strconv.Itoa(decision.RemainingLong))

		if !decision.Allowed {
			retry := lim.ShortHorizon
			if decision.Reason == models.ReasonLongWindow {
				retry = lim.LongHorizon
			}
			secs := int(retry / time.Second)
			h.Set("Retry-After", strconv.Itoa(secs))
			s.observe(r.Context(), client, "", models.OutcomeDenied, start)
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"detail":      "Rate limit exceeded: " + decision.Reason,
				"retry_after": fmt.Sprintf("%d seconds", secs),
			})
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIDKey, client)))
	})
}

// requireAdmin guards the cache and limiter endpoints. With an admin token
// configured the caller must present it as a bearer token; without one only
// loopback callers are served.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminToken != "" {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.AdminToken)) != 1 {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeJSONError(w, http.StatusUnauthorized, "admin token required")
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		if ip := net.ParseIP(remoteHost(r)); ip == nil || !ip.IsLoopback() {
			writeJSONError(w, http.StatusForbidden, "admin endpoints are restricted to loopback")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientID identifies the caller by source address. Behind trusted proxies
// the identity is the X-Forwarded-For entry appended by the outermost proxy,
// ProxyHops entries from the right; entries further left are caller-written.
func (s *Server) clientID(r *http.Request) string {
	if s.cfg.TrustProxy {
		if ip := forwardedFor(r.Header.Values("X-Forwarded-For"), s.cfg.ProxyHops); ip != "" {
			return ip
		}
	}
	return remoteHost(r)
}

func forwardedFor(headers []string, hops int) string {
	var entries []string
	for _, h := range headers {
		for _, part := range strings.Split(h, ",") {
			if p := strings.TrimSpace(part); p != "" {
				entries = append(entries, p)
			}
		}
	}
	if len(entries) == 0 {
		return ""
	}
	hops = max(hops, 1)
	if hops > len(entries) {
		return entries[0]
	}
	return entries[len(entries)-hops]
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
