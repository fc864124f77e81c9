package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"perfboard/internal/transport/http/api"
)

// pruneThreshold bounds how many idle buckets a window keeps before expired
// ones are dropped.
const pruneThreshold = 4096

type RateLimitKeyFunc func(r *http.Request) string

type RateLimitOption func(*fixedWindow)

func WithKeyFunc(fn RateLimitKeyFunc) RateLimitOption {
	return func(fw *fixedWindow) {
		if fn != nil {
			fw.key = fn
		}
	}
}

func withClock(now func() time.Time) RateLimitOption {
	return func(fw *fixedWindow) {
		fw.now = now
	}
}

// fixedWindow counts requests per key in windows that start with the key's
// first request.
type fixedWindow struct {
	limit  int
	window time.Duration
	key    RateLimitKeyFunc
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*windowBucket
}

type windowBucket struct {
	hits  int
	reset time.Time
}

type windowState struct {
	limit     int
	remaining int
	resetIn   int
	allowed   bool
}

func newFixedWindow(limit int, window time.Duration, key RateLimitKeyFunc, opts ...RateLimitOption) *fixedWindow {
	fw := &fixedWindow{
		limit:   limit,
		window:  window,
		key:     key,
		now:     time.Now,
		buckets: map[string]*windowBucket{},
	}
	for _, opt := range opts {
		opt(fw)
	}
	if fw.key == nil {
		fw.key = actorOrIPKey
	}
	return fw
}

func (fw *fixedWindow) take(key string) windowState {
	now := fw.now()

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if len(fw.buckets) >= pruneThreshold {
		for k, b := range fw.buckets {
			if now.After(b.reset) {
				delete(fw.buckets, k)
			}
		}
	}

	b, ok := fw.buckets[key]
	if !ok || now.After(b.reset) {
		b = &windowBucket{reset: now.Add(fw.window)}
		fw.buckets[key] = b
	}
	b.hits++

	return windowState{
		limit:     fw.limit,
		remaining: max(fw.limit-b.hits, 0),
		resetIn:   ceilSeconds(b.reset.Sub(now)),
		allowed:   b.hits <= fw.limit,
	}
}

// allow charges one request to its key and answers 429 when the window is
// exhausted. A non-positive limit disables the check.
func (fw *fixedWindow) allow(w http.ResponseWriter, r *http.Request) bool {
	if fw.limit <= 0 {
		return true
	}
	key := fw.key(r)
	if key == "" {
		key = clientIPKey(r)
	}
	st := fw.take(key)

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(st.limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(st.remaining))
	h.Set("X-RateLimit-Reset", strconv.Itoa(st.resetIn))
	if st.allowed {
		return true
	}

	h.Set("Retry-After", strconv.Itoa(max(st.resetIn, 1)))
	slog.Warn("rate limit exceeded", "key", key, "method", r.Method, "path", r.URL.Path, "limit", st.limit)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// RateLimit applies one window per actor, or per client IP for anonymous
// requests.
func RateLimit(limit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	fw := newFixedWindow(limit, window, actorOrIPKey, opts...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if fw.allow(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// SensitiveMutationRateLimit adds tighter windows on login and on writes that
// change organization-wide outcomes (settings, award resolution and delivery
// records, overrides, manual job runs). Login is limited by IP and by
// submitted email at a quarter of baseLimit; the other writes by actor at half.
func SensitiveMutationRateLimit(baseLimit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	loginLimit := max(baseLimit/4, 1)
	writeLimit := max(baseLimit/2, 1)
	loginByIP := newFixedWindow(loginLimit, window, clientIPKey, opts...)
	loginByEmail := newFixedWindow(loginLimit, window, AuthEmailOrIPKey("email"), opts...)
	writesByActor := newFixedWindow(writeLimit, window, actorOrIPKey, opts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch classifySensitive(r) {
			case scopeLogin:
				if !loginByIP.allow(w, r) || !loginByEmail.allow(w, r) {
					return
				}
			case scopeOutcomeWrite:
				if !writesByActor.allow(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

type sensitiveScope int

const (
	scopeNone sensitiveScope = iota
	scopeLogin
	scopeOutcomeWrite
)

type sensitiveRoute struct {
	prefix string
	suffix string
	scope  sensitiveScope
}

var sensitiveRoutes = []sensitiveRoute{
	{prefix: "/auth/login", scope: scopeLogin},
	{prefix: "/settings/", scope: scopeOutcomeWrite},
	{prefix: "/awards/", suffix: "/resolve", scope: scopeOutcomeWrite},
	{prefix: "/awards/history/", suffix: "/certificate", scope: scopeOutcomeWrite},
	{prefix: "/awards/history/", suffix: "/delivery-photo", scope: scopeOutcomeWrite},
	{prefix: "/challenges/", suffix: "/override", scope: scopeOutcomeWrite},
	{prefix: "/jobs/", scope: scopeOutcomeWrite},
}

func classifySensitive(r *http.Request) sensitiveScope {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return scopeNone
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	for _, route := range sensitiveRoutes {
		if strings.HasPrefix(path, route.prefix) && strings.HasSuffix(path, route.suffix) {
			return route.scope
		}
	}
	return scopeNone
}

// AuthEmailOrIPKey keys login attempts by the email in the JSON body,
// falling back to the client IP.
func AuthEmailOrIPKey(field string) RateLimitKeyFunc {
	field = strings.TrimSpace(field)
	if field == "" {
		field = "email"
	}
	return func(r *http.Request) string {
		if email := peekJSONString(r, field); email != "" {
			return "email:" + strings.ToLower(email)
		}
		return clientIPKey(r)
	}
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.OrganizationID + ":" + user.UserID
	}
	return clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	return addr
}

// peekJSONString reads one string field from a JSON body and restores the
// body for the next handler.
func peekJSONString(r *http.Request, field string) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}
