package middleware

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/gin-gonic/gin"
)

const (
	minLatencyMicros = 1
	maxLatencyMicros = int64(time.Minute / time.Microsecond)

	unmatchedRoute = "unmatched"
)

// RouteLatency summarizes one route's latency distribution in milliseconds
type RouteLatency struct {
	Route string  `json:"route"`
	Count int64   `json:"count"`
	P50   float64 `json:"p50_ms"`
	P95   float64 `json:"p95_ms"`
	P99   float64 `json:"p99_ms"`
	Max   float64 `json:"max_ms"`
}

// LatencyRecorder keeps a histogram per matched route
type LatencyRecorder struct {
	mu     sync.Mutex
	routes map[string]*hdrhistogram.Histogram
}

func NewLatencyRecorder() *LatencyRecorder {
	return &LatencyRecorder{routes: make(map[string]*hdrhistogram.Histogram)}
}

func (r *LatencyRecorder) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// FullPath is empty unless a route registered for this method matched,
		// so client-chosen methods all land in one bucket
		route := unmatchedRoute
		if path := c.FullPath(); path != "" {
			route = c.Request.Method + " " + path
		}
		r.Record(route, time.Since(start))
	}
}

// Record adds one observation; values beyond the histogram range are clamped
func (r *LatencyRecorder) Record(route string, d time.Duration) {
	micros := d.Microseconds()
	if micros < minLatencyMicros {
		micros = minLatencyMicros
	}
	if micros > maxLatencyMicros {
		micros = maxLatencyMicros
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.routes[route]
	if !ok {
		h = hdrhistogram.New(minLatencyMicros, maxLatencyMicros, 3)
		r.routes[route] = h
	}
	_ = h.RecordValue(micros)
}

// Snapshot returns per-route quantiles sorted by route
func (r *LatencyRecorder) Snapshot() []RouteLatency {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RouteLatency, 0, len(r.routes))
	for route, h := range r.routes {
		out = append(out, RouteLatency{
			Route: route,
			Count: h.TotalCount(),
			P50:   microsToMillis(h.ValueAtQuantile(50)),
			P95:   microsToMillis(h.ValueAtQuantile(95)),
			P99:   microsToMillis(h.ValueAtQuantile(99)),
			Max:   microsToMillis(h.Max()),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Route < out[j].Route })
	return out
}

func microsToMillis(v int64) float64 {
	return float64(v) / 1000
}
