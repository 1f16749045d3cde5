package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Endpoint names one logical class of API call. Pagination repeats and
// per-team repeats all count under the same logical endpoint.
type Endpoint string

const (
	EndpointLatest      Endpoint = "latest"
	EndpointLogin       Endpoint = "login"
	EndpointMe          Endpoint = "me"
	EndpointUserTeams   Endpoint = "user-teams"
	EndpointTeamFeed    Endpoint = "team-feed"
	EndpointGamesScreen Endpoint = "games-screen"
	EndpointTeamTop     Endpoint = "team-top"
	EndpointSummary     Endpoint = "summary"
	EndpointComments    Endpoint = "comments-thread"
)

// Endpoints lists every logical endpoint in summary-table order.
var Endpoints = []Endpoint{
	EndpointLatest,
	EndpointLogin,
	EndpointMe,
	EndpointUserTeams,
	EndpointTeamFeed,
	EndpointGamesScreen,
	EndpointTeamTop,
	EndpointSummary,
	EndpointComments,
}

// IsFailure reports whether a status code counts as a failed call.
// Status 0 (transport error, no response) is a failure.
func IsFailure(status int) bool {
	return status < 200 || status >= 300
}

// Sample is the outcome of one HTTP exchange. Phase timings are nil when the
// transport did not observe the phase (reused connection, plain HTTP); a
// missing timing must never be recorded as zero.
type Sample struct {
	Status        int
	Total         time.Duration
	Connect       *time.Duration
	TLSHandshake  *time.Duration
	WaitFirstByte *time.Duration
}

// Failed reports whether the sample counts against the endpoint's failures.
func (s Sample) Failed() bool {
	return IsFailure(s.Status)
}

type trend struct {
	samples []time.Duration
}

func (t *trend) add(d time.Duration) {
	t.samples = append(t.samples, d)
}

// stats returns avg/p90/p95/max over the recorded samples. The percentile is
// the sorted value at index int(p*n), clamped to the last sample.
func (t *trend) stats() (avg, p90, p95, max time.Duration, ok bool) {
	n := len(t.samples)
	if n == 0 {
		return 0, 0, 0, 0, false
	}

	sorted := make([]time.Duration, n)
	copy(sorted, t.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	avg = total / time.Duration(n)
	max = sorted[n-1]
	p90 = sorted[percentileIndex(0.90, n)]
	p95 = sorted[percentileIndex(0.95, n)]
	return avg, p90, p95, max, true
}

func percentileIndex(p float64, n int) int {
	idx := int(p * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type bucket struct {
	requests  int64
	failures  int64
	durations trend
}

// Registry accumulates per-endpoint counters and duration distributions for
// the whole run. It is the one piece of state shared by every virtual user,
// so all mutation happens under the lock.
type Registry struct {
	mu      sync.Mutex
	buckets map[Endpoint]*bucket
	connect trend
	tlsH    trend
	wait    trend
}

func NewRegistry() *Registry {
	return &Registry{
		buckets: make(map[Endpoint]*bucket),
	}
}

// Record stores one call outcome under its logical endpoint and feeds the
// global connection-phase trends with whichever phase timings are present.
func (r *Registry) Record(endpoint Endpoint, s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.buckets[endpoint]
	if b == nil {
		b = &bucket{}
		r.buckets[endpoint] = b
	}

	b.requests++
	if s.Failed() {
		b.failures++
	}
	b.durations.add(s.Total)

	if s.Connect != nil {
		r.connect.add(*s.Connect)
	}
	if s.TLSHandshake != nil {
		r.tlsH.add(*s.TLSHandshake)
	}
	if s.WaitFirstByte != nil {
		r.wait.add(*s.WaitFirstByte)
	}
}

// Counts returns the request and failure totals for one endpoint.
func (r *Registry) Counts(endpoint Endpoint) (requests, failures int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.buckets[endpoint]
	if b == nil {
		return 0, 0
	}
	return b.requests, b.failures
}

// TimingStats is the avg/p90/p95/max view of one duration distribution.
type TimingStats struct {
	Count int64   `json:"count"`
	AvgMs float64 `json:"avg_ms"`
	P90Ms float64 `json:"p90_ms"`
	P95Ms float64 `json:"p95_ms"`
	MaxMs float64 `json:"max_ms"`
}

// EndpointSnapshot is the JSON-facing view of one endpoint bucket.
type EndpointSnapshot struct {
	Requests int64 `json:"requests"`
	Failures int64 `json:"failures"`
	TimingStats
}

// Snapshot is the full end-of-run state, consumed by the report writer.
type Snapshot struct {
	Endpoints     map[string]EndpointSnapshot `json:"endpoints"`
	Connect       TimingStats                 `json:"connect"`
	TLSHandshake  TimingStats                 `json:"tls_handshake"`
	WaitFirstByte TimingStats                 `json:"wait_first_byte"`
}

func toMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func trendStats(t *trend) TimingStats {
	avg, p90, p95, max, ok := t.stats()
	ts := TimingStats{Count: int64(len(t.samples))}
	if ok {
		ts.AvgMs = toMs(avg)
		ts.P90Ms = toMs(p90)
		ts.P95Ms = toMs(p95)
		ts.MaxMs = toMs(max)
	}
	return ts
}

// Snapshot copies the current counters out of the registry.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		Endpoints:     make(map[string]EndpointSnapshot, len(r.buckets)),
		Connect:       trendStats(&r.connect),
		TLSHandshake:  trendStats(&r.tlsH),
		WaitFirstByte: trendStats(&r.wait),
	}
	for name, b := range r.buckets {
		snap.Endpoints[string(name)] = EndpointSnapshot{
			Requests:    b.requests,
			Failures:    b.failures,
			TimingStats: trendStats(&b.durations),
		}
	}
	return snap
}

func fmtMs(d time.Duration) string {
	return fmt.Sprintf("%.2fms", toMs(d))
}

// RenderSummary renders the per-endpoint table plus the three global
// connection-phase lines. Buckets with no samples render "-" in every
// statistic column; the failure percentage is "-" when there were no
// requests so we never divide by zero.
func (r *Registry) RenderSummary() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-16s %8s %8s %8s %12s %12s %12s %12s\n",
		"endpoint", "reqs", "fails", "fail%", "avg", "p90", "p95", "max")

	for _, name := range Endpoints {
		b := r.buckets[name]
		if b == nil {
			b = &bucket{}
		}

		failPct := "-"
		if b.requests > 0 {
			failPct = fmt.Sprintf("%.2f%%", float64(b.failures)/float64(b.requests)*100)
		}

		avgS, p90S, p95S, maxS := "-", "-", "-", "-"
		if avg, p90, p95, max, ok := b.durations.stats(); ok {
			avgS, p90S, p95S, maxS = fmtMs(avg), fmtMs(p90), fmtMs(p95), fmtMs(max)
		}

		fmt.Fprintf(&sb, "%-16s %8d %8d %8s %12s %12s %12s %12s\n",
			name, b.requests, b.failures, failPct, avgS, p90S, p95S, maxS)
	}

	sb.WriteString("\n")
	writeTrendLine(&sb, "http_connecting", &r.connect)
	writeTrendLine(&sb, "http_tls_handshaking", &r.tlsH)
	writeTrendLine(&sb, "http_waiting", &r.wait)
	return sb.String()
}

func writeTrendLine(sb *strings.Builder, label string, t *trend) {
	avg, p90, p95, max, ok := t.stats()
	if !ok {
		fmt.Fprintf(sb, "%-22s avg=- p90=- p95=- max=-\n", label)
		return
	}
	fmt.Fprintf(sb, "%-22s avg=%s p90=%s p95=%s max=%s\n",
		label, fmtMs(avg), fmtMs(p90), fmtMs(p95), fmtMs(max))
}
