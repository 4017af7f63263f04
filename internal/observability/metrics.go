package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors for the crawler. All
// recording methods are nil-safe so components can run without a
// metrics pipeline wired in.
type Metrics struct {
	Registry              *prometheus.Registry
	PagesFetchedTotal     *prometheus.CounterVec
	FetchRetriesTotal     prometheus.Counter
	FetchDuration         prometheus.Histogram
	ImagesDownloadedTotal *prometheus.CounterVec
	ProductsTotal         *prometheus.CounterVec
	SessionsTotal         prometheus.Counter

	logger *slog.Logger
}

// New creates the collectors and registers them on a dedicated registry.
func New(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	pagesFetched := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwatch_pages_fetched_total",
			Help: "Total catalogue page fetches by result.",
		},
		[]string{"result"},
	)
	fetchRetries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shelfwatch_fetch_retries_total",
			Help: "Total fetch retries across all pages.",
		},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shelfwatch_fetch_duration_seconds",
			Help:    "Page fetch latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	imagesDownloaded := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwatch_images_downloaded_total",
			Help: "Total product image downloads by result.",
		},
		[]string{"result"},
	)
	products := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwatch_products_total",
			Help: "Total reconciled products by outcome.",
		},
		[]string{"outcome"},
	)
	sessions := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shelfwatch_sessions_total",
			Help: "Total crawl sessions run.",
		},
	)

	registry.MustRegister(pagesFetched, fetchRetries, fetchDuration, imagesDownloaded, products, sessions)

	return &Metrics{
		Registry:              registry,
		PagesFetchedTotal:     pagesFetched,
		FetchRetriesTotal:     fetchRetries,
		FetchDuration:         fetchDuration,
		ImagesDownloadedTotal: imagesDownloaded,
		ProductsTotal:         products,
		SessionsTotal:         sessions,
		logger:                logger.With("component", "metrics"),
	}
}

// Handler serves the registry in the Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// StartServer starts a standalone metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	if m == nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// IncPageFetched records one page fetch with a result label
// ("ok" or "failed").
func (m *Metrics) IncPageFetched(result string) {
	if m == nil {
		return
	}
	m.PagesFetchedTotal.WithLabelValues(result).Inc()
}

// IncFetchRetry records one failed fetch attempt.
func (m *Metrics) IncFetchRetry() {
	if m == nil {
		return
	}
	m.FetchRetriesTotal.Inc()
}

// ObserveFetchDuration records the latency of one page fetch.
func (m *Metrics) ObserveFetchDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// IncImageDownloaded records one image download with a result label
// ("ok", "cached", or "failed").
func (m *Metrics) IncImageDownloaded(result string) {
	if m == nil {
		return
	}
	m.ImagesDownloadedTotal.WithLabelValues(result).Inc()
}

// AddProducts records reconciliation outcomes ("inserted", "updated",
// "skipped").
func (m *Metrics) AddProducts(outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ProductsTotal.WithLabelValues(outcome).Add(float64(n))
}

// IncSessions records one crawl session.
func (m *Metrics) IncSessions() {
	if m == nil {
		return
	}
	m.SessionsTotal.Inc()
}
