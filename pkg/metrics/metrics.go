// Package metrics holds the prometheus metrics exported by the cards service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry and the service's metrics.
// All methods are safe to call on a nil *Collector.
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	cardsCreated  prometheus.Counter
	cardVotes     *prometheus.CounterVec
	cardSearches  prometheus.Counter
	searchDropped prometheus.Counter
	eventsDropped prometheus.Counter
}

// NewCollector creates a collector with its own registry, including the Go
// runtime and process collectors.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		cardsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cards_created_total",
			Help: "Total number of cards created",
		}),
		cardVotes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "card_votes_total",
				Help: "Total number of votes applied to cards",
			},
			[]string{"direction"},
		),
		cardSearches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "card_searches_total",
			Help: "Total number of card searches",
		}),
		searchDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "card_search_dropped_total",
			Help: "Search hits dropped because their payload could not be decoded",
		}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "card_events_dropped_total",
			Help: "Card events dropped because the publish queue was full",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequests,
		c.httpDuration,
		c.cardsCreated,
		c.cardVotes,
		c.cardSearches,
		c.searchDropped,
		c.eventsDropped,
	)

	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveRequest records one HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (c *Collector) CardCreated() {
	if c == nil {
		return
	}
	c.cardsCreated.Inc()
}

// CardVoted counts a vote by direction ("up" or "down").
func (c *Collector) CardVoted(upvote bool) {
	if c == nil {
		return
	}
	direction := "down"
	if upvote {
		direction = "up"
	}
	c.cardVotes.WithLabelValues(direction).Inc()
}

func (c *Collector) CardSearched() {
	if c == nil {
		return
	}
	c.cardSearches.Inc()
}

// SearchHitsDropped counts undecodable hits removed from a result page.
func (c *Collector) SearchHitsDropped(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.searchDropped.Add(float64(n))
}

func (c *Collector) EventDropped() {
	if c == nil {
		return
	}
	c.eventsDropped.Inc()
}
