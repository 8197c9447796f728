package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RouteQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "router_queries_total",
			Help: "Total number of routed queries by category and outcome",
		},
		[]string{"category", "status"},
	)

	BranchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "router_branch_duration_seconds",
			Help:    "Duration of branch handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"category"},
	)

	DocumentsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retriever_documents_ingested_total",
			Help: "Total number of uploaded documents by outcome",
		},
		[]string{"status"},
	)

	ChunksIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retriever_chunks_ingested_total",
			Help: "Total number of document chunks stored",
		},
	)

	RetrievalSource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retriever_answers_total",
			Help: "Total number of document answers by source",
		},
		[]string{"source"},
	)

	SQLStatements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlagent_statements_total",
			Help: "Total number of translated SQL statements by outcome",
		},
		[]string{"status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status code",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "code"},
	)
)
