// Package observability – Prometheus instrumentation for the core store.
//
// Counters here are incremented by the tenant and service layers; the
// /metrics endpoint of the diagnostics router exposes them. Label
// cardinality is kept bounded: tenant and basket identifiers are never
// used as labels.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// TenantsProvisioned counts successfully provisioned tenants.
	TenantsProvisioned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docstore_tenants_provisioned_total",
			Help: "Total number of tenants provisioned.",
		},
	)

	// DocumentsIngested counts documents successfully added, by final
	// outcome of the ingestion attempt.
	DocumentsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docstore_documents_ingested_total",
			Help: "Total number of document ingestion attempts.",
		},
		[]string{"outcome"}, // "ok" | "storage_error" | "db_error"
	)

	// StorageBytesWritten sums the raw content bytes written to storage
	// backends.
	StorageBytesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docstore_storage_bytes_written_total",
			Help: "Total bytes of document content written to storage backends.",
		},
	)

	// EventsEmitted counts lifecycle events appended to the event log.
	EventsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docstore_events_emitted_total",
			Help: "Total number of lifecycle events emitted.",
		},
		[]string{"event_type"},
	)

	// OperationsDeclared counts operations recorded in the ledger.
	OperationsDeclared = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docstore_operations_declared_total",
			Help: "Total number of processing operations declared.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		TenantsProvisioned,
		DocumentsIngested,
		StorageBytesWritten,
		EventsEmitted,
		OperationsDeclared,
	)
}
