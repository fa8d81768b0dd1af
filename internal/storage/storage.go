// Package storage defines the interface telemetry history backends implement
// and the factory that selects one from configuration.
package storage

import (
	"github.com/opendash/cansim/internal/perf"
	"github.com/opendash/cansim/pkg/telemetry"
)

// Backend is the interface all storage implementations must satisfy.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management. BeginSession assigns a persistent ID to the
	// passed session where the backend supports one.
	BeginSession(s *telemetry.Session) error
	EndSession() error

	// Recording
	RecordSnapshot(s *telemetry.Snapshot) error
	RecordPerfSample(p *perf.State) error
}

// Uploadable is an optional interface for backends that produce files
// suitable for upload to the dashboard API.
type Uploadable interface {
	ExportedFilePath() string
	ExportMetadata() telemetry.UploadMetadata
}

// QueueLenProvider is an optional interface for backends that buffer writes
// and can expose their queue depth for monitoring.
type QueueLenProvider interface {
	WriteQueueLen() int
}
