package streaming

import (
	"encoding/json"

	"github.com/opendash/cansim/pkg/telemetry"
)

// Message type constants for the snapshot streaming protocol.
const (
	TypeStartSession = "start_session"
	TypeEndSession   = "end_session"
	TypeSnapshot     = "snapshot"
	TypePerfSample   = "perf_sample"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartSessionPayload carries the session metadata sent before any snapshots.
type StartSessionPayload struct {
	Session *telemetry.Session `json:"session"`
}

// PerfSamplePayload carries tick-loop timing statistics.
type PerfSamplePayload struct {
	AverageMs float64 `json:"averageMs"`
	MinMs     float64 `json:"minMs"`
	MaxMs     float64 `json:"maxMs"`
	Ticks     uint64  `json:"ticks"`
	Good      bool    `json:"good"`
}
