// Package websocket streams session telemetry to a dashboard server over a
// WebSocket connection.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/opendash/cansim/internal/perf"
	"github.com/opendash/cansim/pkg/streaming"
	"github.com/opendash/cansim/pkg/telemetry"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
}

// Backend streams snapshots over WebSocket. It implements storage.Backend
// but not storage.Uploadable; the server owns persistence.
type Backend struct {
	conn *connection
	cfg  Config
}

// New creates a new WebSocket storage backend.
func New(cfg Config) *Backend {
	return &Backend{
		conn: newConnection(slog.Default()),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and
// payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope marshals the payload into an Envelope and pushes it to the
// write loop (fire-and-forget).
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// sendEnvelopeAndWait marshals the payload and waits for a server ack.
func (b *Backend) sendEnvelopeAndWait(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	return b.conn.sendAndWait(data, msgType, ackTimeout)
}

// BeginSession announces the session and waits for the server to confirm.
// The message is cached so reconnects can replay it.
func (b *Backend) BeginSession(s *telemetry.Session) error {
	data, err := marshalEnvelope(streaming.TypeStartSession, streaming.StartSessionPayload{Session: s})
	if err != nil {
		return err
	}

	b.conn.mu.Lock()
	b.conn.cachedStartMsg = data
	b.conn.mu.Unlock()

	return b.conn.sendAndWait(data, streaming.TypeStartSession, ackTimeout)
}

// EndSession tells the server the session is over and waits for the ack so
// the caller knows the stream was fully consumed.
func (b *Backend) EndSession() error {
	b.conn.mu.Lock()
	b.conn.cachedStartMsg = nil
	b.conn.mu.Unlock()

	return b.sendEnvelopeAndWait(streaming.TypeEndSession, struct{}{})
}

// RecordSnapshot streams one tick. Fire-and-forget; a stalled server drops
// frames rather than stalling the simulator.
func (b *Backend) RecordSnapshot(s *telemetry.Snapshot) error {
	return b.sendEnvelope(streaming.TypeSnapshot, s)
}

// RecordPerfSample streams one performance reading.
func (b *Backend) RecordPerfSample(p *perf.State) error {
	return b.sendEnvelope(streaming.TypePerfSample, streaming.PerfSamplePayload{
		AverageMs: p.AverageMs,
		MinMs:     p.MinMs,
		MaxMs:     p.MaxMs,
		Ticks:     p.Ticks,
		Good:      p.Good,
	})
}
