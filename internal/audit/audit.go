package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bonapart3/claimagent-sub002/pkg/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Event is one structured audit record. Every scoring run and every status
// transition produces exactly one event. Durability and querying belong to
// the downstream sink, not this package.
type Event struct {
	ID         uuid.UUID              `json:"id"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   uuid.UUID              `json:"entity_id"`
	Before     map[string]interface{} `json:"before,omitempty"`
	After      map[string]interface{} `json:"after,omitempty"`
	Actor      string                 `json:"actor"`
	Timestamp  time.Time              `json:"timestamp"`
}

// Audit actions emitted by the decision engine
const (
	ActionScoringRun       = "claim.scoring_run"
	ActionStatusTransition = "claim.status_transition"
)

// Emitter publishes audit events
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// NATSEmitter publishes audit events as JSON to a NATS subject
type NATSEmitter struct {
	conn    *nats.Conn
	subject string
}

// Ensure the concrete emitter satisfies the interface
var _ Emitter = (*NATSEmitter)(nil)

// NewNATSEmitter connects to NATS and returns an emitter
func NewNATSEmitter(url, subject string) (*NATSEmitter, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	return &NATSEmitter{conn: conn, subject: subject}, nil
}

// Emit publishes one event. Emission failures are logged, not fatal: an
// audit outage must not block claim decisions.
func (e *NATSEmitter) Emit(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := e.conn.Publish(e.subject, data); err != nil {
		logger.WithContext(ctx).Error("Failed to publish audit event",
			zap.Error(err),
			zap.String("action", event.Action),
			zap.String("entity_id", event.EntityID.String()),
		)
		return err
	}
	return nil
}

// Close drains the NATS connection
func (e *NATSEmitter) Close() {
	if e.conn != nil {
		e.conn.Drain()
	}
}

// NopEmitter discards events; used in tests and degraded startup
type NopEmitter struct{}

// Emit implements Emitter
func (NopEmitter) Emit(context.Context, Event) error { return nil }
