package core

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditEvent records one security-relevant operation: an analysis, a config
// mutation, a service restart, or an attack simulation. Events are published
// on the audit bus so external consumers can keep a trail without Jano
// owning persistent storage for it.
type AuditEvent struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Service   string         `json:"service,omitempty"`
	Severity  Severity       `json:"severity"`
	Summary   string         `json:"summary"`
	Details   map[string]any `json:"details,omitempty"`
}

// NewAuditEvent creates an AuditEvent with a generated ID and current timestamp.
func NewAuditEvent(action, service string, severity Severity, summary string) *AuditEvent {
	return &AuditEvent{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Action:    action,
		Service:   service,
		Severity:  severity,
		Summary:   summary,
		Details:   make(map[string]any),
	}
}

// Marshal serializes the event to JSON.
func (e *AuditEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalAuditEvent deserializes an AuditEvent from JSON.
func UnmarshalAuditEvent(data []byte) (*AuditEvent, error) {
	var event AuditEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
