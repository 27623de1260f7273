package core

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestBus(t *testing.T) *EventBus {
	t.Helper()
	cfg := &BusConfig{
		Enabled:  true,
		Embedded: true,
		DataDir:  t.TempDir(),
		Port:     -1, // random port
	}
	bus, err := NewEventBus(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEventBus: %v", err)
	}
	t.Cleanup(func() { bus.Close() })
	return bus
}

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan *AuditEvent, 1)
	if err := bus.SubscribeAudit(func(ev *AuditEvent) {
		received <- ev
	}); err != nil {
		t.Fatalf("SubscribeAudit: %v", err)
	}

	ev := NewAuditEvent("config_fix", "ssh", SeverityHigh, "applied 2 fixes")
	ev.Details["issues_fixed"] = 2
	if err := bus.PublishAudit(ev); err != nil {
		t.Fatalf("PublishAudit: %v", err)
	}

	select {
	case got := <-received:
		if got.ID != ev.ID {
			t.Errorf("received ID = %q, want %q", got.ID, ev.ID)
		}
		if got.Action != "config_fix" || got.Service != "ssh" {
			t.Errorf("received action/service = %q/%q", got.Action, got.Service)
		}
		if got.Severity != SeverityHigh {
			t.Errorf("received severity = %v, want high", got.Severity)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for audit event")
	}

	if bus.Published() != 1 {
		t.Errorf("Published() = %d, want 1", bus.Published())
	}
}

func TestEventBus_NilSafePublish(t *testing.T) {
	var bus *EventBus
	if err := bus.PublishAudit(NewAuditEvent("noop", "", SeverityInfo, "disabled bus")); err != nil {
		t.Errorf("nil bus publish should be a no-op, got %v", err)
	}
	if bus.IsConnected() {
		t.Error("nil bus should report not connected")
	}
	if err := bus.Close(); err != nil {
		t.Errorf("nil bus Close should be a no-op, got %v", err)
	}
}

func TestEventBus_SubjectSanitization(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan *AuditEvent, 1)
	if err := bus.SubscribeAudit(func(ev *AuditEvent) {
		received <- ev
	}); err != nil {
		t.Fatalf("SubscribeAudit: %v", err)
	}

	// Actions with spaces or dots must still produce a valid subject.
	ev := NewAuditEvent("attack sim.run", "weak_ssh", SeverityMedium, "probe complete")
	if err := bus.PublishAudit(ev); err != nil {
		t.Fatalf("PublishAudit with odd action: %v", err)
	}

	select {
	case got := <-received:
		if got.Action != "attack sim.run" {
			t.Errorf("action should survive round trip, got %q", got.Action)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for audit event")
	}
}
