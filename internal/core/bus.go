package core

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const auditSubjectPrefix = "jano.audit."

// EventBus publishes audit events over NATS. With Embedded enabled it runs
// an in-process NATS server so a single binary needs no external broker.
// A nil *EventBus is valid: publishing on it is a no-op, which keeps audit
// optional without nil checks at every call site.
type EventBus struct {
	nc     *nats.Conn
	ns     *server.Server
	logger zerolog.Logger
	mu     sync.Mutex
	subs   []*nats.Subscription

	published int64
	failed    int64
}

// NewEventBus creates an EventBus. If cfg.Embedded is true, it starts an
// embedded NATS server first.
func NewEventBus(cfg *BusConfig, logger zerolog.Logger) (*EventBus, error) {
	bus := &EventBus{
		logger: logger.With().Str("component", "audit_bus").Logger(),
	}

	if cfg.Embedded {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating NATS data dir: %w", err)
		}

		opts := &server.Options{
			Host:   "127.0.0.1",
			Port:   cfg.Port,
			NoLog:  true,
			NoSigs: true,
		}

		ns, err := server.NewServer(opts)
		if err != nil {
			return nil, fmt.Errorf("creating embedded NATS server: %w", err)
		}

		ns.Start()

		if !ns.ReadyForConnections(10 * time.Second) {
			return nil, fmt.Errorf("embedded NATS server failed to start within timeout")
		}

		bus.ns = ns
		bus.logger.Info().Str("url", ns.ClientURL()).Msg("embedded NATS server started")
	}

	url := cfg.URL
	if cfg.Embedded {
		url = bus.ns.ClientURL()
	}

	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		if bus.ns != nil {
			bus.ns.Shutdown()
		}
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	bus.nc = nc

	bus.logger.Info().Str("url", url).Msg("audit bus connected")
	return bus, nil
}

// PublishAudit publishes an audit event on jano.audit.<action>.
// Safe to call on a nil bus.
func (b *EventBus) PublishAudit(event *AuditEvent) error {
	if b == nil {
		return nil
	}

	data, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("marshaling audit event: %w", err)
	}

	subject := auditSubjectPrefix + sanitizeSubjectToken(event.Action)
	if err := b.nc.Publish(subject, data); err != nil {
		b.mu.Lock()
		b.failed++
		b.mu.Unlock()
		return fmt.Errorf("publishing audit event: %w", err)
	}

	b.mu.Lock()
	b.published++
	b.mu.Unlock()
	return nil
}

// SubscribeAudit delivers every audit event to fn. Events that fail to
// decode are logged and dropped.
func (b *EventBus) SubscribeAudit(fn func(*AuditEvent)) error {
	if b == nil {
		return fmt.Errorf("audit bus is not enabled")
	}

	sub, err := b.nc.Subscribe(auditSubjectPrefix+">", func(msg *nats.Msg) {
		event, err := UnmarshalAuditEvent(msg.Data)
		if err != nil {
			b.logger.Error().Err(err).Str("subject", msg.Subject).Msg("failed to decode audit event")
			return
		}
		fn(event)
	})
	if err != nil {
		return fmt.Errorf("subscribing to audit events: %w", err)
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return nil
}

// IsConnected reports whether the NATS connection is up.
func (b *EventBus) IsConnected() bool {
	return b != nil && b.nc != nil && b.nc.IsConnected()
}

// Published returns the number of successfully published audit events.
func (b *EventBus) Published() int64 {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.published
}

// Close drains subscriptions, closes the connection, and stops the embedded
// server if one is running.
func (b *EventBus) Close() error {
	if b == nil {
		return nil
	}

	b.mu.Lock()
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.subs = nil
	b.mu.Unlock()

	if b.nc != nil {
		b.nc.Close()
	}
	if b.ns != nil {
		b.ns.Shutdown()
		b.ns.WaitForShutdown()
	}
	return nil
}

// sanitizeSubjectToken keeps NATS subjects valid: tokens must not contain
// spaces, wildcards, or separators.
func sanitizeSubjectToken(s string) string {
	if s == "" {
		return "unknown"
	}
	replacer := strings.NewReplacer(" ", "_", ".", "_", "*", "_", ">", "_")
	return replacer.Replace(s)
}
