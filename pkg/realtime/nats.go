package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/appboardguru/boardguru/pkg/logging"
	"github.com/appboardguru/boardguru/pkg/metrics"
)

// SubjectPrefix prefixes every event subject
const SubjectPrefix = "boardguru.events"

// InvalidationSubject carries cache invalidations between instances
const InvalidationSubject = "boardguru.cache.invalidate"

type invalidation struct {
	Origin string `json:"origin"`
	Key    string `json:"key,omitempty"`
	Tag    string `json:"tag,omitempty"`
}

// CacheDropper applies invalidations made on other instances
type CacheDropper interface {
	DropKey(key string)
	DropTag(tag string)
}

// Subject returns the NATS subject of an event
func Subject(ev Event) string {
	if ev.OrganizationID == "" {
		return SubjectPrefix + "._user"
	}
	return SubjectPrefix + "." + ev.OrganizationID
}

// NATSBridge publishes events to the local hub and to NATS, and feeds
// events published by other instances into the local hub. Each bridge
// stamps its events with an origin ID and ignores its own messages.
type NATSBridge struct {
	conn   *nats.Conn
	hub    *Hub
	origin string
	sub    *nats.Subscription
	log    zerolog.Logger

	cacheSub *nats.Subscription
}

// NewNATSBridge connects to NATS with automatic reconnection support
func NewNATSBridge(url string, hub *Hub, opts ...nats.Option) (*NATSBridge, error) {
	defaults := []nats.Option{
		nats.Name("boardguru"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSBridge{
		conn:   nc,
		hub:    hub,
		origin: uuid.NewString(),
		log:    logging.With("realtime-nats"),
	}, nil
}

// Start subscribes to events from other instances
func (b *NATSBridge) Start() error {
	sub, err := b.conn.Subscribe(SubjectPrefix+".>", func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			b.log.Warn().Err(err).Str("subject", msg.Subject).Msg("discarding malformed realtime event")
			return
		}
		if ev.Origin == b.origin {
			metrics.NATSMessages.WithLabelValues("skipped").Inc()
			return
		}
		metrics.NATSMessages.WithLabelValues("consumed").Inc()
		_ = b.hub.Publish(context.Background(), ev)
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s.>: %w", SubjectPrefix, err)
	}
	// Flush ensures the subscription is registered on the server before
	// returning, so that messages published on other connections are routed.
	if err := b.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("flushing subscription: %w", err)
	}
	b.sub = sub
	return nil
}

// Publish delivers ev locally and relays it to the other instances
func (b *NATSBridge) Publish(ctx context.Context, ev Event) error {
	ev.Origin = b.origin
	_ = b.hub.Publish(ctx, ev)

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if err := b.conn.Publish(Subject(ev), data); err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}
	metrics.NATSMessages.WithLabelValues("published").Inc()
	return nil
}

// SubscribeCache applies cache invalidations from other instances to c
func (b *NATSBridge) SubscribeCache(c CacheDropper) error {
	sub, err := b.conn.Subscribe(InvalidationSubject, func(msg *nats.Msg) {
		var inv invalidation
		if err := json.Unmarshal(msg.Data, &inv); err != nil {
			b.log.Warn().Err(err).Msg("discarding malformed cache invalidation")
			return
		}
		if inv.Origin == b.origin {
			return
		}
		if inv.Key != "" {
			c.DropKey(inv.Key)
		}
		if inv.Tag != "" {
			c.DropTag(inv.Tag)
		}
		metrics.NATSMessages.WithLabelValues("consumed").Inc()
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", InvalidationSubject, err)
	}
	if err := b.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("flushing subscription: %w", err)
	}
	b.cacheSub = sub
	return nil
}

// BroadcastInvalidation asks the other instances to drop key or tag
func (b *NATSBridge) BroadcastInvalidation(_ context.Context, key, tag string) error {
	data, err := json.Marshal(invalidation{Origin: b.origin, Key: key, Tag: tag})
	if err != nil {
		return fmt.Errorf("marshaling invalidation: %w", err)
	}
	if err := b.conn.Publish(InvalidationSubject, data); err != nil {
		return fmt.Errorf("publishing invalidation: %w", err)
	}
	return nil
}

// Close unsubscribes and drains the connection
func (b *NATSBridge) Close() error {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	if b.cacheSub != nil {
		_ = b.cacheSub.Unsubscribe()
	}
	return b.conn.Drain()
}
