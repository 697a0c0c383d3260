// Package events announces finished build stages to interested consumers.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/logger"
)

// BuildEvent describes one completed pipeline stage.
type BuildEvent struct {
	RunID       string        `json:"run_id"`
	Stage       string        `json:"stage"`
	Fingerprint string        `json:"fingerprint"`
	CacheHit    bool          `json:"cache_hit"`
	Documents   int           `json:"documents"`
	Terms       int           `json:"terms,omitempty"`
	Rejected    int           `json:"rejected,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
	At          time.Time     `json:"at"`
}

// Notifier receives build events. Notify must not block the build for long
// and its failures are never fatal.
type Notifier interface {
	Notify(ctx context.Context, ev BuildEvent) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) Notify(context.Context, BuildEvent) error { return nil }

func (Nop) Close() error { return nil }

type publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
	Close() error
}

// KafkaNotifier publishes events as JSON keyed by run id, so every stage of
// one run lands on the same partition.
type KafkaNotifier struct {
	producer publisher
	timeout  time.Duration
}

func NewKafkaNotifier(cfg config.KafkaConfig) *KafkaNotifier {
	return &KafkaNotifier{
		producer: kafka.NewProducer(cfg, cfg.Topics.BuildComplete),
		timeout:  5 * time.Second,
	}
}

func (n *KafkaNotifier) Notify(ctx context.Context, ev BuildEvent) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	return n.producer.Publish(ctx, kafka.Event{Key: ev.RunID, Value: ev})
}

func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}

// FromConfig returns a Kafka notifier when Kafka is enabled, Nop otherwise.
func FromConfig(cfg config.KafkaConfig) Notifier {
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		return Nop{}
	}
	logger.WithComponent("events").Info("publishing build events",
		"brokers", cfg.Brokers,
		"topic", cfg.Topics.BuildComplete,
	)
	return NewKafkaNotifier(cfg)
}

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []BuildEvent
}

func (r *Recorder) Notify(_ context.Context, ev BuildEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []BuildEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]BuildEvent, len(r.events))
	copy(out, r.events)
	return out
}
