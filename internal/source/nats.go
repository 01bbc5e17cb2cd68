package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"MedFlowScope/internal/config"
	"MedFlowScope/internal/model"
)

const defaultCollectTimeout = 30 * time.Second

// NATSCollector gathers the raw flow records a simulation collaborator
// publishes over NATS: one JSON-encoded record per message on the configured
// subject, followed by an empty end-of-run marker on "<subject>.done".
type NATSCollector struct {
	url     string
	subject string
	timeout time.Duration
}

// NewNATSCollector creates a collector from the config section.
func NewNATSCollector(cfg config.NATSSourceConfig) (*NATSCollector, error) {
	if cfg.URL == "" || cfg.Subject == "" {
		return nil, fmt.Errorf("nats source requires url and subject")
	}

	timeout := defaultCollectTimeout
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid nats timeout: %w", err)
		}
		timeout = d
	}

	return &NATSCollector{url: cfg.URL, subject: cfg.Subject, timeout: timeout}, nil
}

// Collect subscribes, buffers records until the end-of-run marker arrives,
// and returns the full batch. Malformed messages are logged and skipped.
func (c *NATSCollector) Collect(ctx context.Context) ([]*model.RawFlowRecord, error) {
	nc, err := nats.Connect(c.url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", c.url, err)
	}
	defer nc.Close()
	log.Printf("Connected to NATS server at %s", c.url)

	var (
		mu   sync.Mutex
		recs []*model.RawFlowRecord
		once sync.Once
		done = make(chan struct{})
	)

	sub, err := nc.Subscribe(c.subject, func(msg *nats.Msg) {
		var rec model.RawFlowRecord
		if err := json.Unmarshal(msg.Data, &rec); err != nil {
			log.Printf("Error unmarshalling flow record: %v", err)
			return
		}
		mu.Lock()
		recs = append(recs, &rec)
		mu.Unlock()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to '%s': %w", c.subject, err)
	}
	defer sub.Unsubscribe()

	doneSub, err := nc.Subscribe(c.subject+".done", func(*nats.Msg) {
		once.Do(func() { close(done) })
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to '%s.done': %w", c.subject, err)
	}
	defer doneSub.Unsubscribe()

	log.Printf("Subscribed to '%s'. Waiting for run to finish...", c.subject)

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(c.timeout):
		return nil, fmt.Errorf("timed out after %s waiting for end-of-run marker on '%s.done'", c.timeout, c.subject)
	}

	mu.Lock()
	defer mu.Unlock()
	log.Printf("Collected %d flow records from '%s'", len(recs), c.subject)
	return recs, nil
}
