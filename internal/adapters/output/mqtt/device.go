package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DeviceClient talks to one device through the gateway topics.
type DeviceClient struct {
	broker  broker
	topics  topics
	qos     byte
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	status map[string]any
}

// GetStatus returns a copy of the last status document received.
func (d *DeviceClient) GetStatus(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.status == nil {
		return nil, ErrNoStatus
	}
	out := make(map[string]any, len(d.status))
	for k, v := range d.status {
		out[k] = v
	}
	return out, nil
}

// SetControlValue publishes {key: value} on the control topic and waits for the
// broker acknowledgement.
func (d *DeviceClient) SetControlValue(ctx context.Context, key string, value any) error {
	if !d.broker.IsConnected() {
		return ErrNotConnected
	}
	payload, err := json.Marshal(map[string]any{key: value})
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrPublishFailed, key, err)
	}
	token := d.broker.Publish(d.topics.control, d.qos, false, payload)
	if err := wait(ctx, token, d.timeout); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, d.topics.control, err)
	}
	return nil
}

func (d *DeviceClient) handleStatus(payload []byte) {
	status, err := decodeStatus(payload)
	if err != nil {
		d.logger.Warn("ignoring malformed status", "topic", d.topics.status, "err", err)
		return
	}
	d.mu.Lock()
	d.status = status
	d.mu.Unlock()
}

// decodeStatus accepts a flat status object or the device's native
// {"state":{"reported":{...}}} envelope.
func decodeStatus(payload []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("status is not an object")
	}
	if state, ok := doc["state"].(map[string]any); ok {
		if reported, ok := state["reported"].(map[string]any); ok {
			return reported, nil
		}
	}
	return doc, nil
}
