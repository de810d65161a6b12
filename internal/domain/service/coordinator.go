package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"air-purifier-bridge/internal/domain/model"
	"air-purifier-bridge/internal/ports"
)

const defaultPollInterval = 30 * time.Second

// Coordinator owns the status snapshot of one appliance and refreshes it from
// the device on a fixed interval.
type Coordinator struct {
	entry     *model.ConfigEntry
	client    ports.DeviceClient
	status    *model.DeviceStatus
	interval  time.Duration
	refreshCh chan struct{}
	logger    *slog.Logger

	mu        sync.Mutex
	listeners []func()
}

func NewCoordinator(entry *model.ConfigEntry, client ports.DeviceClient, interval time.Duration, logger *slog.Logger) *Coordinator {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Coordinator{
		entry:     entry,
		client:    client,
		status:    model.NewDeviceStatus(nil),
		interval:  interval,
		refreshCh: make(chan struct{}, 1),
		logger:    logger.With("component", "coordinator", "entry_id", entry.EntryID),
	}
}

func (c *Coordinator) Status() *model.DeviceStatus { return c.status }
func (c *Coordinator) Client() ports.DeviceClient  { return c.client }

// AddListener registers fn to run after every refresh. Listeners live as long
// as the coordinator; unloading an entry drops both together.
func (c *Coordinator) AddListener(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Refresh fetches the full status from the device, installs it and notifies
// the listeners. On error the previous snapshot stays in place.
func (c *Coordinator) Refresh(ctx context.Context) error {
	values, err := c.client.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", c.entry.Host, err)
	}
	c.status.Replace(values)

	c.mu.Lock()
	fns := append([]func(){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

func (c *Coordinator) TriggerRefresh() {
	select {
	case c.refreshCh <- struct{}{}:
	default:
	}
}

// Run polls until ctx is done. Failed polls are logged and retried on the next tick.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		timer := time.NewTimer(c.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-c.refreshCh:
			timer.Stop()
		case <-timer.C:
		}
		if err := c.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("poll failed", "err", err)
		}
	}
}
