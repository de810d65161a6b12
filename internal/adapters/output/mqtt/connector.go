// Package mqtt reaches appliances through a gateway that mirrors each device's
// status document and control endpoint onto MQTT topics.
package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"air-purifier-bridge/internal/domain/model"
	"air-purifier-bridge/internal/ports"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// broker is the part of the paho client the connector relies on.
type broker interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Subscribe(topic string, qos byte, callback pahomqtt.MessageHandler) pahomqtt.Token
	Unsubscribe(topics ...string) pahomqtt.Token
	Disconnect(quiesce uint)
}

// Connector shares one broker connection between all device clients.
type Connector struct {
	broker broker
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	devices map[string]*DeviceClient
}

// Dial connects to the broker described by opts.
func Dial(opts Options, logger *slog.Logger) (*Connector, error) {
	if opts.QoS > maxQoS {
		return nil, fmt.Errorf("%w: qos %d", ErrConnectionFailed, opts.QoS)
	}
	c := newConnector(nil, opts, logger)

	clientOpts := buildClientOptions(opts)
	clientOpts.SetOnConnectHandler(func(pahomqtt.Client) {
		c.resubscribe()
	})
	clientOpts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.logger.Warn("broker connection lost", "err", err)
	})

	client := pahomqtt.NewClient(clientOpts)
	c.broker = client
	token := client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	c.logger.Info("connected to broker", "broker", opts.Broker)
	return c, nil
}

func newConnector(b broker, opts Options, logger *slog.Logger) *Connector {
	return &Connector{
		broker:  b,
		opts:    opts,
		logger:  logger.With("component", "mqtt"),
		devices: make(map[string]*DeviceClient),
	}
}

// Connect subscribes to the entry's status topic and returns its client.
func (c *Connector) Connect(ctx context.Context, entry *model.ConfigEntry) (ports.DeviceClient, error) {
	t, err := deviceTopics(c.opts.TopicPrefix, entry.Host)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if d, ok := c.devices[entry.EntryID]; ok {
		c.mu.Unlock()
		return d, nil
	}
	d := &DeviceClient{
		broker:  c.broker,
		topics:  t,
		qos:     c.opts.QoS,
		timeout: c.opts.commandTimeout(),
		logger:  c.logger.With("host", entry.Host),
	}
	c.devices[entry.EntryID] = d
	c.mu.Unlock()

	if err := c.subscribe(ctx, d); err != nil {
		c.mu.Lock()
		delete(c.devices, entry.EntryID)
		c.mu.Unlock()
		return nil, err
	}
	return d, nil
}

func (c *Connector) subscribe(ctx context.Context, d *DeviceClient) error {
	token := c.broker.Subscribe(d.topics.status, d.qos, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		d.handleStatus(msg.Payload())
	})
	if err := wait(ctx, token, d.timeout); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, d.topics.status, err)
	}
	return nil
}

func (c *Connector) resubscribe() {
	c.mu.Lock()
	devices := make([]*DeviceClient, 0, len(c.devices))
	for _, d := range c.devices {
		devices = append(devices, d)
	}
	c.mu.Unlock()

	for _, d := range devices {
		if err := c.subscribe(context.Background(), d); err != nil {
			c.logger.Warn("resubscribe failed", "topic", d.topics.status, "err", err)
		}
	}
}

// Disconnect drops the entry's subscription.
func (c *Connector) Disconnect(entry *model.ConfigEntry) error {
	c.mu.Lock()
	d, ok := c.devices[entry.EntryID]
	delete(c.devices, entry.EntryID)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	return wait(ctx, c.broker.Unsubscribe(d.topics.status), d.timeout)
}

func (c *Connector) Close() {
	c.broker.Disconnect(defaultDisconnectQuiesce)
}

// wait blocks until token completes, ctx ends or timeout elapses.
func wait(ctx context.Context, token pahomqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("no acknowledgement after %v", timeout)
	}
}
