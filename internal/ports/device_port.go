package ports

import (
	"context"

	"air-purifier-bridge/internal/domain/model"
)

// DeviceClient is the transport to one appliance.
type DeviceClient interface {
	// GetStatus returns the latest full status document of the device.
	GetStatus(ctx context.Context) (map[string]any, error)
	// SetControlValue writes one status key on the device and returns once the
	// transport acknowledged it.
	SetControlValue(ctx context.Context, key string, value any) error
}

// DeviceConnector opens a DeviceClient for a config entry.
type DeviceConnector interface {
	Connect(ctx context.Context, entry *model.ConfigEntry) (DeviceClient, error)
	Disconnect(entry *model.ConfigEntry) error
}
