package ports

import (
	"context"

	"air-purifier-bridge/internal/domain/model"
)

type BridgePort interface {
	GetSwitches(ctx context.Context) ([]*model.SwitchView, error)
	GetSwitch(ctx context.Context, id string) (*model.SwitchView, error)
	SetSwitch(ctx context.Context, id string, on bool) error
	// Refresh asks every loaded device to poll ahead of schedule.
	Refresh()

	// Config management
	GetConfig(ctx context.Context) (*model.Config, error)
	AddEntry(ctx context.Context, entry *model.ConfigEntry) (*model.ConfigEntry, error)
	RemoveEntry(ctx context.Context, id string) error
}
