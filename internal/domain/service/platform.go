package service

import (
	"errors"
	"fmt"
	"log/slog"

	"air-purifier-bridge/internal/domain/capability"
	"air-purifier-bridge/internal/domain/entity"
	"air-purifier-bridge/internal/domain/model"
)

// SetupSwitches creates the switches supported by the entry's model, in
// registry order, and subscribes them to the coordinator.
//
// An unsupported model is logged and yields no switches. A device that has not
// reported its identity yet fails with entity.ErrNotReady and nothing is
// subscribed.
func SetupSwitches(
	entry *model.ConfigEntry,
	coordinator *Coordinator,
	resolver *capability.Resolver,
	registry []model.ControlPointDescriptor,
	observer entity.StateObserver,
	logger *slog.Logger,
) ([]*entity.Switch, error) {
	resolved, err := resolver.Resolve(entry.Model)
	if errors.Is(err, capability.ErrUnsupportedModel) {
		logger.Error("unsupported model", "model", entry.Model, "entry_id", entry.EntryID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	descriptors := capability.Intersect(resolved, registry)
	switches := make([]*entity.Switch, 0, len(descriptors))
	for _, desc := range descriptors {
		sw, err := entity.NewSwitch(entry, coordinator.Status(), coordinator.Client(), desc)
		if err != nil {
			logger.Error("failed retrieving unique id", "entry_id", entry.EntryID, "kind", desc.Kind, "err", err)
			return nil, fmt.Errorf("setup switches: %w", err)
		}
		switches = append(switches, sw)
	}

	for _, sw := range switches {
		sw.Observe(observer)
		coordinator.AddListener(sw.HandleCoordinatorUpdate)
	}
	return switches, nil
}
