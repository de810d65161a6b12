// Package entity holds the switch control points exposed for each appliance.
package entity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"air-purifier-bridge/internal/domain/model"
	"air-purifier-bridge/internal/ports"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrNotReady means the device has not reported its identity yet.
var ErrNotReady = errors.New("device not ready")

// StateObserver is told the switch state after every recomputation.
type StateObserver func(sw *Switch, on bool)

type Switch struct {
	entryID  string
	status   *model.DeviceStatus
	client   ports.DeviceClient
	desc     model.ControlPointDescriptor
	uniqueID string
	name     string

	mu       sync.RWMutex
	observer StateObserver
}

func NewSwitch(
	entry *model.ConfigEntry,
	status *model.DeviceStatus,
	client ports.DeviceClient,
	desc model.ControlPointDescriptor,
) (*Switch, error) {
	deviceID, ok := status.Get(model.DeviceIDKey)
	if !ok {
		return nil, fmt.Errorf("%w: entry %s has no %s in status", ErrNotReady, entry.EntryID, model.DeviceIDKey)
	}
	return &Switch{
		entryID:  entry.EntryID,
		status:   status,
		client:   client,
		desc:     desc,
		uniqueID: fmt.Sprintf("%s-%s-%s", entry.Model, formatDeviceID(deviceID), strings.ToLower(desc.Kind)),
		name:     displayName(entry.Name, desc.Label),
	}, nil
}

// formatDeviceID renders numeric ids decoded from JSON without an exponent.
func formatDeviceID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(id), 'f', -1, 32)
	default:
		return fmt.Sprint(id)
	}
}

// displayName turns "child_lock" into "<device> Child Lock".
func displayName(device, label string) string {
	words := cases.Title(language.Und).String(strings.ReplaceAll(label, "_", " "))
	return device + " " + words
}

func (s *Switch) UniqueID() string                         { return s.uniqueID }
func (s *Switch) Name() string                             { return s.name }
func (s *Switch) Kind() string                             { return s.desc.Kind }
func (s *Switch) EntryID() string                          { return s.entryID }
func (s *Switch) Descriptor() model.ControlPointDescriptor { return s.desc }

// IsOn reports whether the status currently holds the descriptor's on value.
// Unknown or missing values read as off.
func (s *Switch) IsOn() bool {
	v, ok := s.status.Get(s.desc.Kind)
	return ok && model.SameValue(v, s.desc.On)
}

func (s *Switch) TurnOn(ctx context.Context) error {
	return s.send(ctx, s.desc.On)
}

func (s *Switch) TurnOff(ctx context.Context) error {
	return s.send(ctx, s.desc.Off)
}

// send writes value to the device and, once acknowledged, stores it in the
// status ahead of the next poll.
func (s *Switch) send(ctx context.Context, value any) error {
	if err := s.client.SetControlValue(ctx, s.desc.Kind, value); err != nil {
		return fmt.Errorf("set %s on %s: %w", s.desc.Kind, s.uniqueID, err)
	}
	s.status.Set(s.desc.Kind, value)
	s.HandleCoordinatorUpdate()
	return nil
}

// Observe registers the callback run by HandleCoordinatorUpdate.
func (s *Switch) Observe(o StateObserver) {
	s.mu.Lock()
	s.observer = o
	s.mu.Unlock()
}

// HandleCoordinatorUpdate recomputes the state and notifies the observer.
func (s *Switch) HandleCoordinatorUpdate() {
	s.mu.RLock()
	o := s.observer
	s.mu.RUnlock()
	if o != nil {
		o(s, s.IsOn())
	}
}

func (s *Switch) View() *model.SwitchView {
	return &model.SwitchView{
		ID:             s.uniqueID,
		EntryID:        s.entryID,
		Name:           s.name,
		Kind:           s.desc.Kind,
		DeviceClass:    s.desc.DeviceClass,
		Icon:           s.desc.Icon,
		EntityCategory: s.desc.EntityCategory,
		On:             s.IsOn(),
	}
}
