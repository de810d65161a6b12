package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"air-purifier-bridge/internal/domain/capability"
	"air-purifier-bridge/internal/domain/entity"
	"air-purifier-bridge/internal/domain/model"
	"air-purifier-bridge/internal/ports"
)

const defaultRetryInterval = 30 * time.Second

type Options struct {
	PollInterval  time.Duration
	RetryInterval time.Duration
}

// BridgeService loads config entries, keeps one coordinator per loaded entry
// and serves the switches created for it.
type BridgeService struct {
	connector ports.DeviceConnector
	configs   *ConfigService
	resolver  *capability.Resolver
	registry  []model.ControlPointDescriptor
	opts      Options
	logger    *slog.Logger

	mu       sync.RWMutex
	baseCtx  context.Context
	pending  map[string]context.CancelFunc
	loaded   map[string]*loadedEntry
	switches map[string]*entity.Switch
	order    []string
	states   map[string]bool
}

type loadedEntry struct {
	entry       *model.ConfigEntry
	coordinator *Coordinator
	switches    []*entity.Switch
	cancel      context.CancelFunc
}

func NewBridgeService(
	connector ports.DeviceConnector,
	configRepo ports.ConfigRepository,
	resolver *capability.Resolver,
	registry []model.ControlPointDescriptor,
	opts Options,
	logger *slog.Logger,
) *BridgeService {
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}
	return &BridgeService{
		connector: connector,
		configs:   NewConfigService(configRepo),
		resolver:  resolver,
		registry:  registry,
		opts:      opts,
		logger:    logger.With("component", "bridge"),
		baseCtx:   context.Background(),
		pending:   make(map[string]context.CancelFunc),
		loaded:    make(map[string]*loadedEntry),
		switches:  make(map[string]*entity.Switch),
		states:    make(map[string]bool),
	}
}

// Start sets up every stored entry in the background. Entries stay bound to
// ctx: cancelling it stops their setup retries and coordinators.
func (s *BridgeService) Start(ctx context.Context) error {
	cfg, err := s.configs.GetConfig(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()
	for _, e := range cfg.Entries {
		s.startEntry(e)
	}
	return nil
}

func (s *BridgeService) startEntry(entry *model.ConfigEntry) {
	s.mu.Lock()
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.pending[entry.EntryID] = cancel
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.pending, entry.EntryID)
			s.mu.Unlock()
			cancel()
		}()
		s.setupWithRetry(ctx, entry)
	}()
}

func (s *BridgeService) setupWithRetry(ctx context.Context, entry *model.ConfigEntry) {
	for {
		err := s.SetupEntry(ctx, entry)
		if err == nil || errors.Is(err, ErrEntryLoaded) {
			return
		}
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("entry setup failed; retrying",
			"entry_id", entry.EntryID,
			"retry_in", s.opts.RetryInterval,
			"err", err,
		)
		timer := time.NewTimer(s.opts.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// SetupEntry connects to the entry's device, performs the first refresh and
// creates its switches. Any failure here is transient: the caller retries later.
// ctx bounds the setup only; the coordinator keeps polling until the entry is
// unloaded or the context given to Start ends.
func (s *BridgeService) SetupEntry(ctx context.Context, entry *model.ConfigEntry) error {
	s.mu.RLock()
	_, loaded := s.loaded[entry.EntryID]
	s.mu.RUnlock()
	if loaded {
		return fmt.Errorf("%w: %s", ErrEntryLoaded, entry.EntryID)
	}

	client, err := s.connector.Connect(ctx, entry)
	if err != nil {
		return fmt.Errorf("%w: connect %s: %w", entity.ErrNotReady, entry.Host, err)
	}

	coordinator := NewCoordinator(entry, client, s.opts.PollInterval, s.logger)
	if err := coordinator.Refresh(ctx); err != nil {
		s.disconnect(entry)
		return fmt.Errorf("%w: %w", entity.ErrNotReady, err)
	}

	switches, err := SetupSwitches(entry, coordinator, s.resolver, s.registry, s.onSwitchState, s.logger)
	if err != nil {
		s.disconnect(entry)
		return err
	}

	s.mu.Lock()
	if _, dup := s.loaded[entry.EntryID]; dup {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrEntryLoaded, entry.EntryID)
	}
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		s.disconnect(entry)
		return err
	}
	runCtx, cancel := context.WithCancel(s.baseCtx)
	s.loaded[entry.EntryID] = &loadedEntry{
		entry:       entry,
		coordinator: coordinator,
		switches:    switches,
		cancel:      cancel,
	}
	for _, sw := range switches {
		s.switches[sw.UniqueID()] = sw
		s.order = append(s.order, sw.UniqueID())
	}
	s.mu.Unlock()

	go coordinator.Run(runCtx)
	s.logger.Info("entry loaded", "entry_id", entry.EntryID, "model", entry.Model, "switches", len(switches))
	return nil
}

// UnloadEntry stops the entry's coordinator and drops its switches.
func (s *BridgeService) UnloadEntry(id string) {
	s.mu.Lock()
	if cancel, ok := s.pending[id]; ok {
		cancel()
		delete(s.pending, id)
	}
	le, ok := s.loaded[id]
	if ok {
		delete(s.loaded, id)
		le.cancel()
		kept := s.order[:0]
		for _, uid := range s.order {
			if sw := s.switches[uid]; sw != nil && sw.EntryID() == id {
				delete(s.switches, uid)
				delete(s.states, uid)
				continue
			}
			kept = append(kept, uid)
		}
		s.order = kept
	}
	s.mu.Unlock()

	if ok {
		s.disconnect(le.entry)
		s.logger.Info("entry unloaded", "entry_id", id)
	}
}

func (s *BridgeService) disconnect(entry *model.ConfigEntry) {
	if err := s.connector.Disconnect(entry); err != nil {
		s.logger.Warn("disconnect failed", "entry_id", entry.EntryID, "err", err)
	}
}

func (s *BridgeService) onSwitchState(sw *entity.Switch, on bool) {
	s.mu.Lock()
	prev, known := s.states[sw.UniqueID()]
	s.states[sw.UniqueID()] = on
	s.mu.Unlock()
	if !known || prev != on {
		s.logger.Debug("switch state changed", "switch", sw.UniqueID(), "on", on)
	}
}

func (s *BridgeService) GetSwitches(ctx context.Context) ([]*model.SwitchView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	views := make([]*model.SwitchView, 0, len(s.order))
	for _, id := range s.order {
		views = append(views, s.switches[id].View())
	}
	return views, nil
}

func (s *BridgeService) GetSwitch(ctx context.Context, id string) (*model.SwitchView, error) {
	sw, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return sw.View(), nil
}

func (s *BridgeService) SetSwitch(ctx context.Context, id string, on bool) error {
	sw, err := s.lookup(id)
	if err != nil {
		return err
	}
	if on {
		return sw.TurnOn(ctx)
	}
	return sw.TurnOff(ctx)
}

func (s *BridgeService) lookup(id string) (*entity.Switch, error) {
	s.mu.RLock()
	sw, ok := s.switches[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSwitchNotFound, id)
	}
	return sw, nil
}

// Refresh asks every loaded coordinator to poll now.
func (s *BridgeService) Refresh() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, le := range s.loaded {
		le.coordinator.TriggerRefresh()
	}
}

func (s *BridgeService) GetConfig(ctx context.Context) (*model.Config, error) {
	return s.configs.GetConfig(ctx)
}

func (s *BridgeService) AddEntry(ctx context.Context, entry *model.ConfigEntry) (*model.ConfigEntry, error) {
	added, err := s.configs.AddEntry(ctx, entry)
	if err != nil {
		return nil, err
	}
	if !s.resolver.Supports(added.Model) {
		s.logger.Warn("entry added for unsupported model", "entry_id", added.EntryID, "model", added.Model)
	}
	s.startEntry(added)
	return added, nil
}

func (s *BridgeService) RemoveEntry(ctx context.Context, id string) error {
	if err := s.configs.RemoveEntry(ctx, id); err != nil {
		return err
	}
	s.UnloadEntry(id)
	return nil
}
