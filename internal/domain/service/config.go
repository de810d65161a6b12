package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"air-purifier-bridge/internal/domain/model"
	"air-purifier-bridge/internal/ports"
	"github.com/google/uuid"
)

type ConfigService struct {
	repo ports.ConfigRepository
	mu   sync.Mutex
}

func NewConfigService(repo ports.ConfigRepository) *ConfigService {
	return &ConfigService{repo: repo}
}

func (s *ConfigService) GetConfig(ctx context.Context) (*model.Config, error) {
	return s.repo.Get(ctx)
}

// AddEntry stores a copy of entry under a freshly generated id.
func (s *ConfigService) AddEntry(ctx context.Context, entry *model.ConfigEntry) (*model.ConfigEntry, error) {
	if entry == nil || strings.TrimSpace(entry.Host) == "" || strings.TrimSpace(entry.Model) == "" {
		return nil, fmt.Errorf("%w: host and model are required", ErrInvalidEntry)
	}
	host := strings.TrimSpace(entry.Host)

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range cfg.Entries {
		if e.Host == host {
			return nil, fmt.Errorf("%w: host %s is already configured", ErrInvalidEntry, host)
		}
	}

	added := &model.ConfigEntry{
		EntryID: uuid.NewString(),
		Host:    host,
		Model:   strings.TrimSpace(entry.Model),
		Name:    strings.TrimSpace(entry.Name),
	}
	if added.Name == "" {
		added.Name = added.Model
	}
	cfg.Entries = append(cfg.Entries, added)
	if err := s.repo.Save(ctx, cfg); err != nil {
		return nil, err
	}
	return added, nil
}

func (s *ConfigService) RemoveEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return err
	}
	if cfg.Entry(id) == nil {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	kept := cfg.Entries[:0]
	for _, e := range cfg.Entries {
		if e.EntryID != id {
			kept = append(kept, e)
		}
	}
	cfg.Entries = kept
	return s.repo.Save(ctx, cfg)
}
