package persistence

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"

	"air-purifier-bridge/internal/domain/model"
	"github.com/google/uuid"
)

type JSONConfigRepository struct {
	filepath string
	mu       sync.RWMutex
}

// Internal structure for migration: one map of devices keyed by host
type legacyConfig struct {
	Devices map[string]*legacyDevice `json:"devices"`
}

type legacyDevice struct {
	Model string `json:"model"`
	Name  string `json:"name"`
}

func NewJSONConfigRepository(filepath string) *JSONConfigRepository {
	return &JSONConfigRepository{filepath: filepath}
}

func (r *JSONConfigRepository) Get(ctx context.Context) (*model.Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.Config{Entries: []*model.ConfigEntry{}}, nil
		}
		return nil, err
	}

	var cfg model.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Migration check: no entries but a file, maybe the old format
	if len(cfg.Entries) == 0 {
		return r.migrate(data)
	}

	return &cfg, nil
}

func (r *JSONConfigRepository) migrate(data []byte) (*model.Config, error) {
	var legacy legacyConfig
	if err := json.Unmarshal(data, &legacy); err != nil || len(legacy.Devices) == 0 {
		return &model.Config{Entries: []*model.ConfigEntry{}}, nil
	}

	hosts := make([]string, 0, len(legacy.Devices))
	for host := range legacy.Devices {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	cfg := &model.Config{Entries: make([]*model.ConfigEntry, 0, len(hosts))}
	for _, host := range hosts {
		d := legacy.Devices[host]
		if d == nil || d.Model == "" {
			continue
		}
		name := d.Name
		if name == "" {
			name = d.Model
		}
		cfg.Entries = append(cfg.Entries, &model.ConfigEntry{
			EntryID: legacyEntryID(host),
			Host:    host,
			Model:   d.Model,
			Name:    name,
		})
	}

	return cfg, nil
}

// legacyEntryID derives the id from the host so repeated reads of an
// unmigrated file agree.
func legacyEntryID(host string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(host)).String()
}

func (r *JSONConfigRepository) Save(ctx context.Context, config *model.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(r.filepath, data, 0644)
}
