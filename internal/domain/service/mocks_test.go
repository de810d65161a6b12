package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"air-purifier-bridge/internal/domain/model"
	"air-purifier-bridge/internal/ports"
	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetStatus(ctx context.Context) (map[string]any, error) {
	args := m.Called(ctx)
	status, _ := args.Get(0).(map[string]any)
	return status, args.Error(1)
}

func (m *MockClient) SetControlValue(ctx context.Context, key string, value any) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

type MockConnector struct {
	mock.Mock
}

func (m *MockConnector) Connect(ctx context.Context, entry *model.ConfigEntry) (ports.DeviceClient, error) {
	args := m.Called(ctx, entry)
	client, _ := args.Get(0).(ports.DeviceClient)
	return client, args.Error(1)
}

func (m *MockConnector) Disconnect(entry *model.ConfigEntry) error {
	args := m.Called(entry)
	return args.Error(0)
}

type memoryRepo struct {
	mu  sync.Mutex
	cfg model.Config
}

func (r *memoryRepo) Get(ctx context.Context) (*model.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := &model.Config{}
	for _, e := range r.cfg.Entries {
		c := *e
		out.Entries = append(out.Entries, &c)
	}
	return out, nil
}

func (r *memoryRepo) Save(ctx context.Context, cfg *model.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = model.Config{}
	for _, e := range cfg.Entries {
		c := *e
		r.cfg.Entries = append(r.cfg.Entries, &c)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
