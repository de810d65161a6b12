package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"air-purifier-bridge/internal/domain/entity"
	"air-purifier-bridge/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestBridge(t *testing.T, connector *MockConnector, repo *memoryRepo) *BridgeService {
	t.Helper()
	return NewBridgeService(connector, repo, testResolver(t), testRegistry, Options{
		PollInterval:  time.Hour,
		RetryInterval: 10 * time.Millisecond,
	}, discardLogger())
}

func TestBridgeService_SetupEntry(t *testing.T) {
	entry := &model.ConfigEntry{EntryID: "e1", Host: "h1", Model: "M1", Name: "Office"}
	client := new(MockClient)
	client.On("GetStatus", mock.Anything).Return(map[string]any{model.DeviceIDKey: "XYZ123", "B": 1}, nil)
	connector := new(MockConnector)
	connector.On("Connect", mock.Anything, entry).Return(client, nil).Once()
	connector.On("Disconnect", entry).Return(nil).Once()

	s := newTestBridge(t, connector, &memoryRepo{})
	ctx := context.Background()
	require.NoError(t, s.SetupEntry(ctx, entry))

	// switches are never recreated while the entry is loaded
	assert.ErrorIs(t, s.SetupEntry(ctx, entry), ErrEntryLoaded)

	views, err := s.GetSwitches(ctx)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "M1-XYZ123-c", views[0].ID)
	assert.Equal(t, "Office C", views[0].Name)
	assert.True(t, views[1].On)

	s.UnloadEntry("e1")
	views, err = s.GetSwitches(ctx)
	require.NoError(t, err)
	assert.Empty(t, views)
	_, err = s.GetSwitch(ctx, "M1-XYZ123-c")
	assert.ErrorIs(t, err, ErrSwitchNotFound)

	connector.AssertExpectations(t)
}

func TestBridgeService_SetSwitch(t *testing.T) {
	entry := &model.ConfigEntry{EntryID: "e1", Host: "h1", Model: "M1", Name: "Office"}
	client := new(MockClient)
	client.On("GetStatus", mock.Anything).Return(map[string]any{model.DeviceIDKey: "XYZ123", "A": 0}, nil)
	client.On("SetControlValue", mock.Anything, "A", 1).Return(nil).Once()
	client.On("SetControlValue", mock.Anything, "C", 1).Return(errors.New("no ack")).Once()
	connector := new(MockConnector)
	connector.On("Connect", mock.Anything, entry).Return(client, nil)

	s := newTestBridge(t, connector, &memoryRepo{})
	ctx := context.Background()
	require.NoError(t, s.SetupEntry(ctx, entry))

	require.NoError(t, s.SetSwitch(ctx, "M1-XYZ123-a", true))
	view, err := s.GetSwitch(ctx, "M1-XYZ123-a")
	require.NoError(t, err)
	assert.True(t, view.On)

	assert.Error(t, s.SetSwitch(ctx, "M1-XYZ123-c", true))
	view, err = s.GetSwitch(ctx, "M1-XYZ123-c")
	require.NoError(t, err)
	assert.False(t, view.On)

	assert.ErrorIs(t, s.SetSwitch(ctx, "unknown", true), ErrSwitchNotFound)
	client.AssertExpectations(t)
}

func TestBridgeService_SetupEntryNotReady(t *testing.T) {
	entry := &model.ConfigEntry{EntryID: "e1", Host: "h1", Model: "M1"}
	connector := new(MockConnector)
	connector.On("Connect", mock.Anything, entry).Return(nil, errors.New("refused")).Once()

	client := new(MockClient)
	client.On("GetStatus", mock.Anything).Return(map[string]any{"A": 1}, nil).Once()
	connector.On("Connect", mock.Anything, entry).Return(client, nil).Once()
	connector.On("Disconnect", entry).Return(nil).Once()

	s := newTestBridge(t, connector, &memoryRepo{})
	assert.ErrorIs(t, s.SetupEntry(context.Background(), entry), entity.ErrNotReady)
	assert.ErrorIs(t, s.SetupEntry(context.Background(), entry), entity.ErrNotReady)

	views, err := s.GetSwitches(context.Background())
	require.NoError(t, err)
	assert.Empty(t, views)
	connector.AssertExpectations(t)
}

func TestBridgeService_StartRetriesUntilReady(t *testing.T) {
	entry := &model.ConfigEntry{EntryID: "e1", Host: "h1", Model: "M1", Name: "Office"}
	repo := &memoryRepo{cfg: model.Config{Entries: []*model.ConfigEntry{entry}}}

	client := new(MockClient)
	client.On("GetStatus", mock.Anything).Return(map[string]any{"A": 1}, nil).Once()
	client.On("GetStatus", mock.Anything).Return(map[string]any{model.DeviceIDKey: "XYZ123", "A": 1}, nil)
	connector := new(MockConnector)
	connector.On("Connect", mock.Anything, mock.Anything).Return(client, nil)
	connector.On("Disconnect", mock.Anything).Return(nil)

	s := newTestBridge(t, connector, repo)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))

	require.Eventually(t, func() bool {
		views, _ := s.GetSwitches(ctx)
		return len(views) == 3
	}, 2*time.Second, 10*time.Millisecond)

	view, err := s.GetSwitch(ctx, "M1-XYZ123-a")
	require.NoError(t, err)
	assert.True(t, view.On)
}

func TestBridgeService_AddRemoveEntry(t *testing.T) {
	client := new(MockClient)
	client.On("GetStatus", mock.Anything).Return(map[string]any{model.DeviceIDKey: "XYZ123"}, nil)
	connector := new(MockConnector)
	connector.On("Connect", mock.Anything, mock.Anything).Return(client, nil)
	connector.On("Disconnect", mock.Anything).Return(nil)

	repo := &memoryRepo{}
	s := newTestBridge(t, connector, repo)
	ctx := context.Background()

	added, err := s.AddEntry(ctx, &model.ConfigEntry{Host: "h1", Model: "M1", Name: "Office"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		views, _ := s.GetSwitches(ctx)
		return len(views) == 3
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.RemoveEntry(ctx, added.EntryID))
	views, err := s.GetSwitches(ctx)
	require.NoError(t, err)
	assert.Empty(t, views)

	cfg, err := s.GetConfig(ctx)
	require.NoError(t, err)
	assert.Empty(t, cfg.Entries)

	assert.ErrorIs(t, s.RemoveEntry(ctx, added.EntryID), ErrEntryNotFound)
}
