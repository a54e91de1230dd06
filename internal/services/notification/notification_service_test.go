package notification

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tradeskills/tradeskills-backend/internal/models"
	"github.com/tradeskills/tradeskills-backend/internal/realtime"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Notification{}))
	return db
}

func TestNotifyPersistsRow(t *testing.T) {
	svc := NewService(openTestDB(t), nil, nil)
	userID := uuid.New()

	n, err := svc.Notify(context.Background(), userID, "session.confirmed",
		"Session confirmed", "Session confirmed: Pottery wheel basics",
		map[string]interface{}{"session_id": uuid.New()})
	require.NoError(t, err)
	assert.False(t, n.IsRead)

	var stored models.Notification
	require.NoError(t, svc.DB.First(&stored, "id = ?", n.ID).Error)
	assert.Equal(t, userID, stored.UserID)
	assert.Equal(t, "session.confirmed", stored.Type)

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(stored.Data, &data))
	assert.Contains(t, data, "session_id")
}

func TestNotifyDeliversToConnectedClient(t *testing.T) {
	hub := realtime.NewHub()
	go hub.Run()

	svc := NewService(openTestDB(t), hub, nil)
	userID := uuid.New()

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Send:   make(chan []byte, 8),
	}
	hub.RegisterClient(client)
	// registration runs on the hub goroutine
	time.Sleep(10 * time.Millisecond)

	_, err := svc.Notify(context.Background(), userID, "session.started",
		"Session started", "Session started: Pottery wheel basics", nil)
	require.NoError(t, err)

	select {
	case frame := <-client.Send:
		var got models.Notification
		require.NoError(t, json.Unmarshal(frame, &got))
		assert.Equal(t, "session.started", got.Type)
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
	}
}

func TestListFiltersAndOrders(t *testing.T) {
	svc := NewService(openTestDB(t), nil, nil)
	userID := uuid.New()
	ctx := context.Background()

	_, err := svc.Notify(ctx, userID, "session.started", "Session started", "", nil)
	require.NoError(t, err)
	second, err := svc.Notify(ctx, userID, "session.completed", "Session completed", "", nil)
	require.NoError(t, err)
	_, err = svc.Notify(ctx, uuid.New(), "session.started", "Session started", "", nil)
	require.NoError(t, err)

	all, err := svc.List(userID, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	completed, err := svc.List(userID, Filter{Type: "session.completed"})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, second.ID, completed[0].ID)

	require.NoError(t, svc.MarkRead(userID, second.ID))
	unreadOnly := false
	read, err := svc.List(userID, Filter{IsRead: &unreadOnly})
	require.NoError(t, err)
	assert.Len(t, read, 1)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	svc := NewService(openTestDB(t), nil, nil)
	owner := uuid.New()

	n, err := svc.Notify(context.Background(), owner, "session.started", "Session started", "", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.MarkRead(uuid.New(), n.ID), ErrNotificationNotFound)

	require.NoError(t, svc.MarkRead(owner, n.ID))
	var stored models.Notification
	require.NoError(t, svc.DB.First(&stored, "id = ?", n.ID).Error)
	assert.True(t, stored.IsRead)
}

func TestMarkAllReadAndUnreadCount(t *testing.T) {
	svc := NewService(openTestDB(t), nil, nil)
	userID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Notify(ctx, userID, "session.started", "Session started", "", nil)
		require.NoError(t, err)
	}

	count, err := svc.UnreadCount(userID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	updated, err := svc.MarkAllRead(userID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, updated)

	count, err = svc.UnreadCount(userID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}
