package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reformcases/portfolio-api/internal/models"
	appErrors "github.com/reformcases/portfolio-api/pkg/errors"
)

func TestNotificationServiceEnqueueAndList(t *testing.T) {
	svc := NewNotificationService(zap.NewNop())

	first, err := svc.Enqueue(context.Background(), models.Notification{
		UserID: "user-1",
		Title:  "お知らせ",
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	assert.Equal(t, []models.NotificationAction{models.ActionClose}, first.Actions)

	_, err = svc.Enqueue(context.Background(), models.Notification{
		UserID: "user-2",
		Title:  "別のユーザー宛",
	})
	require.NoError(t, err)

	list, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "お知らせ", list[0].Title)
	assert.False(t, list[0].Read)
}

func TestNotificationServiceDeduplicatesPerCase(t *testing.T) {
	svc := NewNotificationService(zap.NewNop())
	caseID := int64(7)

	first, err := svc.Enqueue(context.Background(), models.Notification{
		UserID: "user-1",
		Title:  "アフター写真を撮影する時間です！",
		CaseID: &caseID,
	})
	require.NoError(t, err)

	second, err := svc.Enqueue(context.Background(), models.Notification{
		UserID: "user-1",
		Title:  "アフター写真を撮影する時間です！",
		CaseID: &caseID,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	list, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNotificationServiceMarkReadAndDismiss(t *testing.T) {
	svc := NewNotificationService(zap.NewNop())

	n, err := svc.Enqueue(context.Background(), models.Notification{
		UserID: "user-1",
		Title:  "お知らせ",
	})
	require.NoError(t, err)

	require.ErrorIs(t, svc.MarkRead(context.Background(), n.ID, "someone-else"), appErrors.ErrNotFound)
	require.NoError(t, svc.MarkRead(context.Background(), n.ID, "user-1"))

	list, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Read)

	require.NoError(t, svc.Dismiss(context.Background(), n.ID, "user-1"))
	list, err = svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.ErrorIs(t, svc.Dismiss(context.Background(), n.ID, "user-1"), appErrors.ErrNotFound)
}
