package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reformcases/portfolio-api/internal/models"
	appErrors "github.com/reformcases/portfolio-api/pkg/errors"
)

// NotificationService keeps a process-wide queue of in-app notifications.
// Entries live until the recipient dismisses them or the process restarts;
// there is no delivery channel beyond polling.
type NotificationService struct {
	mu      sync.RWMutex
	entries map[string]models.Notification
	logger  *zap.Logger
}

// NewNotificationService constructs an empty queue.
func NewNotificationService(logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		entries: make(map[string]models.Notification),
		logger:  logger,
	}
}

// Enqueue adds a notification for a user. Duplicate pushes for the same case
// and title are collapsed so a slow sweep interval cannot spam the bell.
func (s *NotificationService) Enqueue(ctx context.Context, n models.Notification) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.entries {
		if existing.UserID == n.UserID && existing.Title == n.Title && sameCaseRef(existing.CaseID, n.CaseID) {
			return &existing, nil
		}
	}

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if len(n.Actions) == 0 {
		n.Actions = []models.NotificationAction{models.ActionClose}
	}
	s.entries[n.ID] = n
	s.logger.Sugar().Infow("notification enqueued", "user_id", n.UserID, "title", n.Title)
	return &n, nil
}

// List returns a user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Notification, 0)
	for _, n := range s.entries {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// MarkRead flags a notification without removing it.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.entries[id]
	if !ok || n.UserID != userID {
		return appErrors.ErrNotFound
	}
	n.Read = true
	s.entries[id] = n
	return nil
}

// Dismiss removes a notification from the queue.
func (s *NotificationService) Dismiss(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.entries[id]
	if !ok || n.UserID != userID {
		return appErrors.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func sameCaseRef(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
