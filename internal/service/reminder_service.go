package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/reformcases/portfolio-api/internal/models"
	"github.com/reformcases/portfolio-api/internal/repository"
)

type reminderCaseStore interface {
	ListDueReminders(ctx context.Context, now time.Time, limit int) ([]models.Case, error)
	Update(ctx context.Context, id int64, params repository.UpdateCaseParams) error
}

type reminderRecipients interface {
	FindByCompanyID(ctx context.Context, companyID string) (*models.User, error)
}

type reminderNotifier interface {
	Enqueue(ctx context.Context, n models.Notification) (*models.Notification, error)
}

// ReminderServiceConfig tunes the sweep loop.
type ReminderServiceConfig struct {
	SweepInterval time.Duration
	BatchSize     int
}

// ReminderService periodically scans scheduled cases and pushes the
// after-photo reminder once per case.
type ReminderService struct {
	cases    reminderCaseStore
	users    reminderRecipients
	notifier reminderNotifier
	logger   *zap.Logger
	cfg      ReminderServiceConfig
}

// NewReminderService constructs a ReminderService.
func NewReminderService(cases reminderCaseStore, users reminderRecipients, notifier reminderNotifier, logger *zap.Logger, cfg ReminderServiceConfig) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &ReminderService{cases: cases, users: users, notifier: notifier, logger: logger, cfg: cfg}
}

// Start boots the sweep goroutine. It exits when the context is cancelled.
func (s *ReminderService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Sweep delivers reminders for every due scheduled case. Each case is
// notified at most once: the sent flag flips before the next sweep sees it.
func (s *ReminderService) Sweep(ctx context.Context) {
	now := time.Now().UTC()
	due, err := s.cases.ListDueReminders(ctx, now, s.cfg.BatchSize)
	if err != nil {
		s.logger.Sugar().Warnw("reminder sweep failed", "error", err)
		return
	}
	for _, c := range due {
		s.deliver(ctx, c)
	}
}

func (s *ReminderService) deliver(ctx context.Context, c models.Case) {
	user, err := s.users.FindByCompanyID(ctx, c.CompanyID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Sugar().Warnw("reminder recipient lookup failed", "case_id", c.ID, "error", err)
		}
		return
	}

	caseID := c.ID
	if _, err := s.notifier.Enqueue(ctx, models.Notification{
		UserID:  user.ID,
		Title:   "アフター写真を撮影する時間です！",
		Body:    c.Title,
		Actions: []models.NotificationAction{models.ActionExplore, models.ActionClose},
		CaseID:  &caseID,
	}); err != nil {
		s.logger.Sugar().Warnw("failed to enqueue reminder", "case_id", c.ID, "error", err)
		return
	}

	sent := true
	if err := s.cases.Update(ctx, c.ID, repository.UpdateCaseParams{ReminderSent: &sent}); err != nil {
		s.logger.Sugar().Warnw("failed to mark reminder sent", "case_id", c.ID, "error", err)
	}
}
