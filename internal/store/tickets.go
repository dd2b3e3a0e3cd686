package store

import (
	"context"
	"errors"
	"time"

	"github.com/oomaltseva/telegram-bot/db/models"
	"gorm.io/gorm"
)

// CreateTicket always inserts a fresh open row. Consecutive messages
// from the same user are deliberately not merged.
func (s *Store) CreateTicket(ctx context.Context, userID int64, userName, excerpt string) error {
	t := models.SupportTicket{
		UserID:   userID,
		UserName: userName,
		Excerpt:  excerpt,
		Status:   models.TicketStatusOpen,
	}
	return s.db.WithContext(ctx).Create(&t).Error
}

// CloseMostRecentOpenTicket closes the newest open ticket for the user
// (LIFO, matching the historical behavior; with several open tickets the
// older ones stay open). Returns false when no open ticket exists.
func (s *Store) CloseMostRecentOpenTicket(ctx context.Context, userID, adminID int64) (bool, error) {
	var t models.SupportTicket
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.TicketStatusOpen).
		Order("created_at DESC, id DESC").
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Model(&models.SupportTicket{}).
		Where("id = ?", t.ID).
		Updates(map[string]any{
			"status":             models.TicketStatusClosed,
			"closed_at":          &now,
			"closed_by_admin_id": &adminID,
		}).Error
	if err != nil {
		return false, err
	}
	s.logger.Info("ticket_closed", "ticket_id", t.ID, "user_id", userID, "admin_id", adminID)
	return true, nil
}

// OpenTickets lists open tickets oldest-first so the longest-waiting
// message surfaces first.
func (s *Store) OpenTickets(ctx context.Context) ([]models.SupportTicket, error) {
	var tickets []models.SupportTicket
	err := s.db.WithContext(ctx).
		Where("status = ?", models.TicketStatusOpen).
		Order("created_at ASC, id ASC").
		Find(&tickets).Error
	if err != nil {
		return nil, err
	}
	return tickets, nil
}
