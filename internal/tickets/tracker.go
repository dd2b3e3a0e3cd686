// Package tickets tracks inbound user messages awaiting an admin reply.
package tickets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oomaltseva/telegram-bot/db/models"
	"github.com/oomaltseva/telegram-bot/internal/content"
)

const maxExcerptLen = 200

// Store is the slice of the persistence gateway the tracker needs.
type Store interface {
	CreateTicket(ctx context.Context, userID int64, userName, excerpt string) error
	CloseMostRecentOpenTicket(ctx context.Context, userID, adminID int64) (bool, error)
	OpenTickets(ctx context.Context) ([]models.SupportTicket, error)
}

type Tracker struct {
	store  Store
	logger *slog.Logger
}

type Options struct {
	Store  Store
	Logger *slog.Logger
}

func New(opts Options) (*Tracker, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("ticket store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{store: opts.Store, logger: logger}, nil
}

// Open records a fresh ticket for every inbound message; consecutive
// messages from one user open separate tickets.
func (t *Tracker) Open(ctx context.Context, userID int64, userName, excerpt string) error {
	excerpt = content.Truncate(excerpt, maxExcerptLen)
	if err := t.store.CreateTicket(ctx, userID, userName, excerpt); err != nil {
		t.logger.Error("ticket_open_failed", "user_id", userID, "error", err.Error())
		return err
	}
	t.logger.Info("ticket_opened", "user_id", userID)
	return nil
}

// CloseMostRecentOpen closes the newest open ticket for the user. A
// reply with no matching open ticket is a warning, not an error: admins
// legitimately answer old threads.
func (t *Tracker) CloseMostRecentOpen(ctx context.Context, userID, adminID int64) error {
	closed, err := t.store.CloseMostRecentOpenTicket(ctx, userID, adminID)
	if err != nil {
		return err
	}
	if !closed {
		t.logger.Warn("ticket_close_noop", "user_id", userID, "admin_id", adminID)
	}
	return nil
}

// ListOpen returns open tickets oldest-first.
func (t *Tracker) ListOpen(ctx context.Context) ([]models.SupportTicket, error) {
	return t.store.OpenTickets(ctx)
}
