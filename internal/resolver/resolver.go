// Package resolver maps free-form admin-supplied tokens and relayed
// messages back to canonical user ids.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/oomaltseva/telegram-bot/db/models"
	"github.com/oomaltseva/telegram-bot/internal/store"
	"github.com/oomaltseva/telegram-bot/internal/telegram"
)

var ErrNotFound = errors.New("user not found")

// UserDirectory is the slice of the persistence gateway the resolver
// needs.
type UserDirectory interface {
	UserByID(ctx context.Context, id int64) (*models.User, error)
	UserIDByPhoneSuffix(ctx context.Context, suffix string) (int64, error)
}

type Resolver struct {
	users  UserDirectory
	logger *slog.Logger
}

type Options struct {
	Users  UserDirectory
	Logger *slog.Logger
}

func New(opts Options) (*Resolver, error) {
	if opts.Users == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{users: opts.Users, logger: logger}, nil
}

// Resolve turns a token (numeric id or phone-number fragment) into a
// stored user id. All-digit tokens try an exact id match first and fall
// back to the phone-suffix path on miss. Suffix collisions resolve by
// row order; the first match wins.
func (r *Resolver) Resolve(ctx context.Context, token string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ErrNotFound
	}

	if isAllDigits(token) {
		id, err := strconv.ParseInt(token, 10, 64)
		if err == nil {
			if _, lookupErr := r.users.UserByID(ctx, id); lookupErr == nil {
				return id, nil
			}
		}
	}

	suffix := PhoneSuffix(token)
	if suffix == "" {
		return 0, ErrNotFound
	}
	id, err := r.users.UserIDByPhoneSuffix(ctx, suffix)
	if err != nil {
		if isNotFound(err) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return id, nil
}

// PhoneSuffix strips non-digits and keeps at most the trailing 9
// digits, so the same phone matches regardless of country-code prefix
// or formatting.
func PhoneSuffix(token string) string {
	var b strings.Builder
	for _, ch := range token {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	digits := b.String()
	if len(digits) > 9 {
		digits = digits[len(digits)-9:]
	}
	return digits
}

// idMarkerRe matches the caption marker the bot attaches when relaying
// a user message to admins.
var idMarkerRe = regexp.MustCompile(`(?i)🔑\s*ID\s*:\s*(\d{4,})`)

// FromReply extracts the original sender's id from a replied-to relayed
// message. Forwarded-from metadata wins over the caption marker: the
// structural identity cannot be spoofed by reformatting text.
func (r *Resolver) FromReply(msg *telegram.Message) (int64, bool) {
	if msg == nil {
		return 0, false
	}
	if msg.ForwardFrom != nil && msg.ForwardFrom.ID != 0 {
		return msg.ForwardFrom.ID, true
	}
	for _, text := range []string{msg.Caption, msg.Text} {
		if text == "" {
			continue
		}
		m := idMarkerRe.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		r.logger.Info("reply_target_resolved_from_marker", "user_id", id)
		return id, true
	}
	r.logger.Warn("reply_target_not_found")
	return 0, false
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, store.ErrNotFound)
}
