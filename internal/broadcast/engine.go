// Package broadcast drives the content-collection → folder-selection →
// archival → fan-out pipeline.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oomaltseva/telegram-bot/internal/content"
	"github.com/oomaltseva/telegram-bot/internal/convstate"
	"github.com/oomaltseva/telegram-bot/internal/telegram"
)

var (
	// ErrArchiveNotConfigured means the archive destination is unset;
	// the whole operation refuses to run.
	ErrArchiveNotConfigured = errors.New("archive chat is not configured")
	// ErrArchivePublish is fatal to the operation: no catalog entry and
	// no send is attempted after it.
	ErrArchivePublish = errors.New("failed to publish to archive")
	// ErrPostPersist aborts the send; nothing goes out unrecorded.
	ErrPostPersist = errors.New("failed to save post")
)

const defaultSendDelay = 150 * time.Millisecond

// Sender is the slice of the platform client the engine needs.
type Sender interface {
	ForwardMessage(ctx context.Context, chatID, fromChatID, messageID int64) (*telegram.Message, error)
	CopyMessage(ctx context.Context, chatID, fromChatID, messageID int64) (int64, error)
	SendText(ctx context.Context, chatID int64, text string) error
}

type PostStore interface {
	CreatePost(ctx context.Context, folderID uint, title string, archiveMessageID int64) error
}

type RecipientSource interface {
	AllUserIDs(ctx context.Context) ([]int64, error)
	UserIDsByQuery(ctx context.Context, query string) ([]int64, error)
}

type Engine struct {
	sender        Sender
	posts         PostStore
	users         RecipientSource
	archiveChatID int64
	sendDelay     time.Duration
	sleep         func(context.Context, time.Duration)
	logger        *slog.Logger
}

type Options struct {
	Sender        Sender
	Posts         PostStore
	Users         RecipientSource
	ArchiveChatID int64
	SendDelay     time.Duration
	// Sleep is injectable for tests; nil means a real timer.
	Sleep  func(context.Context, time.Duration)
	Logger *slog.Logger
}

func NewEngine(opts Options) (*Engine, error) {
	if opts.Sender == nil {
		return nil, fmt.Errorf("sender is required")
	}
	if opts.Posts == nil {
		return nil, fmt.Errorf("post store is required")
	}
	if opts.Users == nil {
		return nil, fmt.Errorf("recipient source is required")
	}
	delay := opts.SendDelay
	if delay <= 0 {
		delay = defaultSendDelay
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		sender:        opts.Sender,
		posts:         opts.Posts,
		users:         opts.Users,
		archiveChatID: opts.ArchiveChatID,
		sendDelay:     delay,
		sleep:         sleep,
		logger:        logger,
	}, nil
}

// Report is the aggregate outcome of one fan-out. Per-recipient
// failures are folded into the counters and never surfaced one by one.
type Report struct {
	RunID            string
	Recipients       int
	Sent             int
	Failed           int
	Blocked          int
	Filter           string
	Title            string
	ArchiveMessageID int64
}

// Run executes the folder-choice step of the flow: archive the draft,
// extract an optional recipient filter, persist the post unless
// folderID is the reserved 0 sentinel, then fan out.
func (e *Engine) Run(ctx context.Context, d convstate.Draft, folderID uint) (*Report, error) {
	if e.archiveChatID == 0 {
		return nil, ErrArchiveNotConfigured
	}
	runID := newRunID()

	archived, err := e.sender.ForwardMessage(ctx, e.archiveChatID, d.SourceChatID, d.SourceMessageID)
	if err != nil {
		e.logger.Error("broadcast_archive_failed", "run_id", runID, "error", err.Error())
		return nil, fmt.Errorf("%w: %v", ErrArchivePublish, err)
	}

	title := d.Title
	filter := ""
	if f, rest, ok := ExtractFilter(d.RawText); ok {
		filter = f
		title = content.Detect(&telegram.Message{Text: rest}).Title
	}

	if folderID != 0 {
		if err := e.posts.CreatePost(ctx, folderID, title, archived.MessageID); err != nil {
			e.logger.Error("broadcast_post_save_failed", "run_id", runID, "folder_id", folderID, "error", err.Error())
			return nil, fmt.Errorf("%w: %v", ErrPostPersist, err)
		}
	}

	var ids []int64
	if filter != "" {
		ids, err = e.users.UserIDsByQuery(ctx, filter)
	} else {
		ids, err = e.users.AllUserIDs(ctx)
	}
	if err != nil {
		return nil, err
	}

	e.announce(ctx, d.SourceChatID, filter, len(ids))

	e.logger.Info("broadcast_started", "run_id", runID, "recipients", len(ids), "filter", filter)
	report := e.fanOut(ctx, runID, ids, func(ctx context.Context, uid int64) error {
		_, err := e.sender.CopyMessage(ctx, uid, e.archiveChatID, archived.MessageID)
		return err
	})
	report.Filter = filter
	report.Title = title
	report.ArchiveMessageID = archived.MessageID
	e.logger.Info("broadcast_done", "run_id", runID, "sent", report.Sent, "failed", report.Failed)
	return report, nil
}

// DirectSend delivers a plain text message to an explicit recipient
// set, with the same pacing and outcome accounting as a broadcast.
func (e *Engine) DirectSend(ctx context.Context, ids []int64, text string) *Report {
	runID := newRunID()
	e.logger.Info("direct_send_started", "run_id", runID, "recipients", len(ids))
	report := e.fanOut(ctx, runID, ids, func(ctx context.Context, uid int64) error {
		return e.sender.SendText(ctx, uid, text)
	})
	e.logger.Info("direct_send_done", "run_id", runID, "sent", report.Sent, "failed", report.Failed)
	return report
}

// announce reports the resolved recipient scope back to the chat the
// draft came from. A lost status message never blocks the run.
func (e *Engine) announce(ctx context.Context, chatID int64, filter string, recipients int) {
	if chatID == 0 {
		return
	}
	scope := fmt.Sprintf("усім активним користувачам (%d)", recipients)
	if filter != "" {
		scope = fmt.Sprintf("за фільтром '%s' (знайдено %d)", filter, recipients)
	}
	if err := e.sender.SendText(ctx, chatID, "Починаю розсилку "+scope+". Будь ласка, зачекайте."); err != nil {
		e.logger.Warn("broadcast_announce_failed", "chat_id", chatID, "error", err.Error())
	}
}

// fanOut sends sequentially with a fixed inter-send delay. The delay is
// a rate-limit control and must be preserved even if sends were ever
// parallelized. A failed recipient is counted, never deleted.
func (e *Engine) fanOut(ctx context.Context, runID string, ids []int64, send func(context.Context, int64) error) *Report {
	report := &Report{RunID: runID, Recipients: len(ids)}
	for _, uid := range ids {
		if ctx.Err() != nil {
			break
		}
		e.sleep(ctx, e.sendDelay)
		err := send(ctx, uid)
		switch Classify(err) {
		case OutcomeSent:
			report.Sent++
		case OutcomeBlocked:
			report.Failed++
			report.Blocked++
			e.logger.Warn("broadcast_recipient_blocked", "run_id", runID, "user_id", uid)
		case OutcomeRateLimited:
			report.Failed++
			e.logger.Warn("broadcast_send_rate_limited", "run_id", runID, "user_id", uid, "error", err.Error())
		default:
			report.Failed++
			e.logger.Error("broadcast_send_failed", "run_id", runID, "user_id", uid, "error", err.Error())
		}
	}
	return report
}

// ExtractFilter interprets a leading space-delimited token on the first
// line as a recipient filter when more text follows it. Content that is
// itself a command is never treated as carrying a filter. The remainder
// (filter stripped) is returned for title re-derivation.
func ExtractFilter(raw string) (filter, rest string, ok bool) {
	if raw == "" || strings.HasPrefix(raw, "/") {
		return "", "", false
	}
	line := raw
	tail := ""
	if i := strings.IndexByte(raw, '\n'); i >= 0 {
		line = raw[:i]
		tail = raw[i:]
	}
	token, remainder, found := strings.Cut(line, " ")
	token = strings.TrimSpace(token)
	remainder = strings.TrimSpace(remainder)
	if !found || token == "" || remainder == "" {
		return "", "", false
	}
	return token, remainder + tail, true
}

func newRunID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
