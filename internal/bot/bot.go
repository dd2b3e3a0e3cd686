// Package bot routes inbound updates to the registration, catalog,
// support-relay and broadcast handlers.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oomaltseva/telegram-bot/db/models"
	"github.com/oomaltseva/telegram-bot/internal/broadcast"
	"github.com/oomaltseva/telegram-bot/internal/command"
	"github.com/oomaltseva/telegram-bot/internal/convstate"
	"github.com/oomaltseva/telegram-bot/internal/telegram"
)

// API is the slice of the platform client the bot calls.
type API interface {
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) (*telegram.Message, error)
	SendText(ctx context.Context, chatID int64, text string) error
	CopyMessage(ctx context.Context, chatID, fromChatID, messageID int64) (int64, error)
	ForwardMessage(ctx context.Context, chatID, fromChatID, messageID int64) (*telegram.Message, error)
	EditMessageText(ctx context.Context, req telegram.EditMessageTextRequest) error
	AnswerCallbackQuery(ctx context.Context, req telegram.AnswerCallbackQueryRequest) error
	SendDocument(ctx context.Context, req telegram.SendDocumentRequest) error
}

// Directory is the user-registry slice of the persistence gateway.
type Directory interface {
	UpsertUser(ctx context.Context, u models.User) error
	UserByID(ctx context.Context, id int64) (*models.User, error)
	AllUsers(ctx context.Context) ([]models.User, error)
	UsersByQuery(ctx context.Context, query string) ([]models.User, error)
	UsersByIdentifiers(ctx context.Context, identifiers []string) ([]models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	DeleteUsersByIdentifiers(ctx context.Context, identifiers []string) (int64, error)
}

// Library is the folder/post catalog surface.
type Library interface {
	CreateFolder(ctx context.Context, name string) error
	Folders(ctx context.Context) ([]models.Folder, error)
	DeleteFolder(ctx context.Context, name string) error
	PostsByFolder(ctx context.Context, folderID uint) ([]models.Post, error)
	DeletePostByTitle(ctx context.Context, title string) error
	DeletePostByID(ctx context.Context, id uint) (uint, error)
	ViewPost(ctx context.Context, chatID int64, postID uint) (*models.Post, error)
}

// TicketDesk tracks unanswered user messages.
type TicketDesk interface {
	Open(ctx context.Context, userID int64, userName, excerpt string) error
	CloseMostRecentOpen(ctx context.Context, userID, adminID int64) error
	ListOpen(ctx context.Context) ([]models.SupportTicket, error)
}

// TargetResolver maps admin-supplied tokens and replied-to relays back
// to user ids.
type TargetResolver interface {
	Resolve(ctx context.Context, token string) (int64, error)
	FromReply(msg *telegram.Message) (int64, bool)
}

// Broadcaster runs the archive-then-fan-out pipeline.
type Broadcaster interface {
	Run(ctx context.Context, d convstate.Draft, folderID uint) (*broadcast.Report, error)
	DirectSend(ctx context.Context, ids []int64, text string) *broadcast.Report
}

type Bot struct {
	api           API
	users         Directory
	library       Library
	tickets       TicketDesk
	resolver      TargetResolver
	broadcaster   Broadcaster
	state         *convstate.Store
	admins        map[int64]bool
	adminList     []int64
	adminTitles   map[int64]string
	archiveChatID int64
	logger        *slog.Logger
}

type Options struct {
	API           API
	Users         Directory
	Library       Library
	Tickets       TicketDesk
	Resolver      TargetResolver
	Broadcaster   Broadcaster
	State         *convstate.Store
	Admins        []int64
	AdminTitles   map[int64]string
	ArchiveChatID int64
	Logger        *slog.Logger
}

func New(opts Options) (*Bot, error) {
	if opts.API == nil {
		return nil, fmt.Errorf("api client is required")
	}
	if opts.Users == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	if opts.Library == nil {
		return nil, fmt.Errorf("library is required")
	}
	if opts.Tickets == nil {
		return nil, fmt.Errorf("ticket desk is required")
	}
	if opts.Resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if opts.Broadcaster == nil {
		return nil, fmt.Errorf("broadcaster is required")
	}
	state := opts.State
	if state == nil {
		state = convstate.NewStore()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	admins := make(map[int64]bool, len(opts.Admins))
	for _, id := range opts.Admins {
		admins[id] = true
	}
	return &Bot{
		api:           opts.API,
		users:         opts.Users,
		library:       opts.Library,
		tickets:       opts.Tickets,
		resolver:      opts.Resolver,
		broadcaster:   opts.Broadcaster,
		state:         state,
		admins:        admins,
		adminList:     opts.Admins,
		adminTitles:   opts.AdminTitles,
		archiveChatID: opts.ArchiveChatID,
		logger:        logger,
	}, nil
}

func (b *Bot) isAdmin(id int64) bool { return b.admins[id] }

// HandleUpdate dispatches one update. Handler errors are logged, never
// propagated: a failing handler must not stall the poll loop.
func (b *Bot) HandleUpdate(ctx context.Context, u telegram.Update) {
	var err error
	switch {
	case u.CallbackQuery != nil:
		err = b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		err = b.handleMessage(ctx, u.Message)
	}
	if err != nil {
		b.logger.Error("update_failed", "update_id", u.UpdateID, "error", err.Error())
	}
}

// handleMessage applies the routing priority: commands first, then the
// active broadcast flow, then contact capture, admin replies, keyboard
// buttons and finally the user relay.
func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) error {
	if msg.From == nil {
		return nil
	}
	from := msg.From

	if strings.HasPrefix(strings.TrimSpace(msg.Text), "/") {
		cmd, err := command.Parse(msg.Text)
		var usage *command.UsageError
		switch {
		case err == nil:
			return b.handleCommand(ctx, msg, cmd)
		case errors.As(err, &usage):
			if b.isAdmin(from.ID) {
				return b.api.SendText(ctx, msg.Chat.ID, usage.Usage)
			}
			return nil
		default:
			// Slash-prefixed text is still legitimate broadcast content
			// while the flow is collecting it.
			if b.isAdmin(from.ID) && b.state.Phase(from.ID) == convstate.PhaseAwaitingContent {
				return b.captureBroadcastContent(ctx, msg)
			}
			// Unknown commands are dropped for everyone else.
			return nil
		}
	}

	if b.isAdmin(from.ID) {
		switch b.state.Phase(from.ID) {
		case convstate.PhaseAwaitingContent:
			return b.captureBroadcastContent(ctx, msg)
		case convstate.PhaseAwaitingFolder:
			// Folder choice arrives as a callback; stray messages wait.
			return nil
		}
	}

	if msg.Contact != nil {
		return b.handleContact(ctx, msg)
	}

	if b.isAdmin(from.ID) && msg.ReplyToMessage != nil {
		return b.handleAdminReply(ctx, msg)
	}

	switch {
	case msg.Text == menuButtonLabel:
		return b.sendMainMenu(ctx, msg.Chat.ID, b.isAdmin(from.ID))
	case msg.Text == adminPanelButtonLabel && b.isAdmin(from.ID):
		return b.sendMarkdown(ctx, msg.Chat.ID, adminPanelText)
	}

	if !b.isAdmin(from.ID) {
		return b.relayToAdmins(ctx, msg)
	}
	return nil
}

func (b *Bot) handleCommand(ctx context.Context, msg *telegram.Message, cmd *command.Command) error {
	adminOnly := func(handler func() error) error {
		if !b.isAdmin(msg.From.ID) {
			return b.api.SendText(ctx, msg.Chat.ID, noAdminRightsText)
		}
		return handler()
	}

	switch cmd.Name {
	case command.Start:
		return b.handleStart(ctx, msg)
	case command.Menu:
		return b.sendMainMenu(ctx, msg.Chat.ID, b.isAdmin(msg.From.ID))
	case command.Broadcast:
		if !b.isAdmin(msg.From.ID) {
			return b.api.SendText(ctx, msg.Chat.ID, noAccessText)
		}
		return b.startBroadcastFlow(ctx, msg)
	case command.Cancel:
		if !b.isAdmin(msg.From.ID) {
			return nil
		}
		return b.cancelBroadcastFlow(ctx, msg)
	case command.CheckDB:
		return adminOnly(func() error { return b.handleCheckDB(ctx, msg) })
	case command.CheckTickets:
		return adminOnly(func() error { return b.handleCheckTickets(ctx, msg) })
	case command.DeleteUser:
		return adminOnly(func() error { return b.handleDeleteUser(ctx, msg, cmd.Identifier) })
	case command.AddFolder:
		return adminOnly(func() error { return b.handleAddFolder(ctx, msg, cmd.FolderName) })
	case command.DeleteFolder:
		return adminOnly(func() error { return b.handleDeleteFolder(ctx, msg, cmd.FolderName) })
	case command.DeletePost:
		return adminOnly(func() error { return b.handleDeletePost(ctx, msg, cmd.PostTitle) })
	case command.FindUser:
		return adminOnly(func() error { return b.handleFindUser(ctx, msg, cmd.Query) })
	case command.ExportCSV:
		return adminOnly(func() error { return b.handleExportCSV(ctx, msg) })
	case command.SendToUser:
		return adminOnly(func() error { return b.handleSendToUser(ctx, msg, cmd.Identifier, cmd.Text) })
	case command.SendSegment:
		return adminOnly(func() error { return b.handleSendSegment(ctx, msg, cmd.Identifiers, cmd.Text) })
	case command.DeleteSegment:
		return adminOnly(func() error { return b.handleDeleteSegment(ctx, msg, cmd.Identifiers) })
	}
	return nil
}

func (b *Bot) adminSignature(adminID int64) string {
	if title, ok := b.adminTitles[adminID]; ok && title != "" {
		return title
	}
	return "адміністратора"
}
