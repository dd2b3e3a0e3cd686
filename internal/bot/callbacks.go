package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/oomaltseva/telegram-bot/internal/catalog"
	"github.com/oomaltseva/telegram-bot/internal/convstate"
	"github.com/oomaltseva/telegram-bot/internal/telegram"
)

func (b *Bot) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) error {
	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbSaveToFolder):
		folderID, err := trailingID(data, cbSaveToFolder)
		if err != nil {
			return b.answerCallback(ctx, cb, "", false)
		}
		if !b.isAdmin(cb.From.ID) || b.state.Phase(cb.From.ID) != convstate.PhaseAwaitingFolder {
			return b.answerCallback(ctx, cb, "", false)
		}
		return b.finishBroadcastFlow(ctx, cb, folderID)

	case strings.HasPrefix(data, cbAdminFolderPrefix):
		folderID, err := trailingID(data, cbAdminFolderPrefix)
		if err != nil {
			return b.answerCallback(ctx, cb, "", false)
		}
		return b.showFolderContents(ctx, cb, folderID, true)

	case strings.HasPrefix(data, cbFolderPrefix):
		folderID, err := trailingID(data, cbFolderPrefix)
		if err != nil {
			return b.answerCallback(ctx, cb, "", false)
		}
		return b.showFolderContents(ctx, cb, folderID, b.isAdmin(cb.From.ID))

	case strings.HasPrefix(data, cbViewPostPrefix):
		postID, err := trailingID(data, cbViewPostPrefix)
		if err != nil {
			return b.answerCallback(ctx, cb, "", false)
		}
		return b.handleViewPost(ctx, cb, postID)

	case strings.HasPrefix(data, cbDeletePostPrefix):
		postID, err := trailingID(data, cbDeletePostPrefix)
		if err != nil {
			return b.answerCallback(ctx, cb, "", false)
		}
		return b.handleDeletePostButton(ctx, cb, postID)

	case data == cbBackToMenu:
		return b.handleBackToMenu(ctx, cb)

	case data == cbIgnore:
		return b.answerCallback(ctx, cb, "", false)
	}
	return b.answerCallback(ctx, cb, "", false)
}

func (b *Bot) answerCallback(ctx context.Context, cb *telegram.CallbackQuery, text string, alert bool) error {
	return b.api.AnswerCallbackQuery(ctx, telegram.AnswerCallbackQueryRequest{
		CallbackQueryID: cb.ID,
		Text:            text,
		ShowAlert:       alert,
	})
}

// showFolderContents rewrites the menu message into the folder's post
// list. Admins additionally get per-post delete buttons.
func (b *Bot) showFolderContents(ctx context.Context, cb *telegram.CallbackQuery, folderID uint, isAdmin bool) error {
	if cb.Message == nil {
		return b.answerCallback(ctx, cb, "", false)
	}

	posts, err := b.library.PostsByFolder(ctx, folderID)
	if err != nil {
		return b.answerCallback(ctx, cb, "Помилка відображення.", false)
	}

	text := folderContentText
	markup := postsKeyboard(posts, isAdmin)
	if len(posts) == 0 {
		text = folderEmptyText
		markup = telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{backToMenuRow()}}
	}

	if err := b.api.EditMessageText(ctx, telegram.EditMessageTextRequest{
		ChatID:      cb.Message.Chat.ID,
		MessageID:   cb.Message.MessageID,
		Text:        text,
		ParseMode:   "HTML",
		ReplyMarkup: markup,
	}); err != nil {
		b.logger.Error("folder_render_failed", "folder_id", folderID, "error", err.Error())
		return b.answerCallback(ctx, cb, "Помилка відображення.", false)
	}
	return b.answerCallback(ctx, cb, "", false)
}

// handleViewPost re-delivers the archived post into the clicker's
// private chat. A vanished archive message degrades to an alert.
func (b *Bot) handleViewPost(ctx context.Context, cb *telegram.CallbackQuery, postID uint) error {
	if _, err := b.library.ViewPost(ctx, cb.From.ID, postID); err != nil {
		if errors.Is(err, catalog.ErrArchiveNotConfigured) {
			return b.answerCallback(ctx, cb, "Помилка: Канал-архів не налаштований.", true)
		}
		return b.answerCallback(ctx, cb,
			"Помилка: Не вдалося завантажити цей пост. Можливо, його було видалено з архіву.", true)
	}
	return b.answerCallback(ctx, cb, "", false)
}

func (b *Bot) handleDeletePostButton(ctx context.Context, cb *telegram.CallbackQuery, postID uint) error {
	if !b.isAdmin(cb.From.ID) {
		return b.answerCallback(ctx, cb, "У вас немає прав.", true)
	}

	folderID, err := b.library.DeletePostByID(ctx, postID)
	if err != nil {
		return b.answerCallback(ctx, cb, "❌ Помилка: Пост не знайдено в базі.", true)
	}
	if err := b.answerCallback(ctx, cb, "✅ Пост видалено з меню!", false); err != nil {
		b.logger.Warn("callback_answer_failed", "error", err.Error())
	}
	return b.refreshFolderView(ctx, cb, folderID)
}

// refreshFolderView re-renders the folder listing after a delete.
func (b *Bot) refreshFolderView(ctx context.Context, cb *telegram.CallbackQuery, folderID uint) error {
	if cb.Message == nil {
		return nil
	}
	posts, err := b.library.PostsByFolder(ctx, folderID)
	if err != nil {
		return err
	}
	text := folderContentText
	markup := postsKeyboard(posts, true)
	if len(posts) == 0 {
		text = folderEmptyText
		markup = telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{backToMenuRow()}}
	}
	return b.api.EditMessageText(ctx, telegram.EditMessageTextRequest{
		ChatID:      cb.Message.Chat.ID,
		MessageID:   cb.Message.MessageID,
		Text:        text,
		ParseMode:   "HTML",
		ReplyMarkup: markup,
	})
}

func (b *Bot) handleBackToMenu(ctx context.Context, cb *telegram.CallbackQuery) error {
	if cb.Message == nil {
		return b.answerCallback(ctx, cb, "", false)
	}
	markup, err := b.folderKeyboard(ctx, false, b.isAdmin(cb.From.ID))
	if err != nil {
		return b.answerCallback(ctx, cb, "Помилка відображення.", false)
	}
	if err := b.api.EditMessageText(ctx, telegram.EditMessageTextRequest{
		ChatID:      cb.Message.Chat.ID,
		MessageID:   cb.Message.MessageID,
		Text:        mainMenuText,
		ParseMode:   "Markdown",
		ReplyMarkup: markup,
	}); err != nil {
		b.logger.Error("menu_render_failed", "error", err.Error())
	}
	return b.answerCallback(ctx, cb, "", false)
}

func trailingID(data, prefix string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(data, prefix), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(n), nil
}
