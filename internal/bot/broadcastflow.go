package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/oomaltseva/telegram-bot/internal/broadcast"
	"github.com/oomaltseva/telegram-bot/internal/content"
	"github.com/oomaltseva/telegram-bot/internal/convstate"
	"github.com/oomaltseva/telegram-bot/internal/telegram"
)

func (b *Bot) startBroadcastFlow(ctx context.Context, msg *telegram.Message) error {
	if b.archiveChatID == 0 {
		return b.sendMarkdown(ctx, msg.Chat.ID, archiveUnsetText)
	}
	b.state.Begin(msg.From.ID)
	b.logger.Info("broadcast_flow_started", "admin_id", msg.From.ID)
	return b.sendMarkdown(ctx, msg.Chat.ID, broadcastPromptText)
}

func (b *Bot) cancelBroadcastFlow(ctx context.Context, msg *telegram.Message) error {
	if b.state.Phase(msg.From.ID) == convstate.PhaseNone {
		return nil
	}
	b.state.Clear(msg.From.ID)
	b.logger.Info("broadcast_flow_cancelled", "admin_id", msg.From.ID)
	return b.api.SendText(ctx, msg.Chat.ID, "Дію скасовано.")
}

// captureBroadcastContent takes the admin's next message as the draft.
// Content outside the allow-list is rejected and the flow stays put.
func (b *Bot) captureBroadcastContent(ctx context.Context, msg *telegram.Message) error {
	c := content.Detect(msg)
	if !c.Kind.Broadcastable() {
		return b.api.SendText(ctx, msg.Chat.ID, unsupportedContentText)
	}

	b.state.SetDraft(msg.From.ID, convstate.Draft{
		SourceChatID:    msg.Chat.ID,
		SourceMessageID: msg.MessageID,
		Title:           c.Title,
		RawText:         c.FilterText,
	})

	markup, err := b.folderKeyboard(ctx, true, false)
	if err != nil {
		return err
	}
	_, err = b.api.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:      msg.Chat.ID,
		Text:        chooseFolderText,
		ReplyMarkup: markup,
	})
	return err
}

// finishBroadcastFlow consumes the folder choice callback, runs the
// pipeline and reports the aggregate result into the admin chat.
func (b *Bot) finishBroadcastFlow(ctx context.Context, cb *telegram.CallbackQuery, folderID uint) error {
	if err := b.api.AnswerCallbackQuery(ctx, telegram.AnswerCallbackQueryRequest{CallbackQueryID: cb.ID}); err != nil {
		b.logger.Warn("callback_answer_failed", "error", err.Error())
	}
	if cb.Message == nil {
		return nil
	}
	chatID := cb.Message.Chat.ID

	draft, ok := b.state.TakeDraft(cb.From.ID)
	if !ok {
		return b.api.EditMessageText(ctx, telegram.EditMessageTextRequest{
			ChatID:    chatID,
			MessageID: cb.Message.MessageID,
			Text:      draftExpiredText,
		})
	}

	progress := "Пост не буде збережено. Починаю розсилку..."
	if folderID != 0 {
		progress = "Пост збережено у папку. Починаю розсилку..."
	}
	if err := b.api.EditMessageText(ctx, telegram.EditMessageTextRequest{
		ChatID:    chatID,
		MessageID: cb.Message.MessageID,
		Text:      progress,
	}); err != nil {
		b.logger.Warn("progress_edit_failed", "error", err.Error())
	}

	report, err := b.broadcaster.Run(ctx, draft, folderID)
	if err != nil {
		text := fmt.Sprintf("❌ Помилка розсилки: %v", err)
		switch {
		case errors.Is(err, broadcast.ErrArchivePublish):
			text = archivePublishFailedText
		case errors.Is(err, broadcast.ErrPostPersist):
			text = postSaveFailedText
		}
		return b.sendMarkdown(ctx, chatID, text)
	}

	result := fmt.Sprintf("Розсилка завершена.\nУспіх: %d, помилки: %d", report.Sent, report.Failed)
	if report.Failed > 0 {
		result += "\nЗверніть увагу: усі користувачі, які заблокували бота, збережені в базі даних."
	}
	return b.api.SendText(ctx, chatID, result)
}
