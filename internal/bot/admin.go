package bot

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"html"
	"strconv"
	"unicode/utf8"

	"github.com/oomaltseva/telegram-bot/internal/content"
	"github.com/oomaltseva/telegram-bot/internal/store"
	"github.com/oomaltseva/telegram-bot/internal/telegram"
)

// messageLimit is the platform cap on message length; reports are cut
// below it with a "N more" trailer.
const messageLimit = 4096

func (b *Bot) handleCheckDB(ctx context.Context, msg *telegram.Message) error {
	users, err := b.users.AllUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return b.api.SendText(ctx, msg.Chat.ID, "База даних порожня. Записів не знайдено.")
	}

	report := fmt.Sprintf("**Звіт по базі даних `users`:**\n\nУСЬОГО ЗАПИСІВ: **%d**\n============================\n", len(users))
	for i, u := range users {
		username := "НЕМАЄ"
		if u.Username != nil {
			username = telegram.EscapeMarkdown(*u.Username)
		}
		phone := "НЕМАЄ"
		if u.Phone != nil {
			phone = *u.Phone
		}
		if utf8.RuneCountInString(report)+300 > messageLimit && i < len(users)-1 {
			report += fmt.Sprintf("... (та ще %d записів)", len(users)-i)
			break
		}
		report += fmt.Sprintf(
			"🔑 ID: `%d`\n👤 Ім'я: **%s**\n📞 Телефон: `%s`\n🆔 Username: @%s\n----------------------------\n",
			u.ID, telegram.EscapeMarkdown(u.FullName), phone, username)
	}
	return b.sendMarkdown(ctx, msg.Chat.ID, report)
}

func (b *Bot) handleCheckTickets(ctx context.Context, msg *telegram.Message) error {
	open, err := b.tickets.ListOpen(ctx)
	if err != nil {
		return err
	}
	if len(open) == 0 {
		return b.api.SendText(ctx, msg.Chat.ID, "✅ Чудова робота! Усі тікети закриті. Повідомлень без відповіді немає.")
	}

	report := fmt.Sprintf("📢 <b>ВІДКРИТІ ТІКЕТИ (%d):</b>\n\n", len(open))
	for _, t := range open {
		report += fmt.Sprintf(
			"👤 <b>%s</b> (ID: <code>%d</code>)\n<i>%s</i>\n💬 %s\n--------------------\n",
			html.EscapeString(t.UserName),
			t.UserID,
			t.CreatedAt.Format("2006-01-02 15:04"),
			html.EscapeString(content.Truncate(t.Excerpt, 100)+"..."))
	}
	return b.sendHTML(ctx, msg.Chat.ID, report)
}

func (b *Bot) handleDeleteUser(ctx context.Context, msg *telegram.Message, identifier string) error {
	targetID, err := b.resolver.Resolve(ctx, identifier)
	if err != nil {
		return b.api.SendText(ctx, msg.Chat.ID, fmt.Sprintf(
			"❌ Помилка: Користувача з ID або номером телефону '%s' не знайдено.", identifier))
	}
	if err := b.users.DeleteUser(ctx, targetID); err != nil {
		return b.api.SendText(ctx, msg.Chat.ID, fmt.Sprintf("Помилка під час видалення: %v", err))
	}
	b.logger.Info("user_deleted", "user_id", targetID, "admin_id", msg.From.ID)
	return b.api.SendText(ctx, msg.Chat.ID, fmt.Sprintf(
		"✅ Користувача (ID: %d, Запит: %s) успішно видалено з бази даних.", targetID, identifier))
}

func (b *Bot) handleAddFolder(ctx context.Context, msg *telegram.Message, name string) error {
	err := b.library.CreateFolder(ctx, name)
	if errors.Is(err, store.ErrFolderExists) {
		return b.api.SendText(ctx, msg.Chat.ID, fmt.Sprintf("❌ Помилка: Папка з назвою '%s' вже існує.", name))
	}
	if err != nil {
		return err
	}
	return b.api.SendText(ctx, msg.Chat.ID, fmt.Sprintf("✅ Папку '%s' успішно створено!", name))
}

func (b *Bot) handleDeleteFolder(ctx context.Context, msg *telegram.Message, name string) error {
	err := b.library.DeleteFolder(ctx, name)
	if errors.Is(err, store.ErrFolderNotFound) {
		return b.api.SendText(ctx, msg.Chat.ID, fmt.Sprintf("❌ Помилка: Папку з назвою '%s' не знайдено.", name))
	}
	if err != nil {
		return err
	}
	return b.api.SendText(ctx, msg.Chat.ID, fmt.Sprintf("✅ Папку '%s' та всі її пости успішно видалено.", name))
}

func (b *Bot) handleDeletePost(ctx context.Context, msg *telegram.Message, title string) error {
	err := b.library.DeletePostByTitle(ctx, title)
	if errors.Is(err, store.ErrPostNotFound) {
		return b.api.SendText(ctx, msg.Chat.ID, fmt.Sprintf("❌ Помилка: Пост з назвою '%s' не знайдено.", title))
	}
	if err != nil {
		return err
	}
	return b.api.SendText(ctx, msg.Chat.ID, fmt.Sprintf("✅ Пост '%s' успішно видалено з 'Меню'.", title))
}

func (b *Bot) handleFindUser(ctx context.Context, msg *telegram.Message, query string) error {
	users, err := b.users.UsersByQuery(ctx, query)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return b.api.SendText(ctx, msg.Chat.ID, fmt.Sprintf("Користувачів, які містять '%s', не знайдено.", query))
	}

	report := fmt.Sprintf("**Знайдено %d користувачів за запитом '%s':**\n\n", len(users), query)
	for i, u := range users {
		username := "no_username"
		if u.Username != nil {
			username = telegram.EscapeMarkdown(*u.Username)
		}
		phone := "немає"
		if u.Phone != nil {
			phone = *u.Phone
		}
		entry := fmt.Sprintf("👤 **%s** (%s)\n📞 Телефон: `%s`\n🔑 ID: `%d`\n",
			telegram.EscapeMarkdown(u.FullName), username, phone, u.ID)
		if utf8.RuneCountInString(report)+utf8.RuneCountInString(entry) > 4000 && i < len(users)-1 {
			report += fmt.Sprintf("... (та ще %d записів)", len(users)-i)
			break
		}
		report += entry + "--------------------------\n"
	}
	return b.sendMarkdown(ctx, msg.Chat.ID, report)
}

func (b *Bot) handleExportCSV(ctx context.Context, msg *telegram.Message) error {
	if err := b.api.SendText(ctx, msg.Chat.ID, "Починаю експорт даних..."); err != nil {
		return err
	}
	users, err := b.users.AllUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return b.api.SendText(ctx, msg.Chat.ID, "База даних порожня. Немає чого експортувати.")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	if err := w.Write([]string{"ID", "Username", "Full Name", "Phone Number"}); err != nil {
		return err
	}
	for _, u := range users {
		username := ""
		if u.Username != nil {
			username = *u.Username
		}
		phone := ""
		if u.Phone != nil {
			phone = *u.Phone
		}
		if err := w.Write([]string{strconv.FormatInt(u.ID, 10), username, u.FullName, phone}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if err := b.api.SendDocument(ctx, telegram.SendDocumentRequest{
		ChatID:   msg.Chat.ID,
		FileName: "users_export.csv",
		Data:     buf.Bytes(),
		Caption:  fmt.Sprintf("✅ Експортовано %d записів.", len(users)),
	}); err != nil {
		return b.api.SendText(ctx, msg.Chat.ID, fmt.Sprintf("❌ Помилка при відправці файлу: %v", err))
	}
	b.logger.Info("users_exported", "count", len(users), "admin_id", msg.From.ID)
	return nil
}

func (b *Bot) handleSendToUser(ctx context.Context, msg *telegram.Message, identifier, text string) error {
	targetID, err := b.resolver.Resolve(ctx, identifier)
	if err != nil {
		return b.api.SendText(ctx, msg.Chat.ID, fmt.Sprintf(
			"❌ Помилка: Користувача з ID або номером телефону '%s' не знайдено в базі даних.", identifier))
	}

	if err := b.api.SendText(ctx, targetID, text); err != nil {
		if telegram.IsForbidden(err) {
			return b.sendMarkdown(ctx, msg.Chat.ID, fmt.Sprintf(
				"Помилка: Користувач з ID `%d` **заблокував бота**. Він не був видалений з бази даних.", targetID))
		}
		return b.api.SendText(ctx, msg.Chat.ID, fmt.Sprintf("Помилка при відправці користувачу `%d`: %v", targetID, err))
	}
	return b.sendMarkdown(ctx, msg.Chat.ID, fmt.Sprintf(
		"Повідомлення **успішно** надіслано користувачу з ID: `%d` (знайдено за '%s')", targetID, identifier))
}

func (b *Bot) handleSendSegment(ctx context.Context, msg *telegram.Message, identifiers []string, text string) error {
	users, err := b.users.UsersByIdentifiers(ctx, identifiers)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return b.api.SendText(ctx, msg.Chat.ID, fmt.Sprintf(
			"Не знайдено жодного користувача за вказаними %d ідентифікаторами.", len(identifiers)))
	}

	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	if err := b.sendMarkdown(ctx, msg.Chat.ID, fmt.Sprintf(
		"Починаю цільову розсилку для **%d** користувачів. Будь ласка, зачекайте.", len(ids))); err != nil {
		return err
	}

	report := b.broadcaster.DirectSend(ctx, ids, text)
	result := fmt.Sprintf("Цільова розсилка завершена.\nУспіх: %d, помилки: %d\n", report.Sent, report.Failed)
	if report.Failed > 0 {
		result += "Зверніть увагу: користувачі, які заблокували бота, залишені у базі даних."
	}
	return b.api.SendText(ctx, msg.Chat.ID, result)
}

func (b *Bot) handleDeleteSegment(ctx context.Context, msg *telegram.Message, identifiers []string) error {
	deleted, err := b.users.DeleteUsersByIdentifiers(ctx, identifiers)
	if err != nil {
		return b.api.SendText(ctx, msg.Chat.ID, fmt.Sprintf("❌ Сталася помилка: %v", err))
	}
	if deleted == 0 {
		return b.api.SendText(ctx, msg.Chat.ID, "Не знайдено жодного користувача за вказаними ідентифікаторами.")
	}
	b.logger.Info("segment_deleted", "count", deleted, "admin_id", msg.From.ID)
	return b.sendMarkdown(ctx, msg.Chat.ID, fmt.Sprintf(
		"✅ Успішно видалено **%d** користувач(а/ів) з бази даних.", deleted))
}
