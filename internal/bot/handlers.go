package bot

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/oomaltseva/telegram-bot/db/models"
	"github.com/oomaltseva/telegram-bot/internal/content"
	"github.com/oomaltseva/telegram-bot/internal/store"
	"github.com/oomaltseva/telegram-bot/internal/telegram"
)

func (b *Bot) sendMarkdown(ctx context.Context, chatID int64, text string) error {
	_, err := b.api.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "Markdown",
	})
	return err
}

func (b *Bot) sendHTML(ctx context.Context, chatID int64, text string) error {
	_, err := b.api.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	return err
}

// handleStart registers the sender and greets them by role. A repeat
// /start never erases the stored phone.
func (b *Bot) handleStart(ctx context.Context, msg *telegram.Message) error {
	from := msg.From

	var phone *string
	if existing, err := b.users.UserByID(ctx, from.ID); err == nil {
		phone = existing.Phone
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	fullName := from.DisplayName()
	if fullName == "" {
		fullName = "Невідоме ім'я"
	}
	if err := b.users.UpsertUser(ctx, models.User{
		ID:       from.ID,
		Username: optional(from.Username),
		FullName: fullName,
	}); err != nil {
		return err
	}
	b.logger.Info("user_registered", "user_id", from.ID, "has_phone", phone != nil)

	switch {
	case b.isAdmin(from.ID):
		greeting := fmt.Sprintf("Привіт, Адміністраторе %s! 👋", from.FirstName)
		keyboard := any(adminKeyboard())
		if phone == nil {
			greeting += "\n\n(Адмін, не забудь також надіслати свій контакт для тестування та збереження в БД)"
			keyboard = adminRegistrationKeyboard()
		}
		_, err := b.api.SendMessage(ctx, telegram.SendMessageRequest{
			ChatID:      msg.Chat.ID,
			Text:        greeting,
			ReplyMarkup: keyboard,
		})
		return err
	case phone != nil:
		_, err := b.api.SendMessage(ctx, telegram.SendMessageRequest{
			ChatID:      msg.Chat.ID,
			Text:        welcomeText,
			ReplyMarkup: menuOnlyKeyboard(),
		})
		return err
	default:
		name := from.FirstName
		if name == "" {
			name = "друже"
		}
		_, err := b.api.SendMessage(ctx, telegram.SendMessageRequest{
			ChatID: msg.Chat.ID,
			Text: fmt.Sprintf("Привіт, %s! 🎉 Ви приєднались до бота.\n"+
				"Будь ласка, **натисніть кнопку нижче**, щоб поділитися номером телефону для повної реєстрації.", name),
			ParseMode:   "Markdown",
			ReplyMarkup: registrationKeyboard(),
		})
		return err
	}
}

func (b *Bot) sendMainMenu(ctx context.Context, chatID int64, isAdmin bool) error {
	markup, err := b.folderKeyboard(ctx, false, isAdmin)
	if err != nil {
		return err
	}
	_, err = b.api.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:      chatID,
		Text:        mainMenuText,
		ParseMode:   "Markdown",
		ReplyMarkup: markup,
	})
	return err
}

// handleContact stores the shared phone and completes registration.
func (b *Bot) handleContact(ctx context.Context, msg *telegram.Message) error {
	from := msg.From
	phone := msg.Contact.PhoneNumber

	fullName := from.DisplayName()
	if fullName == "" {
		fullName = "Невідоме ім'я"
	}
	if err := b.users.UpsertUser(ctx, models.User{
		ID:       from.ID,
		Username: optional(from.Username),
		FullName: fullName,
		Phone:    &phone,
	}); err != nil {
		return err
	}
	b.logger.Info("phone_registered", "user_id", from.ID)

	keyboard := any(menuOnlyKeyboard())
	if b.isAdmin(from.ID) {
		keyboard = adminKeyboard()
	}
	_, err := b.api.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:      msg.Chat.ID,
		Text:        welcomeText,
		ReplyMarkup: keyboard,
	})
	return err
}

// relayToAdmins forwards a user's message to every administrator with
// an identifying caption, opens a ticket and acknowledges the user.
func (b *Bot) relayToAdmins(ctx context.Context, msg *telegram.Message) error {
	from := msg.From
	name := from.DisplayName()
	if name == "" {
		name = "Невідомий користувач"
	}

	phoneDisplay := "НЕ НАДАНО"
	if u, err := b.users.UserByID(ctx, from.ID); err == nil && u.Phone != nil {
		phoneDisplay = *u.Phone
	}

	excerpt := msg.Text
	if excerpt == "" {
		excerpt = "[" + content.Detect(msg).Kind.String() + "]"
	}
	if err := b.tickets.Open(ctx, from.ID, name, excerpt); err != nil {
		b.logger.Error("relay_ticket_failed", "user_id", from.ID, "error", err.Error())
	}

	caption := fmt.Sprintf(
		"📩 <b>НОВЕ ПОВІДОМЛЕННЯ ВІД КОРИСТУВАЧА</b>\n"+
			"Ім'я: <b>%s</b>\n"+
			"📞 Телефон: <code>%s</code>\n"+
			"🔑 ID: <code>%d</code>\n"+
			"--- Щоб відповісти, <b>натисніть 'Відповісти'</b> на це повідомлення. ---",
		html.EscapeString(name), html.EscapeString(phoneDisplay), from.ID)

	for _, adminID := range b.adminList {
		if _, err := b.api.ForwardMessage(ctx, adminID, msg.Chat.ID, msg.MessageID); err != nil {
			b.logger.Error("relay_forward_failed", "admin_id", adminID, "user_id", from.ID, "error", err.Error())
			continue
		}
		if err := b.sendHTML(ctx, adminID, caption); err != nil {
			b.logger.Error("relay_caption_failed", "admin_id", adminID, "user_id", from.ID, "error", err.Error())
		}
	}

	return b.api.SendText(ctx, msg.Chat.ID, relayAckText)
}

// handleAdminReply delivers an admin's reply back to the original user
// and closes that user's newest open ticket.
func (b *Bot) handleAdminReply(ctx context.Context, msg *telegram.Message) error {
	adminID := msg.From.ID

	targetID, ok := b.resolver.FromReply(msg.ReplyToMessage)
	if !ok {
		return b.sendHTML(ctx, msg.Chat.ID, replyTargetMissingText)
	}

	signature := b.adminSignature(adminID)
	var sendErr error
	if msg.Text != "" {
		sendErr = b.sendHTML(ctx, targetID, fmt.Sprintf(
			"👨‍💻 <b>Відповідь від %s:</b>\n\n%s", signature, html.EscapeString(msg.Text)))
	} else {
		if _, sendErr = b.api.CopyMessage(ctx, targetID, msg.Chat.ID, msg.MessageID); sendErr == nil {
			sendErr = b.api.SendText(ctx, targetID, fmt.Sprintf("(Відповідь від %s)", signature))
		}
	}

	if sendErr != nil {
		if telegram.IsForbidden(sendErr) {
			return b.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(
				"❌ Помилка: Користувач з ID <code>%d</code> заблокував бота.", targetID))
		}
		return b.api.SendText(ctx, msg.Chat.ID, fmt.Sprintf("❌ Помилка при відправці: %v", sendErr))
	}

	if err := b.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(
		"✅ Відповідь успішно надіслана користувачу з ID: <code>%d</code>", targetID)); err != nil {
		return err
	}
	return b.tickets.CloseMostRecentOpen(ctx, targetID, adminID)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
