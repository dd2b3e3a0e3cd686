package bot

import (
	"context"
	"fmt"

	"github.com/oomaltseva/telegram-bot/db/models"
	"github.com/oomaltseva/telegram-bot/internal/telegram"
)

// Callback data prefixes. The numeric tail is a folder or post id.
const (
	cbFolderPrefix      = "folder_"
	cbAdminFolderPrefix = "admin_folder_"
	cbSaveToFolder      = "save_to_folder_"
	cbViewPostPrefix    = "view_post_"
	cbDeletePostPrefix  = "del_post_"
	cbBackToMenu        = "back_to_menu"
	cbIgnore            = "ignore"
)

func registrationKeyboard() telegram.ReplyKeyboardMarkup {
	return telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: contactButtonLabel, RequestContact: true}},
			{{Text: menuButtonLabel}},
		},
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
}

func menuOnlyKeyboard() telegram.ReplyKeyboardMarkup {
	return telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: menuButtonLabel}},
		},
		ResizeKeyboard: true,
	}
}

func adminKeyboard() telegram.ReplyKeyboardMarkup {
	return telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: menuButtonLabel}},
			{{Text: adminPanelButtonLabel}},
		},
		ResizeKeyboard: true,
	}
}

func adminRegistrationKeyboard() telegram.ReplyKeyboardMarkup {
	return telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: contactButtonLabel, RequestContact: true}},
			{{Text: menuButtonLabel}},
			{{Text: adminPanelButtonLabel}},
		},
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
}

// folderKeyboard renders one button per folder. The admin menu variant
// routes through a prefix that unlocks per-post delete buttons; the
// broadcast variant appends the "do not save" choice.
func (b *Bot) folderKeyboard(ctx context.Context, forBroadcast, adminMenu bool) (telegram.InlineKeyboardMarkup, error) {
	folders, err := b.library.Folders(ctx)
	if err != nil {
		return telegram.InlineKeyboardMarkup{}, err
	}

	prefix := cbFolderPrefix
	if forBroadcast {
		prefix = cbSaveToFolder
	} else if adminMenu {
		prefix = cbAdminFolderPrefix
	}

	var rows [][]telegram.InlineKeyboardButton
	for _, f := range folders {
		rows = append(rows, []telegram.InlineKeyboardButton{{
			Text:         f.Name,
			CallbackData: fmt.Sprintf("%s%d", prefix, f.ID),
		}})
	}
	if forBroadcast {
		rows = append(rows, []telegram.InlineKeyboardButton{{
			Text:         "❌ Не зберігати (Тільки розсилка)",
			CallbackData: cbSaveToFolder + "0",
		}})
	}
	return telegram.InlineKeyboardMarkup{InlineKeyboard: rows}, nil
}

func postsKeyboard(posts []models.Post, isAdmin bool) telegram.InlineKeyboardMarkup {
	var rows [][]telegram.InlineKeyboardButton
	for _, p := range posts {
		row := []telegram.InlineKeyboardButton{{
			Text:         p.Title,
			CallbackData: fmt.Sprintf("%s%d", cbViewPostPrefix, p.ID),
		}}
		if isAdmin {
			row = append(row, telegram.InlineKeyboardButton{
				Text:         "❌ Видалити",
				CallbackData: fmt.Sprintf("%s%d", cbDeletePostPrefix, p.ID),
			})
		}
		rows = append(rows, row)
	}
	rows = append(rows, backToMenuRow())
	return telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func backToMenuRow() []telegram.InlineKeyboardButton {
	return []telegram.InlineKeyboardButton{{Text: "⬅️ До Головного меню", CallbackData: cbBackToMenu}}
}
