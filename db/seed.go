package db

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/oomaltseva/telegram-bot/db/models"
	"gorm.io/gorm"
)

// DefaultFolderNames is the seed list applied at first boot when the
// folders table is empty.
var DefaultFolderNames = []string{
	"📘 Корисності",
	"🎓 Іспит Школи Новачка",
	"🎥 Відеоогляди",
	"🎧 Подкасти з психологами",
}

// SeedFolders inserts names when the folders table is empty. A non-empty
// table is left untouched so operator edits survive restarts.
func SeedFolders(gdb *gorm.DB, names []string, logger *slog.Logger) error {
	if gdb == nil {
		return fmt.Errorf("nil gorm db")
	}
	if len(names) == 0 {
		names = DefaultFolderNames
	}

	var count int64
	if err := gdb.Model(&models.Folder{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if logger != nil {
		logger.Info("folders_seed_started", "count", len(names))
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if err := gdb.Create(&models.Folder{Name: name}).Error; err != nil {
			return fmt.Errorf("seed folder %q: %w", name, err)
		}
	}
	if logger != nil {
		logger.Info("folders_seed_done")
	}
	return nil
}
