package db

import (
	"fmt"

	"github.com/oomaltseva/telegram-bot/db/models"
	"gorm.io/gorm"
)

func AutoMigrate(gdb *gorm.DB) error {
	if gdb == nil {
		return fmt.Errorf("nil gorm db")
	}
	return gdb.AutoMigrate(
		&models.User{},
		&models.Folder{},
		&models.Post{},
		&models.SupportTicket{},
	)
}
