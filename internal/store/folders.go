package store

import (
	"context"
	"errors"
	"strings"

	"github.com/oomaltseva/telegram-bot/db/models"
	"gorm.io/gorm"
)

var ErrFolderNotFound = errors.New("folder not found")

// CreateFolder reports ErrFolderExists on a name collision so callers
// can surface the specific condition instead of a generic failure.
func (s *Store) CreateFolder(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("folder name is required")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Folder{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrFolderExists
		}
		return tx.Create(&models.Folder{Name: name}).Error
	})
}

func (s *Store) Folders(ctx context.Context) ([]models.Folder, error) {
	var folders []models.Folder
	if err := s.db.WithContext(ctx).Order("id").Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

func (s *Store) FolderByID(ctx context.Context, id uint) (*models.Folder, error) {
	var f models.Folder
	err := s.db.WithContext(ctx).First(&f, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFolderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// DeleteFolderByName removes the folder and every post referencing it
// inside one transaction: posts first, then the folder, or neither.
func (s *Store) DeleteFolderByName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var f models.Folder
		err := tx.First(&f, "name = ?", name).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFolderNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Where("folder_id = ?", f.ID).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Folder{}, "id = ?", f.ID).Error; err != nil {
			return err
		}
		s.logger.Info("folder_deleted", "folder_id", f.ID, "name", f.Name)
		return nil
	})
}
