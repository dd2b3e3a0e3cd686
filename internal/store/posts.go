package store

import (
	"context"
	"errors"
	"strings"

	"github.com/oomaltseva/telegram-bot/db/models"
	"gorm.io/gorm"
)

var ErrPostNotFound = errors.New("post not found")

func (s *Store) CreatePost(ctx context.Context, folderID uint, title string, archiveMessageID int64) error {
	if folderID == 0 {
		return errors.New("folder id is required")
	}
	post := models.Post{
		FolderID:         folderID,
		Title:            title,
		ArchiveMessageID: archiveMessageID,
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return err
	}
	s.logger.Info("post_saved", "post_id", post.ID, "folder_id", folderID, "archive_message_id", archiveMessageID)
	return nil
}

// PostsByFolder lists a folder's posts newest-first.
func (s *Store) PostsByFolder(ctx context.Context, folderID uint) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("folder_id = ?", folderID).
		Order("created_at DESC, id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Store) PostByID(ctx context.Context, id uint) (*models.Post, error) {
	var p models.Post
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) DeletePostByTitle(ctx context.Context, title string) error {
	title = strings.TrimSpace(title)
	res := s.db.WithContext(ctx).Where("title = ?", title).Delete(&models.Post{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// DeletePostByID returns the owning folder id so the caller can refresh
// that folder's view.
func (s *Store) DeletePostByID(ctx context.Context, id uint) (uint, error) {
	var folderID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Post
		err := tx.First(&p, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		if err != nil {
			return err
		}
		folderID = p.FolderID
		return tx.Delete(&models.Post{}, "id = ?", id).Error
	})
	if err != nil {
		return 0, err
	}
	return folderID, nil
}
