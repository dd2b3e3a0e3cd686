// Package catalog manages the folder and post library and serves
// catalog reads back to chats.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oomaltseva/telegram-bot/db/models"
)

var (
	// ErrArchiveNotConfigured means no archive chat id was configured;
	// post viewing refuses to run instead of copying from chat 0.
	ErrArchiveNotConfigured = errors.New("archive chat is not configured")

	// ErrArchiveUnavailable means the post row exists but its archived
	// message can no longer be copied (deleted from the archive chat, or
	// the archive chat itself is gone). The catalog row is left intact.
	ErrArchiveUnavailable = errors.New("archived content is unavailable")
)

// Store is the slice of the persistence gateway the catalog needs.
type Store interface {
	CreateFolder(ctx context.Context, name string) error
	Folders(ctx context.Context) ([]models.Folder, error)
	FolderByID(ctx context.Context, id uint) (*models.Folder, error)
	DeleteFolderByName(ctx context.Context, name string) error
	PostsByFolder(ctx context.Context, folderID uint) ([]models.Post, error)
	PostByID(ctx context.Context, id uint) (*models.Post, error)
	DeletePostByTitle(ctx context.Context, title string) error
	DeletePostByID(ctx context.Context, id uint) (uint, error)
}

// Copier re-delivers an archived message into a chat.
type Copier interface {
	CopyMessage(ctx context.Context, chatID, fromChatID, messageID int64) (int64, error)
}

type Catalog struct {
	store         Store
	copier        Copier
	archiveChatID int64
	logger        *slog.Logger
}

type Options struct {
	Store         Store
	Copier        Copier
	ArchiveChatID int64
	Logger        *slog.Logger
}

func New(opts Options) (*Catalog, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if opts.Copier == nil {
		return nil, fmt.Errorf("copier is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		store:         opts.Store,
		copier:        opts.Copier,
		archiveChatID: opts.ArchiveChatID,
		logger:        logger,
	}, nil
}

func (c *Catalog) CreateFolder(ctx context.Context, name string) error {
	return c.store.CreateFolder(ctx, name)
}

func (c *Catalog) Folders(ctx context.Context) ([]models.Folder, error) {
	return c.store.Folders(ctx)
}

func (c *Catalog) FolderByID(ctx context.Context, id uint) (*models.Folder, error) {
	return c.store.FolderByID(ctx, id)
}

// DeleteFolder removes the folder and every post in it.
func (c *Catalog) DeleteFolder(ctx context.Context, name string) error {
	return c.store.DeleteFolderByName(ctx, name)
}

// PostsByFolder returns the folder's posts newest-first.
func (c *Catalog) PostsByFolder(ctx context.Context, folderID uint) ([]models.Post, error) {
	return c.store.PostsByFolder(ctx, folderID)
}

func (c *Catalog) DeletePostByTitle(ctx context.Context, title string) error {
	return c.store.DeletePostByTitle(ctx, title)
}

// DeletePostByID removes one post and returns the folder it belonged
// to, so the caller can re-render that folder's listing.
func (c *Catalog) DeletePostByID(ctx context.Context, id uint) (uint, error) {
	return c.store.DeletePostByID(ctx, id)
}

// ViewPost copies the post's archived message into chatID. A missing
// archive message is recoverable: the caller gets ErrArchiveUnavailable
// and the bot stays responsive.
func (c *Catalog) ViewPost(ctx context.Context, chatID int64, postID uint) (*models.Post, error) {
	if c.archiveChatID == 0 {
		return nil, ErrArchiveNotConfigured
	}
	post, err := c.store.PostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if _, err := c.copier.CopyMessage(ctx, chatID, c.archiveChatID, post.ArchiveMessageID); err != nil {
		c.logger.Warn("post_copy_failed",
			"post_id", post.ID,
			"archive_message_id", post.ArchiveMessageID,
			"error", err.Error())
		return post, fmt.Errorf("%w: %v", ErrArchiveUnavailable, err)
	}
	return post, nil
}
