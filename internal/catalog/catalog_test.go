package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/oomaltseva/telegram-bot/db/models"
	"github.com/oomaltseva/telegram-bot/internal/store"
	"github.com/oomaltseva/telegram-bot/internal/telegram"
)

type fakeCatalogStore struct {
	posts map[uint]*models.Post
}

func (f *fakeCatalogStore) CreateFolder(context.Context, string) error       { return nil }
func (f *fakeCatalogStore) Folders(context.Context) ([]models.Folder, error) { return nil, nil }
func (f *fakeCatalogStore) FolderByID(context.Context, uint) (*models.Folder, error) {
	return nil, store.ErrFolderNotFound
}
func (f *fakeCatalogStore) DeleteFolderByName(context.Context, string) error { return nil }
func (f *fakeCatalogStore) PostsByFolder(context.Context, uint) ([]models.Post, error) {
	return nil, nil
}
func (f *fakeCatalogStore) DeletePostByTitle(context.Context, string) error { return nil }
func (f *fakeCatalogStore) DeletePostByID(context.Context, uint) (uint, error) {
	return 0, store.ErrPostNotFound
}

func (f *fakeCatalogStore) PostByID(_ context.Context, id uint) (*models.Post, error) {
	if p, ok := f.posts[id]; ok {
		return p, nil
	}
	return nil, store.ErrPostNotFound
}

type fakeCopier struct {
	err    error
	copies []int64
}

func (f *fakeCopier) CopyMessage(_ context.Context, chatID, _, messageID int64) (int64, error) {
	f.copies = append(f.copies, messageID)
	if f.err != nil {
		return 0, f.err
	}
	return chatID + 1, nil
}

func newTestCatalog(t *testing.T, fs *fakeCatalogStore, cp *fakeCopier) *Catalog {
	t.Helper()
	c, err := New(Options{Store: fs, Copier: cp, ArchiveChatID: -200})
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	return c
}

func TestViewPost_CopiesArchivedMessage(t *testing.T) {
	fs := &fakeCatalogStore{posts: map[uint]*models.Post{
		4: {ID: 4, FolderID: 2, Title: "Promo", ArchiveMessageID: 777},
	}}
	cp := &fakeCopier{}
	c := newTestCatalog(t, fs, cp)

	post, err := c.ViewPost(context.Background(), 55, 4)
	if err != nil {
		t.Fatalf("ViewPost: %v", err)
	}
	if post.Title != "Promo" {
		t.Fatalf("post = %+v", post)
	}
	if len(cp.copies) != 1 || cp.copies[0] != 777 {
		t.Fatalf("copied message ids = %v, want [777]", cp.copies)
	}
}

func TestViewPost_MissingArchiveIsRecoverable(t *testing.T) {
	fs := &fakeCatalogStore{posts: map[uint]*models.Post{
		4: {ID: 4, ArchiveMessageID: 777},
	}}
	cp := &fakeCopier{err: &telegram.APIError{Code: 400, Description: "message to copy not found"}}
	c := newTestCatalog(t, fs, cp)

	post, err := c.ViewPost(context.Background(), 55, 4)
	if !errors.Is(err, ErrArchiveUnavailable) {
		t.Fatalf("err = %v, want ErrArchiveUnavailable", err)
	}
	if post == nil || post.ID != 4 {
		t.Fatalf("post = %+v, want the row back for context", post)
	}
}

func TestViewPost_RefusesWithoutArchiveChat(t *testing.T) {
	fs := &fakeCatalogStore{posts: map[uint]*models.Post{
		4: {ID: 4, ArchiveMessageID: 777},
	}}
	cp := &fakeCopier{}
	c, err := New(Options{Store: fs, Copier: cp})
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}

	if _, err := c.ViewPost(context.Background(), 55, 4); !errors.Is(err, ErrArchiveNotConfigured) {
		t.Fatalf("err = %v, want ErrArchiveNotConfigured", err)
	}
	if len(cp.copies) != 0 {
		t.Fatalf("copy attempts against unset archive chat: %v", cp.copies)
	}
}

func TestViewPost_UnknownPost(t *testing.T) {
	c := newTestCatalog(t, &fakeCatalogStore{posts: map[uint]*models.Post{}}, &fakeCopier{})

	if _, err := c.ViewPost(context.Background(), 55, 99); !errors.Is(err, store.ErrPostNotFound) {
		t.Fatalf("err = %v, want ErrPostNotFound", err)
	}
}
