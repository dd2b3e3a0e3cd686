package store

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrFolderExists = errors.New("folder already exists")
)

// Store owns all row-level access to the four durable tables. No
// transaction spans tables except the folder cascade delete.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

type Options struct {
	DB     *gorm.DB
	Logger *slog.Logger
}

func New(opts Options) (*Store, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("gorm db is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: opts.DB, logger: logger}, nil
}
