package store

import (
	"context"
	"errors"
	"strings"

	"github.com/oomaltseva/telegram-bot/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertUser inserts or refreshes a user row. A nil phone never erases a
// stored one: the update keeps the existing value via COALESCE.
func (s *Store) UpsertUser(ctx context.Context, u models.User) error {
	if u.ID == 0 {
		return errors.New("user id is required")
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"username":  u.Username,
			"full_name": u.FullName,
			"phone":     gorm.Expr("COALESCE(excluded.phone, users.phone)"),
		}),
	}).Create(&u).Error
}

func (s *Store) UserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserIDByPhoneSuffix finds any user whose stored phone ends with
// suffix. Collisions resolve by row order; first match wins.
func (s *Store) UserIDByPhoneSuffix(ctx context.Context, suffix string) (int64, error) {
	suffix = strings.TrimSpace(suffix)
	if suffix == "" {
		return 0, ErrNotFound
	}
	var u models.User
	err := s.db.WithContext(ctx).
		Where("phone LIKE ?", "%"+suffix).
		Order("id").
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

func (s *Store) AllUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) AllUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Order("id").Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// UsersByQuery matches the substring against name, handle and phone.
func (s *Store) UsersByQuery(ctx context.Context, query string) ([]models.User, error) {
	pattern := "%" + query + "%"
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("full_name LIKE ? OR username LIKE ? OR phone LIKE ?", pattern, pattern, pattern).
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UserIDsByQuery(ctx context.Context, query string) ([]int64, error) {
	users, err := s.UsersByQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// UsersByIdentifiers resolves an ad hoc segment: each identifier is
// either a user id rendered as text or an exact stored phone number.
func (s *Store) UsersByIdentifiers(ctx context.Context, identifiers []string) ([]models.User, error) {
	if len(identifiers) == 0 {
		return nil, nil
	}
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("CAST(id AS TEXT) IN ? OR phone IN ?", identifiers, identifiers).
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id).Error
}

func (s *Store) DeleteUsersByIdentifiers(ctx context.Context, identifiers []string) (int64, error) {
	if len(identifiers) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("CAST(id AS TEXT) IN ? OR phone IN ?", identifiers, identifiers).
		Delete(&models.User{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
