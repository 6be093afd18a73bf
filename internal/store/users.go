package store

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/sujalbistaa/yatube/internal/errors"
	"github.com/sujalbistaa/yatube/internal/logger"
	"github.com/sujalbistaa/yatube/internal/models"
)

// CreateUser inserts a user. Usernames are unique.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	user := models.User{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    s.now(),
	}
	if err := s.DB(ctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.New(apperrors.ErrConflict, "username already taken")
		}
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to create user", err)
	}
	logger.Log.Debug("user created", zap.Uint("id", user.ID), zap.String("username", username))
	return &user, nil
}

func (s *Store) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.DB(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &user, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.DB(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &user, nil
}

// DeleteUser removes a user together with their posts, the comments on those
// posts, their own comments and every follow edge touching them.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	err := s.DB(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return notFoundOr(err, "user")
		}
		return deleteRows(tx, models.UsersTable, []uint{id})
	})
	return wrapTx(err, "failed to delete user")
}

// wrapTx keeps AppErrors raised inside a transaction as they are.
func wrapTx(err error, message string) error {
	if err == nil {
		return nil
	}
	if apperrors.CodeOf(err) != apperrors.ErrInternal {
		return err
	}
	return apperrors.Wrap(apperrors.ErrDatabase, message, err)
}
