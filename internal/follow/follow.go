// Package follow keeps the directed follower -> author edges.
package follow

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/sujalbistaa/yatube/internal/errors"
	"github.com/sujalbistaa/yatube/internal/logger"
	"github.com/sujalbistaa/yatube/internal/models"
	"github.com/sujalbistaa/yatube/internal/store"
)

// Graph reads and writes follow edges through the store.
type Graph struct {
	store *store.Store
}

func NewGraph(s *store.Store) *Graph {
	return &Graph{store: s}
}

// Follow makes userID follow authorID. Following yourself is rejected.
// Following someone twice is a no-op.
func (g *Graph) Follow(ctx context.Context, userID, authorID uint) error {
	if userID == authorID {
		return apperrors.New(apperrors.ErrSelfFollow, "you cannot follow yourself")
	}
	edge := models.Follow{UserID: userID, AuthorID: authorID}
	err := g.store.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "author_id"}},
			DoNothing: true,
		}).
		Omit(clause.Associations).
		Create(&edge).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to follow", err)
	}
	logger.Log.Debug("follow", zap.Uint("user", userID), zap.Uint("author", authorID))
	return nil
}

// Unfollow removes the edge if it exists.
func (g *Graph) Unfollow(ctx context.Context, userID, authorID uint) error {
	err := g.store.DB(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to unfollow", err)
	}
	return nil
}

func (g *Graph) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	var n int64
	err := g.store.DB(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&n).Error
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrDatabase, "failed to read follow", err)
	}
	return n > 0, nil
}

// FollowedAuthors selects posts written by anyone userID follows.
func (g *Graph) FollowedAuthors(userID uint) store.PostFilter {
	return func(q *gorm.DB) *gorm.DB {
		followed := q.Session(&gorm.Session{NewDB: true}).
			Model(&models.Follow{}).
			Select("author_id").
			Where("user_id = ?", userID)
		return q.Where("posts.author_id IN (?)", followed)
	}
}
