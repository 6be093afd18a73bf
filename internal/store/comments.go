package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/sujalbistaa/yatube/internal/errors"
	"github.com/sujalbistaa/yatube/internal/models"
)

// CreateComment adds a comment by authorID to postID.
func (s *Store) CreateComment(ctx context.Context, postID, authorID uint, text string) (*models.Comment, error) {
	comment := models.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Text:     text,
		Created:  s.now(),
	}
	err := s.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Post{}, postID).Error; err != nil {
			return notFoundOr(err, "post")
		}
		if err := tx.First(&models.User{}, authorID).Error; err != nil {
			return notFoundOr(err, "user")
		}
		return tx.Omit(clause.Associations).Create(&comment).Error
	})
	if err != nil {
		return nil, wrapTx(err, "failed to create comment")
	}
	if err := s.DB(ctx).Preload("Author").First(&comment, comment.ID).Error; err != nil {
		return nil, notFoundOr(err, "comment")
	}
	return &comment, nil
}

// CommentsForPost returns a post's comments, oldest first.
func (s *Store) CommentsForPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := s.DB(ctx).Preload("Author").
		Where("post_id = ?", postID).
		Order("created asc, id asc").
		Find(&comments).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to list comments", err)
	}
	return comments, nil
}

func (s *Store) CommentCount(ctx context.Context, postID uint) (int64, error) {
	var n int64
	if err := s.DB(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrDatabase, "failed to count comments", err)
	}
	return n, nil
}

func (s *Store) attachCommentCounts(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	var rows []struct {
		PostID uint
		N      int64
	}
	err := s.DB(ctx).Model(&models.Comment{}).
		Select("post_id, count(*) as n").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to count comments", err)
	}

	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.PostID] = r.N
	}
	for i := range posts {
		posts[i].CommentCount = counts[posts[i].ID]
	}
	return nil
}
