package store

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/sujalbistaa/yatube/internal/errors"
	"github.com/sujalbistaa/yatube/internal/logger"
	"github.com/sujalbistaa/yatube/internal/models"
)

// PostOrder is the default ordering of every post read: newest first, later
// inserts first on equal timestamps.
const PostOrder = "posts.pub_date desc, posts.id desc"

// PostFilter narrows a post query. A nil filter selects every post.
type PostFilter func(*gorm.DB) *gorm.DB

// ByGroup selects posts of one group.
func ByGroup(groupID uint) PostFilter {
	return func(q *gorm.DB) *gorm.DB { return q.Where("posts.group_id = ?", groupID) }
}

// ByAuthor selects posts written by one user.
func ByAuthor(authorID uint) PostFilter {
	return func(q *gorm.DB) *gorm.DB { return q.Where("posts.author_id = ?", authorID) }
}

// PostInput carries the fields of a new post.
type PostInput struct {
	AuthorID uint
	Text     string
	GroupID  *uint
	Image    string
}

// PostUpdate carries the editable fields of a post. A nil Image keeps the
// current one; a nil GroupID clears the group.
type PostUpdate struct {
	Text    string
	GroupID *uint
	Image   *string
}

func (s *Store) CreatePost(ctx context.Context, in PostInput) (*models.Post, error) {
	post := models.Post{
		Text:     in.Text,
		PubDate:  s.now(),
		AuthorID: in.AuthorID,
		GroupID:  in.GroupID,
		Image:    in.Image,
	}
	err := s.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.User{}, in.AuthorID).Error; err != nil {
			return notFoundOr(err, "user")
		}
		if err := checkGroup(tx, in.GroupID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(&post).Error
	})
	if err != nil {
		return nil, wrapTx(err, "failed to create post")
	}
	logger.Log.Debug("post created",
		zap.Uint("id", post.ID),
		zap.Uint("author", post.AuthorID),
		zap.String("preview", post.Preview()))
	return s.PostByID(ctx, post.ID)
}

// checkGroup rejects a group reference that points nowhere.
func checkGroup(tx *gorm.DB, groupID *uint) error {
	if groupID == nil {
		return nil
	}
	var n int64
	if err := tx.Model(&models.Group{}).Where("id = ?", *groupID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperrors.Validation(map[string]string{"group": "select a valid group"})
	}
	return nil
}

// PostByID loads a post with its author, group and comment count.
func (s *Store) PostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := s.DB(ctx).Preload("Author").Preload("Group").First(&post, id).Error
	if err != nil {
		return nil, notFoundOr(err, "post")
	}
	count, err := s.CommentCount(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	post.CommentCount = count
	return &post, nil
}

// UpdatePost rewrites text, group and optionally image. PubDate and author
// never change.
func (s *Store) UpdatePost(ctx context.Context, id uint, in PostUpdate) (*models.Post, error) {
	err := s.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Post{}, id).Error; err != nil {
			return notFoundOr(err, "post")
		}
		if err := checkGroup(tx, in.GroupID); err != nil {
			return err
		}
		changes := map[string]interface{}{
			"text":     in.Text,
			"group_id": in.GroupID,
		}
		if in.Image != nil {
			changes["image"] = *in.Image
		}
		return tx.Model(&models.Post{}).Where("id = ?", id).Updates(changes).Error
	})
	if err != nil {
		return nil, wrapTx(err, "failed to update post")
	}
	return s.PostByID(ctx, id)
}

// DeletePost removes a post and its comments.
func (s *Store) DeletePost(ctx context.Context, id uint) error {
	err := s.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Post{}, id).Error; err != nil {
			return notFoundOr(err, "post")
		}
		return deleteRows(tx, models.PostsTable, []uint{id})
	})
	return wrapTx(err, "failed to delete post")
}

// CountPosts counts the posts selected by filter.
func (s *Store) CountPosts(ctx context.Context, filter PostFilter) (int64, error) {
	var n int64
	q := s.DB(ctx).Model(&models.Post{})
	if filter != nil {
		q = q.Scopes(filter)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrDatabase, "failed to count posts", err)
	}
	return n, nil
}

// FindPosts returns posts selected by filter in PostOrder, skipping offset
// rows and returning at most limit.
func (s *Store) FindPosts(ctx context.Context, filter PostFilter, offset, limit int) ([]models.Post, error) {
	posts := []models.Post{}
	q := s.DB(ctx).Preload("Author").Preload("Group").Order(PostOrder)
	if filter != nil {
		q = q.Scopes(filter)
	}
	if err := q.Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to list posts", err)
	}
	if err := s.attachCommentCounts(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}
