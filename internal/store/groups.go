package store

import (
	"context"

	"gorm.io/gorm"

	apperrors "github.com/sujalbistaa/yatube/internal/errors"
	"github.com/sujalbistaa/yatube/internal/models"
)

// GroupInput carries the editable fields of a group.
type GroupInput struct {
	Title       string
	Slug        string
	Description string
}

func (s *Store) CreateGroup(ctx context.Context, in GroupInput) (*models.Group, error) {
	group := models.Group{Title: in.Title, Slug: in.Slug, Description: in.Description}
	if err := s.DB(ctx).Create(&group).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.New(apperrors.ErrConflict, "group slug already taken")
		}
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to create group", err)
	}
	return &group, nil
}

func (s *Store) GroupBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	if err := s.DB(ctx).Where("slug = ?", slug).First(&group).Error; err != nil {
		return nil, notFoundOr(err, "group")
	}
	return &group, nil
}

// ListGroups returns all groups ordered by title.
func (s *Store) ListGroups(ctx context.Context) ([]models.Group, error) {
	groups := []models.Group{}
	if err := s.DB(ctx).Order("title asc, id asc").Find(&groups).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to list groups", err)
	}
	return groups, nil
}

// UpdateGroup rewrites the group identified by slug.
func (s *Store) UpdateGroup(ctx context.Context, slug string, in GroupInput) (*models.Group, error) {
	var group models.Group
	err := s.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("slug = ?", slug).First(&group).Error; err != nil {
			return notFoundOr(err, "group")
		}
		group.Title = in.Title
		group.Slug = in.Slug
		group.Description = in.Description
		if err := tx.Save(&group).Error; err != nil {
			if isUniqueViolation(err) {
				return apperrors.New(apperrors.ErrConflict, "group slug already taken")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, wrapTx(err, "failed to update group")
	}
	return &group, nil
}

// DeleteGroup removes a group. Its posts stay and lose their group.
func (s *Store) DeleteGroup(ctx context.Context, slug string) error {
	err := s.DB(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if err := tx.Where("slug = ?", slug).First(&group).Error; err != nil {
			return notFoundOr(err, "group")
		}
		return deleteRows(tx, models.GroupsTable, []uint{group.ID})
	})
	return wrapTx(err, "failed to delete group")
}
