// Package listing builds the paginated, newest-first post listings: the home
// page, a group, an author profile and a follower's feed.
package listing

import (
	"context"

	"github.com/sujalbistaa/yatube/internal/follow"
	"github.com/sujalbistaa/yatube/internal/models"
	"github.com/sujalbistaa/yatube/internal/store"
)

// Service answers listing queries.
type Service struct {
	store     *store.Store
	graph     *follow.Graph
	paginator Paginator
}

func NewService(s *store.Store, g *follow.Graph, pageSize int) *Service {
	return &Service{store: s, graph: g, paginator: NewPaginator(pageSize)}
}

// AllPosts lists every post.
func (s *Service) AllPosts(ctx context.Context, page int) (*Page, error) {
	return s.list(ctx, nil, page)
}

// PostsByGroup lists the posts of the group with slug. An unknown slug is
// NotFound.
func (s *Service) PostsByGroup(ctx context.Context, slug string, page int) (*models.Group, *Page, error) {
	group, err := s.store.GroupBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.list(ctx, store.ByGroup(group.ID), page)
	if err != nil {
		return nil, nil, err
	}
	return group, p, nil
}

// PostsByAuthor lists the posts of username. An unknown user is NotFound.
func (s *Service) PostsByAuthor(ctx context.Context, username string, page int) (*models.User, *Page, error) {
	author, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.list(ctx, store.ByAuthor(author.ID), page)
	if err != nil {
		return nil, nil, err
	}
	return author, p, nil
}

// Feed lists posts by the authors userID follows. Following nobody yields an
// empty page.
func (s *Service) Feed(ctx context.Context, userID uint, page int) (*Page, error) {
	return s.list(ctx, s.graph.FollowedAuthors(userID), page)
}

func (s *Service) list(ctx context.Context, filter store.PostFilter, page int) (*Page, error) {
	total, err := s.store.CountPosts(ctx, filter)
	if err != nil {
		return nil, err
	}

	// pages past the end are empty; checking first keeps the offset in range
	var items []models.Post
	if total > 0 && page <= s.paginator.NumPages(total) {
		offset, limit := s.paginator.Window(page)
		items, err = s.store.FindPosts(ctx, filter, offset, limit)
		if err != nil {
			return nil, err
		}
	}
	return s.paginator.page(page, total, items), nil
}
