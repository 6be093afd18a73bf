package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sujalbistaa/yatube/internal/db"
	apperrors "github.com/sujalbistaa/yatube/internal/errors"
	"github.com/sujalbistaa/yatube/internal/logger"
	"github.com/sujalbistaa/yatube/internal/models"
)

// tickingClock returns a later instant on every call.
func tickingClock() func() time.Time {
	t := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func newTestStore(t *testing.T) *Store {
	return New(db.NewTestDB(t), WithClock(tickingClock()))
}

func mustUser(t *testing.T, s *Store, name string) *models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), name, "hash")
	require.NoError(t, err)
	return u
}

func mustGroup(t *testing.T, s *Store, slug string) *models.Group {
	t.Helper()
	g, err := s.CreateGroup(context.Background(), GroupInput{
		Title:       "Test group",
		Slug:        slug,
		Description: "Test description",
	})
	require.NoError(t, err)
	return g
}

func mustPost(t *testing.T, s *Store, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	in := PostInput{AuthorID: author.ID, Text: text}
	if group != nil {
		in.GroupID = &group.ID
	}
	p, err := s.CreatePost(context.Background(), in)
	require.NoError(t, err)
	return p
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	s := newTestStore(t)
	mustUser(t, s, "author")

	_, err := s.CreateUser(context.Background(), "author", "other")
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestUserLookups(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "author")

	byName, err := s.UserByUsername(ctx, "author")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byID, err := s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "author", byID.Username)

	_, err = s.UserByUsername(ctx, "ghost")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestGroups(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	g := mustGroup(t, s, "test_slug")

	_, err := s.CreateGroup(ctx, GroupInput{Title: "Dup", Slug: "test_slug"})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	found, err := s.GroupBySlug(ctx, "test_slug")
	require.NoError(t, err)
	assert.Equal(t, g.ID, found.ID)

	updated, err := s.UpdateGroup(ctx, "test_slug", GroupInput{Title: "Renamed", Slug: "renamed", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	_, err = s.GroupBySlug(ctx, "test_slug")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	groups, err := s.ListGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	_, err = s.UpdateGroup(ctx, "missing", GroupInput{Title: "x", Slug: "x"})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestCreatePost(t *testing.T) {
	s := newTestStore(t)
	author := mustUser(t, s, "author")
	group := mustGroup(t, s, "test_slug")

	p := mustPost(t, s, author, group, "Test post for checking")

	assert.NotZero(t, p.ID)
	assert.Equal(t, "author", p.Author.Username)
	require.NotNil(t, p.Group)
	assert.Equal(t, "test_slug", p.Group.Slug)
	assert.False(t, p.PubDate.IsZero())
	assert.Zero(t, p.CommentCount)
}

func TestCreatePost_InvalidGroup(t *testing.T) {
	s := newTestStore(t)
	author := mustUser(t, s, "author")
	missing := uint(404)

	_, err := s.CreatePost(context.Background(), PostInput{AuthorID: author.ID, Text: "x", GroupID: &missing})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	n, _ := s.CountPosts(context.Background(), nil)
	assert.Zero(t, n)
}

func TestCreatePost_LogsPreview(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := logger.Log
	logger.Log = zap.New(core)
	t.Cleanup(func() { logger.Log = prev })

	s := newTestStore(t)
	author := mustUser(t, s, "author")
	mustPost(t, s, author, nil, "a rather long first post")

	created := logs.FilterMessage("post created").All()
	require.Len(t, created, 1)
	assert.Equal(t, "a rather long f", created[0].ContextMap()["preview"])
}

func TestUpdatePost_KeepsPubDateAndAuthor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	author := mustUser(t, s, "author")
	group := mustGroup(t, s, "test_slug")
	p := mustPost(t, s, author, group, "original")

	image := "posts/new.gif"
	updated, err := s.UpdatePost(ctx, p.ID, PostUpdate{Text: "changed", Image: &image})
	require.NoError(t, err)

	assert.Equal(t, "changed", updated.Text)
	assert.Nil(t, updated.Group)
	assert.Equal(t, image, updated.Image)
	assert.True(t, p.PubDate.Equal(updated.PubDate))
	assert.Equal(t, author.ID, updated.Author.ID)

	again, err := s.UpdatePost(ctx, p.ID, PostUpdate{Text: "again", GroupID: &group.ID})
	require.NoError(t, err)
	assert.Equal(t, image, again.Image)
	require.NotNil(t, again.Group)

	_, err = s.UpdatePost(ctx, 9999, PostUpdate{Text: "x"})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestFindPosts_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	author := mustUser(t, s, "author")
	first := mustPost(t, s, author, nil, "first")
	second := mustPost(t, s, author, nil, "second")
	third := mustPost(t, s, author, nil, "third")

	posts, err := s.FindPosts(context.Background(), nil, 0, 10)
	require.NoError(t, err)

	require.Len(t, posts, 3)
	assert.Equal(t, []uint{third.ID, second.ID, first.ID}, []uint{posts[0].ID, posts[1].ID, posts[2].ID})
}

func TestFindPosts_EqualTimestampsUseInsertOrder(t *testing.T) {
	frozen := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(db.NewTestDB(t), WithClock(func() time.Time { return frozen }))
	author := mustUser(t, s, "author")
	older := mustPost(t, s, author, nil, "older")
	newer := mustPost(t, s, author, nil, "newer")

	posts, err := s.FindPosts(context.Background(), nil, 0, 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, newer.ID, posts[0].ID)
	assert.Equal(t, older.ID, posts[1].ID)
}

func TestComments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	author := mustUser(t, s, "author")
	reader := mustUser(t, s, "reader")
	p := mustPost(t, s, author, nil, "post")

	c1, err := s.CreateComment(ctx, p.ID, reader.ID, "first comment")
	require.NoError(t, err)
	assert.Equal(t, "reader", c1.Author.Username)
	_, err = s.CreateComment(ctx, p.ID, author.ID, "reply")
	require.NoError(t, err)

	comments, err := s.CommentsForPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first comment", comments[0].Text)

	loaded, err := s.PostByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded.CommentCount)

	listed, err := s.FindPosts(ctx, nil, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), listed[0].CommentCount)

	_, err = s.CreateComment(ctx, 9999, reader.ID, "nowhere")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestDeleteGroup_NullifiesPosts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	author := mustUser(t, s, "author")
	group := mustGroup(t, s, "test_slug")
	p := mustPost(t, s, author, group, "grouped")

	require.NoError(t, s.DeleteGroup(ctx, "test_slug"))

	kept, err := s.PostByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.Group)
	assert.Equal(t, "grouped", kept.Text)

	assert.True(t, apperrors.Is(s.DeleteGroup(ctx, "test_slug"), apperrors.ErrNotFound))
}

func TestDeleteUser_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	author := mustUser(t, s, "author")
	reader := mustUser(t, s, "reader")
	doomed := mustPost(t, s, author, nil, "doomed")
	survivor := mustPost(t, s, reader, nil, "survivor")

	_, err := s.CreateComment(ctx, doomed.ID, reader.ID, "on doomed post")
	require.NoError(t, err)
	_, err = s.CreateComment(ctx, survivor.ID, author.ID, "by doomed author")
	require.NoError(t, err)
	_, err = s.CreateComment(ctx, survivor.ID, reader.ID, "stays")
	require.NoError(t, err)
	require.NoError(t, s.DB(ctx).Create(&models.Follow{UserID: reader.ID, AuthorID: author.ID}).Error)

	require.NoError(t, s.DeleteUser(ctx, author.ID))

	_, err = s.PostByID(ctx, doomed.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	var comments int64
	s.DB(ctx).Model(&models.Comment{}).Where("post_id = ?", doomed.ID).Count(&comments)
	assert.Zero(t, comments)

	left, err := s.CommentsForPost(ctx, survivor.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "stays", left[0].Text)

	var follows int64
	s.DB(ctx).Model(&models.Follow{}).Count(&follows)
	assert.Zero(t, follows)

	assert.True(t, apperrors.Is(s.DeleteUser(ctx, author.ID), apperrors.ErrNotFound))
}

func TestDeletePost_RemovesComments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	author := mustUser(t, s, "author")
	p := mustPost(t, s, author, nil, "post")
	_, err := s.CreateComment(ctx, p.ID, author.ID, "comment")
	require.NoError(t, err)

	require.NoError(t, s.DeletePost(ctx, p.ID))

	n, err := s.CommentCount(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
